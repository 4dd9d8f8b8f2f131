package utils

import (
	"os"
	"strconv"
	"time"

	"github.com/veilrank/veilrank-backend/internal/logger"
)

// Env lookup helpers behind config.Load. A nil logger keeps them
// silent so config tests can call through without wiring zap.

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		envDebug(log, key, "Environment variable not found, using default", "default", defaultVal)
		return defaultVal
	}
	envDebug(log, key, "Environment variable found, using environment", "environment", val)
	return val
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		envDebug(log, key, "Environment variable not found, using default", "default", defaultVal)
		return defaultVal
	}
	parsed, err := strconv.Atoi(valStr)
	if err != nil {
		envDebug(log, key, "Environment variable could not be parsed as int, using default",
			"providedVal", valStr, "defaultVal", defaultVal, "error", err)
		return defaultVal
	}
	envDebug(log, key, "Environment variable found, using it", "value", parsed)
	return parsed
}

// GetEnvAsSeconds reads an integer second count. Duration-valued config
// is expressed in whole seconds throughout the service.
func GetEnvAsSeconds(key string, defaultSeconds int, log *logger.Logger) time.Duration {
	return time.Duration(GetEnvAsInt(key, defaultSeconds, log)) * time.Second
}

func envDebug(log *logger.Logger, key, msg string, keysAndValues ...interface{}) {
	if log == nil {
		return
	}
	log.With("env_var", key).Debug(msg, keysAndValues...)
}
