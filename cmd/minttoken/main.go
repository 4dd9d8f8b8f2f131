package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/veilrank/veilrank-backend/internal/config"
	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/services"
)

// minttoken issues a scoped service token for the internal API, signed
// with the same secret the server verifies against. Intended for
// bootstrapping pipelines and for operators poking the internal routes.
func main() {
	subject := flag.String("subject", "", "caller name embedded in the token (required)")
	scopes := flag.String("scopes", "internal:read", "comma separated scopes to grant")
	flag.Parse()

	if strings.TrimSpace(*subject) == "" {
		fmt.Fprintln(os.Stderr, "usage: minttoken -subject <name> [-scopes scope1,scope2]")
		os.Exit(2)
	}

	log, err := logger.New("production")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var granted []string
	for _, s := range strings.Split(*scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			granted = append(granted, s)
		}
	}

	tokenService := services.NewTokenService(log, cfg.Auth)
	token, err := tokenService.Mint(*subject, granted)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
