package services

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veilrank/veilrank-backend/internal/apperr"
	"github.com/veilrank/veilrank-backend/internal/config"
	"github.com/veilrank/veilrank-backend/internal/logger"
)

// ServiceClaims are the claims carried by collaborator service tokens.
// Subject names the calling system (scoring pipeline, prover, admin
// tooling); scopes bound what it may do.
type ServiceClaims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

func (c *ServiceClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// TokenService mints and verifies the HS256 tokens that guard the
// write and internal surfaces. Collaborators hold the shared secret, so
// they can mint their own tokens out of band; Mint exists for tooling
// and tests.
type TokenService interface {
	Mint(subject string, scopes []string) (string, error)
	Verify(tokenString string) (*ServiceClaims, error)
}

type tokenService struct {
	log    *logger.Logger
	secret []byte
	ttl    time.Duration
}

func NewTokenService(log *logger.Logger, cfg config.AuthConfig) TokenService {
	serviceLog := log.With("service", "TokenService")
	return &tokenService{
		log:    serviceLog,
		secret: []byte(cfg.ServiceTokenSecret),
		ttl:    cfg.ServiceTokenTTL,
	}
}

func (ts *tokenService) Mint(subject string, scopes []string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", apperr.Validationf("missing_subject", "token subject is required")
	}
	now := time.Now()
	claims := &ServiceClaims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.secret)
}

func (ts *tokenService) Verify(tokenString string) (*ServiceClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, apperr.Unauthorizedf("missing_token", "service token is required")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Unauthorizedf("bad_signing_method", "unexpected signing method %v", token.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil {
		return nil, apperr.Unauthorized("invalid_token", err)
	}
	claims, ok := parsed.Claims.(*ServiceClaims)
	if !ok || !parsed.Valid {
		return nil, apperr.Unauthorizedf("invalid_token", "invalid or expired service token")
	}
	return claims, nil
}
