package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/veilrank/veilrank-backend/internal/logger"
	"github.com/veilrank/veilrank-backend/internal/services"
)

const claimsContextKey = "service_claims"

// Scopes carried by service tokens. Write scopes are split per surface
// so a compromised pipeline credential cannot touch the others.
const (
	ScopeIdentityWrite      = "identity:write"
	ScopeReputationWrite    = "reputation:write"
	ScopeLedgerWrite        = "ledger:write"
	ScopeProofWrite         = "proof:write"
	ScopeLeaderboardRebuild = "leaderboard:rebuild"
	ScopeInternalRead       = "internal:read"
)

// AuthMiddleware guards the internal route group. Callers are
// collaborating services holding an HS256 token; humans and dapps never
// reach these routes.
type AuthMiddleware struct {
	log          *logger.Logger
	tokenService services.TokenService
}

func NewAuthMiddleware(log *logger.Logger, tokenService services.TokenService) *AuthMiddleware {
	middlewareLog := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLog, tokenService: tokenService}
}

// RequireServiceToken verifies the bearer token and, when scope is
// non-empty, requires that scope to be present in the claims.
func (am *AuthMiddleware) RequireServiceToken(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing service token"})
			return
		}
		claims, err := am.tokenService.Verify(token)
		if err != nil {
			am.log.Debug("Service token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid service token"})
			return
		}
		if scope != "" && !claims.HasScope(scope) {
			am.log.Warn("Service token lacks scope", "subject", claims.Subject, "scope", scope)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token lacks required scope"})
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// CallerClaims returns the verified claims set by RequireServiceToken,
// or nil on public routes.
func CallerClaims(c *gin.Context) *services.ServiceClaims {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*services.ServiceClaims)
	return claims
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
