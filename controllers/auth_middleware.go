package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const ctxClaimsKey = "auth_claims"

// AuthRequired validates the Bearer token and stores its claims in context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			RespondError(c, "missing bearer token", http.StatusUnauthorized)
			c.Abort()
			return
		}
		token := strings.TrimSpace(h[len("Bearer "):])
		claims, err := parseAndVerifyJWT(token, secret)
		if err != nil {
			if s := ServicesInstance(c); s != nil {
				requestLogger(c, s).Debug("jwt rejected", zap.Error(err))
			}
			RespondError(c, "invalid token", http.StatusUnauthorized)
			c.Abort()
			return
		}

		c.Set(ctxClaimsKey, claims)
		c.Next()
	}
}

// GetClaims returns the claims loaded by AuthRequired.
func GetClaims(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(ctxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok && claims != nil
}
