package router

import (
	"net/http"

	"leaddesk/controllers"

	"github.com/gin-gonic/gin"
)

// Adminizer blocks access when the token does not carry the admin role.
func Adminizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := controllers.GetClaims(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		if claims.Role != controllers.RoleAdmin {
			controllers.RespondError(c, "admin required", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
