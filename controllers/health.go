package controllers

import (
	"net/http"

	dbpkg "leaddesk/db"

	"github.com/gin-gonic/gin"
)

// GET /health
func Health(c *gin.Context) {
	status := gin.H{"status": "ok"}

	if db := dbpkg.DBInstance(c); db != nil {
		if err := db.DB().PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": err.Error()})
			return
		}
		status["db"] = "ok"
	}
	if s := ServicesInstance(c); s != nil {
		status["llm"] = !s.Config.LLM.Disabled && s.Config.LLM.APIKey != ""
		status["telegram"] = s.Telegram != nil
	}
	RespondSuccess(c, status)
}
