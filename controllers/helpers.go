package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"leaddesk/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func ParamID(c *gin.Context, name string) (int64, bool) {
	v := c.Param(name)
	if v == "" {
		RespondError(c, name+" é obrigatório", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, name+" inválido", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// requestLogger returns the logger the request logger middleware attached,
// falling back to the service logger.
func requestLogger(c *gin.Context, s *Services) *zap.Logger {
	return logger.FromContextOr(c.Request.Context(), s.Log)
}
