package controllers

import (
	"net/http"
	"strings"

	"leaddesk/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SandboxRequest struct {
	Message string `json:"message"`
	// Nível de interesse simulado do contato; vazio = new.
	InterestLevel string `json:"interest_level"`
}

// POST /api/sandbox/test-message
//
// Lets an operator try the agent without creating contacts, conversations or
// tasks.
func SandboxTestMessage(c *gin.Context) {
	s, ok := requireServices(c)
	if !ok {
		return
	}
	if s.Sandbox == nil {
		RespondError(c, "sandbox indisponível", http.StatusServiceUnavailable)
		return
	}

	var req SandboxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		RespondError(c, "message cannot be empty", http.StatusBadRequest)
		return
	}

	level := models.InterestNew
	if raw := strings.TrimSpace(req.InterestLevel); raw != "" {
		parsed, err := models.ParseInterestLevel(raw)
		if err != nil {
			RespondError(c, err.Error(), http.StatusBadRequest)
			return
		}
		level = parsed
	}

	p := s.Sandbox.Preview(c.Request.Context(), text, level)
	requestLogger(c, s).Debug("sandbox message", zap.Bool("fallback", p.Fallback), zap.Stringer("interest", p.Interest))
	RespondSuccess(c, p)
}
