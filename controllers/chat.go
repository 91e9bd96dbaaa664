package controllers

import (
	"net/http"
	"strings"

	"leaddesk/agent"
	"leaddesk/models"

	"github.com/gin-gonic/gin"
)

type ContactInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

// ChatRequest is the web widget payload. The endpoint is public, so it
// always speaks for the web channel: session_id is a web session, never a
// WhatsApp or Telegram identity.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`

	ContactInfo *ContactInfo `json:"contact_info"`
	// legado: o widget antigo ainda manda customer_info
	CustomerInfo *ContactInfo `json:"customer_info"`
}

type ChatResponse struct {
	Response       string `json:"response"`
	ContactID      int64  `json:"contact_id,omitempty"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	MessageID      int64  `json:"message_id,omitempty"`
	InterestLevel  string `json:"interest_level"`
	Fallback       bool   `json:"fallback"`
}

// POST /api/chat
func Chat(c *gin.Context) {
	s, ok := requireServices(c)
	if !ok {
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		RespondError(c, "message cannot be empty", http.StatusBadRequest)
		return
	}

	info := req.ContactInfo
	if info == nil {
		info = req.CustomerInfo
	}
	hints := agent.Hints{ExternalID: strings.TrimSpace(req.SessionID)}
	if info != nil {
		hints.Name = info.Name
		hints.Phone = info.Phone
		hints.Email = info.Email
		hints.Company = info.Company
	}

	out := s.Agent.HandleInboundMessage(c.Request.Context(), agent.Inbound{
		Text:    text,
		Channel: models.ChannelWeb.String(),
		Hints:   hints,
	})

	RespondSuccess(c, ChatResponse{
		Response:       out.Reply,
		ContactID:      out.ContactID,
		ConversationID: out.ConversationID,
		MessageID:      out.MessageID,
		InterestLevel:  out.Interest.String(),
		Fallback:       out.Fallback,
	})
}
