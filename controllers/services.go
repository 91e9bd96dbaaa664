package controllers

import (
	"context"

	"leaddesk/agent"
	"leaddesk/config"
	"leaddesk/contacts"
	"leaddesk/conversations"
	"leaddesk/knowledge"
	"leaddesk/models"
	"leaddesk/tasks"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const servicesKey = "services"

// InboundHandler runs one channel message through the agent.
type InboundHandler interface {
	HandleInboundMessage(ctx context.Context, in agent.Inbound) agent.Outcome
}

// SandboxRunner previews a reply without storing anything.
type SandboxRunner interface {
	Preview(ctx context.Context, text string, current models.InterestLevel) agent.Preview
}

// TelegramReplier sends a text back to a Telegram chat.
type TelegramReplier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Services is everything the handlers need besides the *gorm.DB.
// Telegram may be nil; the webhook then answers with a webhook-reply body.
type Services struct {
	Config        config.Configuration
	Agent         InboundHandler
	Sandbox       SandboxRunner
	Contacts      *contacts.Directory
	Conversations *conversations.Store
	Tasks         *tasks.Store
	Knowledge     *knowledge.Store
	Telegram      TelegramReplier
	Log           *zap.Logger
}

// SetServices exposes s to handlers through the gin context.
func SetServices(s *Services) gin.HandlerFunc {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Set(servicesKey, s)
		c.Next()
	}
}

func ServicesInstance(c *gin.Context) *Services {
	v, ok := c.Get(servicesKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Services)
	return s
}

func requireServices(c *gin.Context) (*Services, bool) {
	s := ServicesInstance(c)
	if s == nil {
		RespondError(c, "services não configurados no contexto", 500)
		return nil, false
	}
	return s, true
}
