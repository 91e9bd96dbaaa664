package controllers

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"leaddesk/agent"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// POST /api/webhook/telegram/:secret
//
// The secret is the path segment registered with setWebhook. The message is
// handled inline; the reply goes out through the Bot API when a token is
// configured, otherwise as a webhook reply in the response body.
func TelegramUpdate(c *gin.Context) {
	s, ok := requireServices(c)
	if !ok {
		return
	}
	expected := s.Config.Telegram.WebhookSecret
	if expected == "" || subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(expected)) != 1 {
		RespondError(c, "forbidden", http.StatusForbidden)
		return
	}
	log := requestLogger(c, s)

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		// edits, callbacks, stickers...
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	hints := agent.Hints{ExternalID: strconv.FormatInt(msg.Chat.ID, 10)}
	if msg.From != nil {
		hints.ExternalID = strconv.FormatInt(msg.From.ID, 10)
		hints.Name = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		if hints.Name == "" {
			hints.Name = strings.TrimSpace(msg.From.UserName)
		}
	}

	out := s.Agent.HandleInboundMessage(c.Request.Context(), agent.Inbound{
		Text:    msg.Text,
		Channel: "telegram",
		Hints:   hints,
	})

	if s.Telegram != nil {
		if err := s.Telegram.SendText(c.Request.Context(), msg.Chat.ID, out.Reply); err != nil {
			log.Error("telegram send failed", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		} else {
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
	}

	c.Status(http.StatusOK)
	if err := tgbotapi.WriteToHTTPResponse(c.Writer, tgbotapi.NewMessage(msg.Chat.ID, out.Reply)); err != nil {
		log.Error("telegram webhook reply failed", zap.Error(err))
	}
}
