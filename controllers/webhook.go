package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	dbpkg "leaddesk/db"
	"leaddesk/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

type WebhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Contacts []struct {
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
					WaID string `json:"wa_id"`
				} `json:"contacts"`
				Messages []struct {
					From string `json:"from"`
					ID   string `json:"id"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type IncomingTextMessage struct {
	From string
	Name string
	ID   string
	Text string
}

func extractTextMessages(payload WebhookPayload) []IncomingTextMessage {
	var out []IncomingTextMessage

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if strings.TrimSpace(change.Field) != "messages" {
				continue
			}
			names := map[string]string{}
			for _, ct := range change.Value.Contacts {
				names[strings.TrimSpace(ct.WaID)] = strings.TrimSpace(ct.Profile.Name)
			}
			for _, m := range change.Value.Messages {
				if strings.ToLower(strings.TrimSpace(m.Type)) != "text" {
					continue
				}
				body := strings.TrimSpace(m.Text.Body)
				if body == "" {
					continue
				}
				from := strings.TrimSpace(m.From)
				out = append(out, IncomingTextMessage{
					From: from,
					Name: names[from],
					ID:   strings.TrimSpace(m.ID),
					Text: body,
				})
			}
		}
	}

	return out
}

// verifyMetaSignature validates the request body against Meta's signature header.
//
// WhatsApp/Graph Webhooks send: X-Hub-Signature-256: sha256=<hex>
// The secret is the Meta App Secret (NOT the WhatsApp access token).
func verifyMetaSignature(c *gin.Context, secret string, rawBody []byte) (bool, string) {
	sig := strings.TrimSpace(c.GetHeader("X-Hub-Signature-256"))
	if sig == "" {
		return false, "missing X-Hub-Signature-256"
	}
	if !strings.HasPrefix(sig, "sha256=") {
		return false, "invalid X-Hub-Signature-256 format"
	}

	provided, err := hex.DecodeString(strings.TrimPrefix(sig, "sha256="))
	if err != nil {
		return false, "invalid signature hex"
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(rawBody)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return false, "signature mismatch"
	}
	return true, ""
}

// GET /api/webhook/whatsapp
func WhatsAppVerify(c *gin.Context) {
	s, ok := requireServices(c)
	if !ok {
		return
	}
	respondMetaChallenge(c, s, "whatsapp", s.Config.WhatsApp.VerifyToken)
}

// respondMetaChallenge answers the hub.challenge handshake Meta runs when a
// webhook is (re)subscribed.
func respondMetaChallenge(c *gin.Context, s *Services, platform, verifyToken string) {
	if verifyToken == "" {
		RespondError(c, "WEBHOOK_VERIFY_TOKEN not set", http.StatusInternalServerError)
		return
	}

	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")
	tokenOK := subtle.ConstantTimeCompare([]byte(token), []byte(verifyToken)) == 1

	requestLogger(c, s).Info(platform+" verify", zap.String("mode", mode), zap.Bool("token_ok", tokenOK))

	if mode == "subscribe" && tokenOK && challenge != "" {
		c.String(http.StatusOK, "%s", challenge)
		return
	}
	RespondError(c, "forbidden", http.StatusForbidden)
}

// POST /api/webhook/whatsapp
func WhatsAppUpdate(c *gin.Context) {
	s, ok := requireServices(c)
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}
	log := requestLogger(c, s)

	raw, err := c.GetRawData()
	if err != nil {
		RespondError(c, "failed to read body", http.StatusBadRequest)
		return
	}

	if secret := s.Config.WhatsApp.AppSecret; secret != "" {
		if ok, reason := verifyMetaSignature(c, secret, raw); !ok {
			log.Warn("whatsapp signature rejected", zap.String("reason", reason))
			RespondError(c, "forbidden: "+reason, http.StatusForbidden)
			return
		}
	}

	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}

	msgs := extractTextMessages(payload)

	// responde rápido pro Meta; o worker processa depois da janela de debounce
	c.String(http.StatusOK, "EVENT_RECEIVED")

	debounce := s.Config.Debounce()
	for _, m := range msgs {
		if err := upsertDebouncedEvent(db, models.ChannelWhatsApp, m, debounce); err != nil {
			log.Error("store whatsapp event failed", zap.String("message_id", m.ID), zap.Error(err))
		}
	}
}

// Debounce por (channel + recipient). Meta retries deliver the same message
// id again; those are dropped.
func upsertDebouncedEvent(db *gorm.DB, ch models.Channel, m IncomingTextMessage, debounce time.Duration) error {
	if m.ID != "" {
		var seen int
		if err := db.Model(&models.Event{}).
			Where("channel = ? AND message_id = ?", ch, m.ID).
			Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			return nil
		}
	}

	now := time.Now()
	scheduled := now.Add(debounce)

	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	var last models.Event
	err := tx.
		Where("channel = ? AND recipient = ? AND status = ?", ch, m.From, models.EVENT_STATUS_PENDING).
		Where("scheduled_at IS NOT NULL AND scheduled_at > ?", now).
		Order("id desc").
		First(&last).Error

	combinedText := m.Text
	if err == nil && last.ID > 0 {
		t := time.Now()
		if err := tx.Model(&models.Event{}).Where("id = ?", last.ID).Updates(map[string]any{
			"status":         models.EVENT_STATUS_INVALIDATED,
			"invalidated_at": &t,
		}).Error; err != nil {
			tx.Rollback()
			return err
		}

		if strings.TrimSpace(last.Text) != "" {
			combinedText = strings.TrimSpace(last.Text) + "\n" + m.Text
		}
	}

	ev := models.Event{
		Channel:     ch,
		Recipient:   m.From,
		Name:        m.Name,
		MessageID:   m.ID,
		Text:        combinedText,
		Status:      models.EVENT_STATUS_PENDING,
		ScheduledAt: &scheduled,
	}

	if err := tx.Create(&ev).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
