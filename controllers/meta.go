package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	dbpkg "leaddesk/db"
	"leaddesk/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetaPagePayload is the webhook body Messenger ("page") and Instagram
// ("instagram") deliver. Senders are page-scoped (PSID) or Instagram-scoped
// ids, never phone numbers.
type MetaPagePayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID        string `json:"id"`
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Recipient struct {
				ID string `json:"id"`
			} `json:"recipient"`
			Message *struct {
				Mid    string `json:"mid"`
				Text   string `json:"text"`
				IsEcho bool   `json:"is_echo"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

func extractPageMessages(payload MetaPagePayload) []IncomingTextMessage {
	var out []IncomingTextMessage
	for _, entry := range payload.Entry {
		pageID := strings.TrimSpace(entry.ID)
		for _, ev := range entry.Messaging {
			// postbacks, reads, deliveries e echos das nossas respostas
			if ev.Message == nil || ev.Message.IsEcho {
				continue
			}
			from := strings.TrimSpace(ev.Sender.ID)
			if from == "" || from == pageID {
				continue
			}
			body := strings.TrimSpace(ev.Message.Text)
			if body == "" {
				continue
			}
			out = append(out, IncomingTextMessage{
				From: from,
				ID:   strings.TrimSpace(ev.Message.Mid),
				Text: body,
			})
		}
	}
	return out
}

// GET /api/webhook/messenger
func MessengerVerify(c *gin.Context) {
	s, ok := requireServices(c)
	if !ok {
		return
	}
	respondMetaChallenge(c, s, "messenger", s.Config.Meta.VerifyToken)
}

// POST /api/webhook/messenger
func MessengerUpdate(c *gin.Context) {
	metaPageUpdate(c, models.ChannelMessenger, "page")
}

// GET /api/webhook/instagram
func InstagramVerify(c *gin.Context) {
	s, ok := requireServices(c)
	if !ok {
		return
	}
	respondMetaChallenge(c, s, "instagram", s.Config.Meta.VerifyToken)
}

// POST /api/webhook/instagram
func InstagramUpdate(c *gin.Context) {
	metaPageUpdate(c, models.ChannelInstagram, "instagram")
}

func metaPageUpdate(c *gin.Context, ch models.Channel, object string) {
	s, ok := requireServices(c)
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}
	log := requestLogger(c, s).With(zap.Stringer("channel", ch))

	raw, err := c.GetRawData()
	if err != nil {
		RespondError(c, "failed to read body", http.StatusBadRequest)
		return
	}

	if secret := s.Config.Meta.AppSecret; secret != "" {
		if ok, reason := verifyMetaSignature(c, secret, raw); !ok {
			log.Warn("meta signature rejected", zap.String("reason", reason))
			RespondError(c, "forbidden: "+reason, http.StatusForbidden)
			return
		}
	}

	var payload MetaPagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}
	if payload.Object != object {
		RespondError(c, "unexpected object "+payload.Object, http.StatusNotFound)
		return
	}

	msgs := extractPageMessages(payload)
	c.String(http.StatusOK, "EVENT_RECEIVED")

	debounce := s.Config.Debounce()
	for _, m := range msgs {
		if err := upsertDebouncedEvent(db, ch, m, debounce); err != nil {
			log.Error("store meta event failed", zap.String("message_id", m.ID), zap.Error(err))
		}
	}
}
