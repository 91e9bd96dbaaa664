// Package conversations keeps conversation threads and their append-only
// message log.
package conversations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leaddesk/db"
	"leaddesk/models"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidSender        = errors.New("invalid message sender")
)

type Store struct {
	db  *gorm.DB
	log *zap.Logger

	// sessionTimeout > 0 starts a new conversation once the latest one has
	// been idle longer than this. Zero reuses a thread forever.
	sessionTimeout time.Duration
	now            func() time.Time
}

func NewStore(conn *gorm.DB, log *zap.Logger, sessionTimeout time.Duration) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:             conn,
		log:            log.With(zap.String("service", "conversations")),
		sessionTimeout: sessionTimeout,
		now:            time.Now,
	}
}

// ResolveOrCreate returns the newest conversation of contactID on platform,
// creating one when none exists (or the newest one expired).
func (s *Store) ResolveOrCreate(ctx context.Context, contactID int64, platform models.Channel) (*models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidChannel, int(platform))
	}

	var conv models.Conversation
	err := s.db.
		Where("contact_id = ? AND platform = ?", contactID, platform).
		Order("created_at desc, id desc").
		First(&conv).Error
	switch {
	case err == nil:
		if !s.expired(&conv) {
			return &conv, nil
		}
		s.log.Debug("conversation expired, starting a new one",
			zap.Int64("conversation_id", conv.ID), zap.Duration("timeout", s.sessionTimeout))
	case !db.IsNotFound(err):
		return nil, fmt.Errorf("lookup conversation: %w", err)
	}

	now := s.now()
	created := models.Conversation{
		ContactID:     contactID,
		Platform:      platform,
		LastMessageAt: &now,
	}
	if err := s.db.Create(&created).Error; err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return &created, nil
}

func (s *Store) expired(conv *models.Conversation) bool {
	if s.sessionTimeout <= 0 {
		return false
	}
	last := conv.LastMessageAt
	if last == nil {
		last = conv.CreatedAt
	}
	if last == nil {
		return false
	}
	return s.now().Sub(*last) > s.sessionTimeout
}

// AppendMessage inserts one message. metadata is stored as JSON when set.
func (s *Store) AppendMessage(ctx context.Context, conversationID, contactID int64, sender, content string, metadata map[string]any) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !models.ValidSender(sender) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSender, sender)
	}

	msg := models.Message{
		ConversationID: conversationID,
		ContactID:      contactID,
		Sender:         sender,
		Content:        content,
	}
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		msg.Metadata = string(b)
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	// best effort: a stale last_message_at only affects session expiry
	err := s.db.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("last_message_at", msg.CreatedAt).Error
	if err != nil {
		s.log.Warn("touch conversation failed", zap.Int64("conversation_id", conversationID), zap.Error(err))
	}
	return &msg, nil
}

// History returns the last limit messages of a conversation, oldest first.
func (s *Store) History(ctx context.Context, conversationID int64, limit int) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	var rows []models.Message
	err := s.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// Messages pages through a conversation in chronological order.
func (s *Store) Messages(ctx context.Context, conversationID int64, limit, offset int) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	var rows []models.Message
	err := s.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at asc, id asc").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	return rows, err
}

// ListByContact returns every conversation of a contact, newest first.
func (s *Store) ListByContact(ctx context.Context, contactID int64) ([]models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []models.Conversation
	err := s.db.
		Where("contact_id = ?", contactID).
		Order("created_at desc, id desc").
		Find(&rows).Error
	return rows, err
}

func (s *Store) Get(ctx context.Context, id int64) (*models.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var conv models.Conversation
	if err := s.db.First(&conv, id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}
