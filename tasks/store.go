// Package tasks turns inbound requests (talk to a human, brochure, quote,
// demo) into follow-up tasks for the sales team.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leaddesk/db"
	"leaddesk/models"

	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTitleRequired   = errors.New("task title is required")
	ErrUnknownContact  = errors.New("contact not found")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPriority = errors.New("invalid task priority")
)

var openStatuses = []string{models.TASK_STATUS_PENDING, models.TASK_STATUS_IN_PROGRESS}

type Store struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewStore(conn *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: conn, log: log.With(zap.String("service", "tasks")), now: time.Now}
}

// CreateForTriggers creates one pending task per trigger, skipping kinds the
// contact already has an open task for. It returns the tasks it created.
func (s *Store) CreateForTriggers(ctx context.Context, contactID, conversationID int64, message string, triggers []Trigger) ([]models.AgentTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var created []models.AgentTask
	for _, tr := range triggers {
		var open int
		err := s.db.Model(&models.AgentTask{}).
			Where("contact_id = ? AND kind = ? AND status IN (?)", contactID, tr.Kind, openStatuses).
			Count(&open).Error
		if err != nil {
			return created, fmt.Errorf("count open tasks: %w", err)
		}
		if open > 0 {
			s.log.Debug("open task exists, skipping",
				zap.Int64("contact_id", contactID), zap.String("kind", tr.Kind))
			continue
		}

		due := s.now().Add(tr.DueIn)
		task := models.AgentTask{
			ContactID:      contactID,
			ConversationID: conversationID,
			Kind:           tr.Kind,
			Title:          tr.Title,
			Description:    describe(tr, message),
			Status:         models.TASK_STATUS_PENDING,
			Priority:       tr.Priority,
			DueDate:        &due,
		}
		if err := s.db.Create(&task).Error; err != nil {
			return created, fmt.Errorf("create task %s: %w", tr.Kind, err)
		}
		created = append(created, task)
	}
	return created, nil
}

func describe(tr Trigger, message string) string {
	msg := strings.TrimSpace(message)
	if r := []rune(msg); len(r) > 500 {
		msg = string(r[:500]) + "..."
	}
	return fmt.Sprintf("Disparado por \"%s\". Mensaje del contacto: %s", tr.Matched, msg)
}

// Filter narrows List. Zero values mean "any".
type Filter struct {
	ContactID int64
	Status    string
	Priority  string
	Kind      string
	Limit     int
	Offset    int
}

// List returns tasks by due date, soonest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.AgentTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := s.db.Model(&models.AgentTask{})
	if f.ContactID > 0 {
		q = q.Where("contact_id = ?", f.ContactID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.AgentTask
	err := q.Order("due_date asc, id asc").Limit(limit).Offset(f.Offset).Find(&out).Error
	return out, err
}

func (s *Store) Get(ctx context.Context, id int64) (*models.AgentTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var t models.AgentTask
	if err := s.db.First(&t, id).Error; err != nil {
		if db.IsNotFound(err) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

// CreateRequest is a task an operator adds by hand from the panel.
type CreateRequest struct {
	ContactID      int64      `json:"contact_id" binding:"required"`
	ConversationID int64      `json:"conversation_id"`
	Kind           string     `json:"kind"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"due_date"`
}

// Create stores a pending task for an existing contact. Kind defaults to
// manual and priority to medium. Manual tasks are not de-duplicated.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*models.AgentTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	priority := strings.TrimSpace(req.Priority)
	if priority == "" {
		priority = models.TASK_PRIORITY_MEDIUM
	}
	if !models.ValidTaskPriority(priority) {
		return nil, ErrInvalidPriority
	}
	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		kind = models.TASK_KIND_MANUAL
	}

	var n int
	if err := s.db.Model(&models.Contact{}).Where("id = ?", req.ContactID).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check contact: %w", err)
	}
	if n == 0 {
		return nil, ErrUnknownContact
	}

	task := models.AgentTask{
		ContactID:      req.ContactID,
		ConversationID: req.ConversationID,
		Kind:           kind,
		Title:          title,
		Description:    strings.TrimSpace(req.Description),
		Status:         models.TASK_STATUS_PENDING,
		Priority:       priority,
		DueDate:        req.DueDate,
	}
	if err := s.db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.log.Info("manual task created", zap.Int64("task_id", task.ID), zap.Int64("contact_id", task.ContactID))
	return &task, nil
}

// UpdateRequest is the allow-list of fields an operator may change.
type UpdateRequest struct {
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Description *string    `json:"description"`
}

// Update applies req. Moving to completed stamps completed_at; moving away
// from it clears the stamp.
func (s *Store) Update(ctx context.Context, id int64, req UpdateRequest) (*models.AgentTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Status != nil {
		st := strings.TrimSpace(*req.Status)
		if !models.ValidTaskStatus(st) {
			return nil, ErrInvalidStatus
		}
		updates["status"] = st
		if st == models.TASK_STATUS_COMPLETED {
			now := s.now()
			updates["completed_at"] = &now
		} else {
			updates["completed_at"] = gorm.Expr("NULL")
		}
	}
	if req.Priority != nil {
		p := strings.TrimSpace(*req.Priority)
		if !models.ValidTaskPriority(p) {
			return nil, ErrInvalidPriority
		}
		updates["priority"] = p
	}
	if req.DueDate != nil {
		updates["due_date"] = req.DueDate
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if len(updates) > 0 {
		if err := s.db.Model(&models.AgentTask{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}
