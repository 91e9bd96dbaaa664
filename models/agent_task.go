package models

import "time"

/************************************************
/**** MARK: TASK STATUS ****/
/************************************************/
const TASK_STATUS_PENDING = "pending"
const TASK_STATUS_IN_PROGRESS = "in_progress"
const TASK_STATUS_COMPLETED = "completed"
const TASK_STATUS_FAILED = "failed"

/************************************************
/**** MARK: TASK PRIORITY ****/
/************************************************/
const TASK_PRIORITY_LOW = "low"
const TASK_PRIORITY_MEDIUM = "medium"
const TASK_PRIORITY_HIGH = "high"

/************************************************
/**** MARK: TASK KIND ****/
/************************************************/
const TASK_KIND_ESCALATE = "escalate_to_human"
const TASK_KIND_BROCHURE = "send_brochure"
const TASK_KIND_QUOTE = "generate_quote"
const TASK_KIND_DEMO = "schedule_demo"
const TASK_KIND_MANUAL = "manual" // criada pelo painel

// AgentTask is a follow-up for a human operator created by the agent.
type AgentTask struct {
	ID             int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	ContactID      int64      `gorm:"not null;index" json:"contact_id"`
	ConversationID int64      `gorm:"not null;default:0" json:"conversation_id"`
	Kind           string     `gorm:"type:varchar(32);not null;index" json:"kind"`
	Title          string     `gorm:"not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	Status         string     `gorm:"type:varchar(16);not null;index" json:"status"`
	Priority       string     `gorm:"type:varchar(16);not null" json:"priority"`
	DueDate        *time.Time `gorm:"index" json:"due_date"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

func ValidTaskStatus(s string) bool {
	switch s {
	case TASK_STATUS_PENDING, TASK_STATUS_IN_PROGRESS, TASK_STATUS_COMPLETED, TASK_STATUS_FAILED:
		return true
	}
	return false
}

func ValidTaskPriority(s string) bool {
	switch s {
	case TASK_PRIORITY_LOW, TASK_PRIORITY_MEDIUM, TASK_PRIORITY_HIGH:
		return true
	}
	return false
}
