package models

import "time"

/************************************************
/**** MARK: EVENT STATUS ****/
/************************************************/
const EVENT_STATUS_PENDING = "pending"
const EVENT_STATUS_PROCESSING = "processing"
const EVENT_STATUS_DONE = "done"
const EVENT_STATUS_INVALIDATED = "invalidated"

// Event is an inbound channel message waiting for its debounce window.
// Messages from the same recipient that arrive inside the window are folded
// into one event; the older rows are marked invalidated.
type Event struct {
	ID             int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Channel        Channel    `gorm:"type:varchar(32);not null;index" json:"channel"`
	Recipient      string     `gorm:"not null;index" json:"recipient"` // ex: telefone do remetente (from)
	Name           string     `gorm:"default:''" json:"name"`
	MessageID      string     `gorm:"default:'';index" json:"message_id"`
	Text           string     `gorm:"type:text" json:"text"`
	Status         string     `gorm:"not null;default:'pending';index" json:"status"`
	ScheduledAt    *time.Time `gorm:"index" json:"scheduled_at"`
	ProcessedAt    *time.Time `json:"processed_at"`
	InvalidatedAt  *time.Time `json:"invalidated_at"`
	ReplyText      string     `gorm:"type:text" json:"reply_text"`
	ContactID      int64      `gorm:"not null;default:0" json:"contact_id"`
	ReplyMessageID int64      `gorm:"not null;default:0" json:"reply_message_id"`
	CreatedAt      *time.Time `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}
