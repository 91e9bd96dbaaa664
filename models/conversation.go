package models

import "time"

/************************************************
/**** MARK: MESSAGE SENDER ****/
/************************************************/
const MESSAGE_SENDER_USER = "user"
const MESSAGE_SENDER_AGENT = "agent"

// Conversation is a thread between one contact and one platform.
type Conversation struct {
	ID            int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	ContactID     int64      `gorm:"not null;index:ix_conversations_contact_platform" json:"contact_id"`
	Platform      Channel    `gorm:"type:varchar(32);not null;index:ix_conversations_contact_platform" json:"platform"`
	Context       string     `gorm:"type:text" json:"context,omitempty"` // JSON opaco, reservado
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

// Message is one line of dialogue. Rows are never updated.
type Message struct {
	ID             int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	ConversationID int64      `gorm:"not null;index" json:"conversation_id"`
	ContactID      int64      `gorm:"not null;index" json:"contact_id"`
	Sender         string     `gorm:"type:varchar(16);not null" json:"sender"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Metadata       string     `gorm:"type:text" json:"metadata,omitempty"` // JSON
	CreatedAt      *time.Time `gorm:"index" json:"created_at"`
}

func ValidSender(s string) bool {
	return s == MESSAGE_SENDER_USER || s == MESSAGE_SENDER_AGENT
}
