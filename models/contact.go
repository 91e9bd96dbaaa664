package models

import (
	"strings"
	"time"
)

// UnknownContactName is stored when a contact never told us their name.
const UnknownContactName = "Usuario desconocido"

// Contact is a person/lead tracked across one or more channels.
// Phone and email are unique when present; NULL is used for "unknown".
type Contact struct {
	ID            int64            `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name          string           `gorm:"not null" json:"name"`
	Phone         *string          `gorm:"unique_index:ux_contacts_phone" json:"phone"`
	Email         *string          `gorm:"unique_index:ux_contacts_email" json:"email"`
	Company       string           `gorm:"default:''" json:"company"`
	Notes         string           `gorm:"type:text" json:"notes"`
	InterestLevel InterestLevel    `gorm:"type:varchar(32);not null;index" json:"interest_level"`
	Channels      []ContactChannel `gorm:"foreignkey:ContactID" json:"channels,omitempty"`
	CreatedAt     *time.Time       `json:"created_at"`
	UpdatedAt     *time.Time       `json:"updated_at"`

	// Ephemeral marks an in-memory stand-in used when storage is unavailable.
	Ephemeral bool `gorm:"-" json:"ephemeral,omitempty"`
}

// HasPlaceholderName reports whether the stored name can be replaced by a hint.
func (c *Contact) HasPlaceholderName() bool {
	n := strings.TrimSpace(c.Name)
	return n == "" || n == UnknownContactName
}

// ExternalID returns the identifier the contact has on ch, if any is loaded.
func (c *Contact) ExternalID(ch Channel) (string, bool) {
	for _, cc := range c.Channels {
		if cc.Channel == ch {
			return cc.ExternalID, true
		}
	}
	return "", false
}

// ContactChannel links a contact to its opaque user id on one channel.
// A contact has at most one identifier per channel and an identifier
// belongs to a single contact.
type ContactChannel struct {
	ID         int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	ContactID  int64      `gorm:"not null;index;unique_index:ux_contact_channel" json:"contact_id"`
	Channel    Channel    `gorm:"type:varchar(32);not null;unique_index:ux_contact_channel,ux_channel_external" json:"channel"`
	ExternalID string     `gorm:"not null;unique_index:ux_channel_external" json:"external_id"`
	CreatedAt  *time.Time `json:"created_at"`
}

// StrPtr returns nil for blank strings so optional columns stay NULL.
func StrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// StrVal dereferences an optional column.
func StrVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
