package models

import "time"

// KnowledgeSnippet is an operator-provided fact the agent can quote.
type KnowledgeSnippet struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Title     string     `gorm:"not null" json:"title"`
	Category  string     `gorm:"default:'general';index" json:"category"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Keywords  string     `gorm:"type:text" json:"keywords"`  // separadas por vírgula
	Embedding string     `gorm:"type:text" json:"embedding"` // JSON array (ex: [0.1,0.2,...])
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
