package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat represents one conversation and embeds its ordered messages
type Chat struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"index" json:"userId,omitempty"`
	Title     string    `json:"title"`
	IsActive  bool      `gorm:"not null;default:true" json:"isActive"`
	Messages  []Message `gorm:"foreignKey:ChatID" json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message represents a message in a chat. Messages are append-only; the only
// in-place mutation is the growing content of the assistant message that is
// currently streaming.
type Message struct {
	ID          uint64       `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"chatId"`
	Role        string       `gorm:"not null" json:"role"` // "user" or "assistant"
	Content     string       `json:"content"`
	Attachments []Attachment `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Attachment is a file part carried by a user message.
type Attachment struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	MessageID uint64 `gorm:"not null;index" json:"-"`
	Filename  string `json:"filename"`
	URL       string `gorm:"not null" json:"url"`
	MediaType string `json:"mediaType"`
}
