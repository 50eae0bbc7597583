package dao

import (
	"deepchat-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatDAO handles chat-related database operations
type ChatDAO struct {
	db *gorm.DB
}

func NewChatDAO(db *gorm.DB) *ChatDAO {
	return &ChatDAO{db: db}
}

// CreateChat creates a new active chat
func (d *ChatDAO) CreateChat(userID string) (*models.Chat, error) {
	chat := &models.Chat{
		ID:       uuid.New(),
		UserID:   userID,
		IsActive: true,
	}
	if err := d.db.Create(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

// EnsureChat returns the chat with the given id, creating it if absent.
func (d *ChatDAO) EnsureChat(chatID uuid.UUID, userID string) (*models.Chat, error) {
	var chat models.Chat
	err := d.db.Where("id = ?", chatID).First(&chat).Error
	if err == gorm.ErrRecordNotFound {
		chat = models.Chat{ID: chatID, UserID: userID, IsActive: true}
		if err := d.db.Create(&chat).Error; err != nil {
			return nil, err
		}
		return &chat, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetActiveChat retrieves a chat with its messages and attachments. Soft
// deleted chats are filtered out.
func (d *ChatDAO) GetActiveChat(chatID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	err := d.db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("messages.created_at ASC, messages.id ASC")
		}).
		Preload("Messages.Attachments").
		Where("id = ? AND is_active = ?", chatID, true).
		First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// ListActiveChats retrieves all active chats owned by a user, newest first.
func (d *ChatDAO) ListActiveChats(userID string) ([]models.Chat, error) {
	chats := make([]models.Chat, 0)
	err := d.db.
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("updated_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// SoftDeleteChat flips the active flag. The record is never hard-deleted.
func (d *ChatDAO) SoftDeleteChat(chatID uuid.UUID) error {
	return d.db.Model(&models.Chat{}).
		Where("id = ?", chatID).
		Update("is_active", false).Error
}

// SetTitleIfEmpty sets the chat title once, from the first user message.
func (d *ChatDAO) SetTitleIfEmpty(chatID uuid.UUID, title string) error {
	return d.db.Model(&models.Chat{}).
		Where("id = ? AND (title = '' OR title IS NULL)", chatID).
		Update("title", title).Error
}

// AppendMessage adds a message (with optional attachments) to a chat
func (d *ChatDAO) AppendMessage(chatID uuid.UUID, role, content string, attachments []models.Attachment) (*models.Message, error) {
	msg := &models.Message{
		ChatID:      chatID,
		Role:        role,
		Content:     content,
		Attachments: attachments,
	}
	if err := d.db.Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

// UpdateMessageContent overwrites a message's content. Used for the
// progressive extension of the streaming assistant message.
func (d *ChatDAO) UpdateMessageContent(messageID uint64, content string) error {
	return d.db.Model(&models.Message{}).
		Where("id = ?", messageID).
		Update("content", content).Error
}
