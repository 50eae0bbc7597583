package logic

import (
	"context"
	"fmt"
	"testing"

	"deepchat-backend/dao"
	"deepchat-backend/models"
	"deepchat-backend/pkg"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Chat{}, &models.Message{}, &models.Attachment{}, &models.User{}))
	return db
}

// scriptedStreamClient replays a fixed sequence of deltas and a usage chunk.
type scriptedStreamClient struct {
	deltas []string
	usage  *pkg.Usage
	err    error
	block  bool // wait for ctx cancellation instead of producing output
}

func (c *scriptedStreamClient) CreateChatCompletionStream(ctx context.Context, _ pkg.ChatCompletionRequest, handler func(*pkg.StreamChatCompletionResponse) error) error {
	if c.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if c.err != nil {
		return c.err
	}
	for _, delta := range c.deltas {
		resp := &pkg.StreamChatCompletionResponse{
			Choices: []pkg.StreamChoice{{Delta: pkg.StreamDelta{Content: delta}}},
		}
		if err := handler(resp); err != nil {
			return err
		}
	}
	if c.usage != nil {
		if err := handler(&pkg.StreamChatCompletionResponse{Usage: c.usage}); err != nil {
			return err
		}
	}
	return nil
}

func messageContents(t *testing.T, chatDAO *dao.ChatDAO, chatID uuid.UUID) []models.Message {
	t.Helper()
	chat, err := chatDAO.GetActiveChat(chatID)
	require.NoError(t, err)
	return chat.Messages
}
