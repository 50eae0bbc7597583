package logic

import (
	"fmt"
	"strings"
	"testing"

	"deepchat-backend/dao"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointWriterSyncWinsOverPending(t *testing.T) {
	db := newTestDB(t)
	chatDAO := dao.NewChatDAO(db)
	chat, err := chatDAO.CreateChat("u1")
	require.NoError(t, err)
	msg, err := chatDAO.AppendMessage(chat.ID, "assistant", "", nil)
	require.NoError(t, err)

	w := NewCheckpointWriter(chatDAO, quietLogger())

	// Flood the queue with growing snapshots; Sync with the full content must
	// be the persisted value once it returns.
	content := strings.Repeat("x", 2000)
	for i := 100; i < 2000; i += 100 {
		w.Enqueue(chat.ID.String(), msg.ID, content[:i])
	}
	w.Sync(chat.ID.String(), msg.ID, content)

	messages := messageContents(t, chatDAO, chat.ID)
	require.Len(t, messages, 1)
	assert.Equal(t, content, messages[0].Content)
}

func TestCheckpointWriterIndependentChats(t *testing.T) {
	db := newTestDB(t)
	chatDAO := dao.NewChatDAO(db)

	w := NewCheckpointWriter(chatDAO, quietLogger())

	for i := 0; i < 3; i++ {
		chat, err := chatDAO.CreateChat("u1")
		require.NoError(t, err)
		msg, err := chatDAO.AppendMessage(chat.ID, "assistant", "", nil)
		require.NoError(t, err)

		want := fmt.Sprintf("chat-%d-final", i)
		w.Enqueue(chat.ID.String(), msg.ID, "partial")
		w.Sync(chat.ID.String(), msg.ID, want)

		messages := messageContents(t, chatDAO, chat.ID)
		require.Len(t, messages, 1)
		assert.Equal(t, want, messages[0].Content)
	}
}
