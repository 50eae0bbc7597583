package logic

import (
	"context"
	"strings"
	"testing"
	"time"

	"deepchat-backend/dao"
	"deepchat-backend/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, chatDAO *dao.ChatDAO, memoryWriter MemoryWriter, checkpointChars int) *Orchestrator {
	t.Helper()
	checkpoints := NewCheckpointWriter(chatDAO, quietLogger())
	return NewOrchestrator(chatDAO, checkpoints, memoryWriter, 5*time.Second, checkpointChars, quietLogger())
}

func collectParts(parts *[]StreamPart) func(StreamPart) error {
	return func(p StreamPart) error {
		*parts = append(*parts, p)
		return nil
	}
}

func TestOrchestratorPersistsConcatenatedDeltas(t *testing.T) {
	db := newTestDB(t)
	chatDAO := dao.NewChatDAO(db)
	chat, err := chatDAO.CreateChat("u1")
	require.NoError(t, err)

	client := &scriptedStreamClient{
		deltas: []string{"Hello", ", ", "world", "!"},
		usage:  &pkg.Usage{PromptTokens: 10, CompletionTokens: 4, TotalTokens: 14},
	}
	o := newTestOrchestrator(t, chatDAO, nil, 500)

	var parts []StreamPart
	err = o.Run(context.Background(), client, "test-model", "prompt", nil,
		TurnParams{ChatID: chat.ID.String(), UserID: "u1"}, "hi", collectParts(&parts))
	require.NoError(t, err)

	// Wire stream: start, one delta per chunk, finish with usage.
	require.NotEmpty(t, parts)
	assert.Equal(t, "start", parts[0].Type)
	assert.Equal(t, "finish", parts[len(parts)-1].Type)
	require.NotNil(t, parts[len(parts)-1].Usage)
	assert.EqualValues(t, 14, parts[len(parts)-1].Usage.TotalTokens)

	var streamed strings.Builder
	for _, p := range parts {
		if p.Type == "text-delta" {
			streamed.WriteString(p.Text)
		}
	}
	assert.Equal(t, "Hello, world!", streamed.String())

	messages := messageContents(t, chatDAO, chat.ID)
	require.Len(t, messages, 1)
	assert.Equal(t, "assistant", messages[0].Role)
	assert.Equal(t, "Hello, world!", messages[0].Content)
}

func TestOrchestratorReplayIsIdempotent(t *testing.T) {
	deltas := []string{"alpha ", "beta ", "gamma"}

	for run := 0; run < 2; run++ {
		db := newTestDB(t)
		chatDAO := dao.NewChatDAO(db)
		chat, err := chatDAO.CreateChat("u1")
		require.NoError(t, err)

		client := &scriptedStreamClient{deltas: deltas}
		o := newTestOrchestrator(t, chatDAO, nil, 500)

		var parts []StreamPart
		require.NoError(t, o.Run(context.Background(), client, "m", "p", nil,
			TurnParams{ChatID: chat.ID.String()}, "hi", collectParts(&parts)))

		messages := messageContents(t, chatDAO, chat.ID)
		require.Len(t, messages, 1)
		assert.Equal(t, "alpha beta gamma", messages[0].Content)
	}
}

func TestOrchestratorCheckpointsPartialContent(t *testing.T) {
	db := newTestDB(t)
	chatDAO := dao.NewChatDAO(db)
	chat, err := chatDAO.CreateChat("u1")
	require.NoError(t, err)

	// Deltas of 10 chars against a 20-char threshold force several
	// intermediate checkpoints; the final save must still win.
	var deltas []string
	for i := 0; i < 12; i++ {
		deltas = append(deltas, "aaaaaaaaaa")
	}
	client := &scriptedStreamClient{deltas: deltas}
	o := newTestOrchestrator(t, chatDAO, nil, 20)

	var parts []StreamPart
	require.NoError(t, o.Run(context.Background(), client, "m", "p", nil,
		TurnParams{ChatID: chat.ID.String()}, "hi", collectParts(&parts)))

	messages := messageContents(t, chatDAO, chat.ID)
	require.Len(t, messages, 1)
	assert.Len(t, messages[0].Content, 120)
}

func TestOrchestratorCollapsesExcessBlankLines(t *testing.T) {
	db := newTestDB(t)
	chatDAO := dao.NewChatDAO(db)
	chat, err := chatDAO.CreateChat("u1")
	require.NoError(t, err)

	client := &scriptedStreamClient{deltas: []string{"one\n\n\n\ntwo\n\n\nthree"}}
	o := newTestOrchestrator(t, chatDAO, nil, 500)

	var parts []StreamPart
	require.NoError(t, o.Run(context.Background(), client, "m", "p", nil,
		TurnParams{ChatID: chat.ID.String()}, "hi", collectParts(&parts)))

	messages := messageContents(t, chatDAO, chat.ID)
	require.Len(t, messages, 1)
	assert.Equal(t, "one\n\ntwo\n\nthree", messages[0].Content)
}

func TestOrchestratorTimeout(t *testing.T) {
	db := newTestDB(t)
	chatDAO := dao.NewChatDAO(db)
	chat, err := chatDAO.CreateChat("u1")
	require.NoError(t, err)

	client := &scriptedStreamClient{block: true}
	checkpoints := NewCheckpointWriter(chatDAO, quietLogger())
	o := NewOrchestrator(chatDAO, checkpoints, nil, 30*time.Millisecond, 500, quietLogger())

	var parts []StreamPart
	err = o.Run(context.Background(), client, "m", "p", nil,
		TurnParams{ChatID: chat.ID.String()}, "hi", collectParts(&parts))

	assert.ErrorIs(t, err, ErrStreamTimeout)
	// Nothing was streamed before the deadline fired.
	assert.Empty(t, parts)
}

func TestOrchestratorStreamsWithoutChatID(t *testing.T) {
	db := newTestDB(t)
	chatDAO := dao.NewChatDAO(db)

	client := &scriptedStreamClient{deltas: []string{"hi"}}
	o := newTestOrchestrator(t, chatDAO, nil, 500)

	var parts []StreamPart
	err := o.Run(context.Background(), client, "m", "p", nil,
		TurnParams{}, "hi", collectParts(&parts))

	require.NoError(t, err)
	assert.Equal(t, "start", parts[0].Type)
	assert.Equal(t, "finish", parts[len(parts)-1].Type)
}

type recordingMemoryWriter struct {
	ch chan [3]string
}

func (w *recordingMemoryWriter) AddMemory(_ context.Context, userID, userText, assistantText string) error {
	w.ch <- [3]string{userID, userText, assistantText}
	return nil
}

func TestOrchestratorWritesMemoryOnFinish(t *testing.T) {
	db := newTestDB(t)
	chatDAO := dao.NewChatDAO(db)
	chat, err := chatDAO.CreateChat("u1")
	require.NoError(t, err)

	writer := &recordingMemoryWriter{ch: make(chan [3]string, 1)}
	client := &scriptedStreamClient{deltas: []string{"answer"}}
	o := newTestOrchestrator(t, chatDAO, writer, 500)

	var parts []StreamPart
	require.NoError(t, o.Run(context.Background(), client, "m", "p", nil,
		TurnParams{ChatID: chat.ID.String(), UserID: "u1"}, "question", collectParts(&parts)))

	select {
	case got := <-writer.ch:
		assert.Equal(t, "u1", got[0])
		assert.Equal(t, "question", got[1])
		assert.Equal(t, "answer", got[2])
	case <-time.After(time.Second):
		t.Fatal("memory write never happened")
	}
}
