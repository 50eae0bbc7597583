package logic

import (
	"sync"

	"deepchat-backend/dao"

	"github.com/sirupsen/logrus"
)

type snapshot struct {
	messageID uint64
	content   string
}

type chatQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	latest  *snapshot
	running bool
}

// CheckpointWriter serializes partial-content writes per chat. Each chat has
// at most one writer goroutine draining a latest-snapshot slot, so persisted
// assistant content length is monotonic even when checkpoints arrive faster
// than the database can absorb them. Write failures are logged and swallowed;
// the stream never waits on storage.
type CheckpointWriter struct {
	mu     sync.Mutex
	queues map[string]*chatQueue
	dao    *dao.ChatDAO
	logger *logrus.Logger
}

func NewCheckpointWriter(chatDAO *dao.ChatDAO, logger *logrus.Logger) *CheckpointWriter {
	return &CheckpointWriter{
		queues: make(map[string]*chatQueue),
		dao:    chatDAO,
		logger: logger,
	}
}

func (w *CheckpointWriter) queue(chatID string) *chatQueue {
	w.mu.Lock()
	defer w.mu.Unlock()
	q, ok := w.queues[chatID]
	if !ok {
		q = &chatQueue{}
		q.cond = sync.NewCond(&q.mu)
		w.queues[chatID] = q
	}
	return q
}

// Enqueue records the latest known content for the chat's streaming message
// and returns immediately. Older pending snapshots are superseded.
func (w *CheckpointWriter) Enqueue(chatID string, messageID uint64, content string) {
	q := w.queue(chatID)
	q.mu.Lock()
	q.latest = &snapshot{messageID: messageID, content: content}
	if !q.running {
		q.running = true
		go w.drain(q)
	}
	q.mu.Unlock()
}

// Sync enqueues the final content and blocks until the chat's queue has
// drained, guaranteeing the write is on disk (or failed) before returning.
func (w *CheckpointWriter) Sync(chatID string, messageID uint64, content string) {
	w.Enqueue(chatID, messageID, content)
	q := w.queue(chatID)
	q.mu.Lock()
	for q.running || q.latest != nil {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

func (w *CheckpointWriter) drain(q *chatQueue) {
	for {
		q.mu.Lock()
		s := q.latest
		q.latest = nil
		if s == nil {
			q.running = false
			q.cond.Broadcast()
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		if err := w.dao.UpdateMessageContent(s.messageID, s.content); err != nil {
			checkpointWrites.WithLabelValues("error").Inc()
			w.logger.WithError(err).WithField("message_id", s.messageID).
				Error("Failed to checkpoint assistant content")
		} else {
			checkpointWrites.WithLabelValues("ok").Inc()
		}
	}
}
