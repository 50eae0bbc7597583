package logic

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"deepchat-backend/dao"
	"deepchat-backend/pkg"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrStreamTimeout marks a turn aborted by the stream deadline. The route
// boundary maps it to HTTP 408.
var ErrStreamTimeout = errors.New("stream timed out")

// StreamPart is one typed element of the wire stream sent to the client.
type StreamPart struct {
	Type    string     `json:"type"` // "start", "text-delta" or "finish"
	ID      string     `json:"id,omitempty"`
	Text    string     `json:"text,omitempty"`
	Usage   *pkg.Usage `json:"usage,omitempty"`
	Started int64      `json:"startedAt,omitempty"`
}

// StreamClient is the slice of the provider client the orchestrator drives.
type StreamClient interface {
	CreateChatCompletionStream(ctx context.Context, req pkg.ChatCompletionRequest, handler func(*pkg.StreamChatCompletionResponse) error) error
}

// MemoryWriter persists a finished turn into the memory service.
type MemoryWriter interface {
	AddMemory(ctx context.Context, userID, userText, assistantText string) error
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// collapseBlankLines is the final formatting pass over the accumulated text.
func collapseBlankLines(s string) string {
	return blankLines.ReplaceAllString(s, "\n\n")
}

// Orchestrator drives one model call under a deadline, converts the provider
// stream into wire parts, and incrementally persists the assistant output.
type Orchestrator struct {
	chatDAO         *dao.ChatDAO
	checkpoints     *CheckpointWriter
	memoryWriter    MemoryWriter
	timeout         time.Duration
	checkpointChars int
	logger          *logrus.Logger
}

func NewOrchestrator(
	chatDAO *dao.ChatDAO,
	checkpoints *CheckpointWriter,
	memoryWriter MemoryWriter,
	timeout time.Duration,
	checkpointChars int,
	logger *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		chatDAO:         chatDAO,
		checkpoints:     checkpoints,
		memoryWriter:    memoryWriter,
		timeout:         timeout,
		checkpointChars: checkpointChars,
		logger:          logger,
	}
}

// Run executes one streamed turn: it arms the deadline, issues the model
// call, forwards deltas to the client, checkpoints partial content through
// the per-chat writer, and persists the final text when the provider
// finishes. Checkpoint and final-save failures never interrupt the stream.
func (o *Orchestrator) Run(
	ctx context.Context,
	client StreamClient,
	model string,
	systemPrompt string,
	history []pkg.RequestMessage,
	params TurnParams,
	userText string,
	emit func(StreamPart) error,
) error {
	streamCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	// idle -> started: arm persistence and announce the stream.
	chatID, persist := o.prepareChat(params.ChatID)
	var assistantID uint64
	wireID := uuid.New().String()
	if persist {
		msg, err := o.chatDAO.AppendMessage(chatID, "assistant", "", nil)
		if err != nil {
			o.logger.WithError(err).Warn("Failed to create assistant message, streaming without persistence")
			persist = false
		} else {
			assistantID = msg.ID
			wireID = fmt.Sprintf("%d", msg.ID)
		}
	}

	messages := make([]pkg.RequestMessage, 0, len(history)+1)
	messages = append(messages, pkg.RequestMessage{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)

	var acc strings.Builder
	lastCheckpoint := 0
	started := false
	var usage *pkg.Usage

	// started -> streaming on the provider's first part; nothing is written
	// to the client before that, so a pre-output timeout still gets a clean
	// 408 status.
	err := client.CreateChatCompletionStream(streamCtx, pkg.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}, func(resp *pkg.StreamChatCompletionResponse) error {
		if !started {
			started = true
			if err := emit(StreamPart{Type: "start", ID: wireID, Started: time.Now().UnixMilli()}); err != nil {
				return err
			}
		}
		for _, choice := range resp.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			acc.WriteString(choice.Delta.Content)
			if err := emit(StreamPart{Type: "text-delta", ID: wireID, Text: choice.Delta.Content}); err != nil {
				return err
			}
			if persist && acc.Len()-lastCheckpoint >= o.checkpointChars {
				o.checkpoints.Enqueue(params.ChatID, assistantID, acc.String())
				lastCheckpoint = acc.Len()
			}
		}
		if resp.Usage != nil {
			usage = resp.Usage
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			streamsTotal.WithLabelValues("timeout").Inc()
			return ErrStreamTimeout
		}
		streamsTotal.WithLabelValues("error").Inc()
		return err
	}

	if !started {
		if err := emit(StreamPart{Type: "start", ID: wireID, Started: time.Now().UnixMilli()}); err != nil {
			return err
		}
	}

	// streaming -> finished: format, persist the complete text, and hand the
	// turn to the memory service. The final save goes through the checkpoint
	// queue so it cannot be clobbered by a stale partial write.
	final := collapseBlankLines(acc.String())
	if o.memoryWriter != nil && params.UserID != "" && userText != "" {
		go o.writeMemory(params.UserID, userText, final)
	}
	if persist {
		o.checkpoints.Sync(params.ChatID, assistantID, final)
	}

	streamsTotal.WithLabelValues("ok").Inc()
	return emit(StreamPart{Type: "finish", ID: wireID, Usage: usage})
}

// prepareChat decides whether this turn persists. A missing or malformed
// chat id downgrades to a transient stream instead of failing.
func (o *Orchestrator) prepareChat(chatID string) (uuid.UUID, bool) {
	if chatID == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(chatID)
	if err != nil {
		o.logger.WithField("chat_id", chatID).Warn("Invalid chat id, streaming without persistence")
		return uuid.Nil, false
	}
	return id, true
}

func (o *Orchestrator) writeMemory(userID, userText, assistantText string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := o.memoryWriter.AddMemory(ctx, userID, userText, assistantText); err != nil {
		o.logger.WithError(err).WithField("user_id", userID).Warn("Failed to store turn memory")
	}
}
