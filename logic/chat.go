package logic

import (
	"context"

	"deepchat-backend/dao"
	"deepchat-backend/models"
	"deepchat-backend/pkg"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxTitleChars is where chat titles derived from the first user message get
// truncated.
const maxTitleChars = 100

// ChatLogic assembles one chat turn: persistence gateway, memory and search
// augmentation, prompt composition, model resolution and the stream itself.
type ChatLogic struct {
	chatDAO      *dao.ChatDAO
	memory       *MemoryCache
	search       *SearchLogic
	resolver     *ModelResolver
	orchestrator *Orchestrator
	logger       *logrus.Logger
}

func NewChatLogic(
	chatDAO *dao.ChatDAO,
	memory *MemoryCache,
	search *SearchLogic,
	resolver *ModelResolver,
	orchestrator *Orchestrator,
	logger *logrus.Logger,
) *ChatLogic {
	return &ChatLogic{
		chatDAO:      chatDAO,
		memory:       memory,
		search:       search,
		resolver:     resolver,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// CreateChat creates a new empty chat
func (l *ChatLogic) CreateChat(userID string) (*models.Chat, error) {
	return l.chatDAO.CreateChat(userID)
}

// GetChat retrieves an active chat or nil when absent/soft-deleted.
func (l *ChatLogic) GetChat(chatID uuid.UUID) (*models.Chat, error) {
	chat, err := l.chatDAO.GetActiveChat(chatID)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// ListChats retrieves the user's active chats
func (l *ChatLogic) ListChats(userID string) ([]models.Chat, error) {
	return l.chatDAO.ListActiveChats(userID)
}

// DeleteChat soft-deletes a chat
func (l *ChatLogic) DeleteChat(chatID uuid.UUID) error {
	return l.chatDAO.SoftDeleteChat(chatID)
}

// SaveUserMessage appends the most recent user message to the chat, creating
// the chat when absent. Best-effort: any failure is logged and the turn
// proceeds; a missing chat id skips the save silently.
func (l *ChatLogic) SaveUserMessage(params TurnParams, messages []IncomingMessage) {
	if params.ChatID == "" || len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	if last.Role != "user" {
		return
	}

	chatID, err := uuid.Parse(params.ChatID)
	if err != nil {
		l.logger.WithField("chat_id", params.ChatID).Warn("Invalid chat id, skipping user message save")
		return
	}

	text := LastMessageText(messages)
	var attachments []models.Attachment
	for _, p := range last.Parts {
		if p.Type == "file" && p.URL != "" {
			attachments = append(attachments, models.Attachment{
				Filename:  p.Filename,
				URL:       p.URL,
				MediaType: p.MediaType,
			})
		}
	}

	chat, err := l.chatDAO.EnsureChat(chatID, params.UserID)
	if err != nil {
		l.logger.WithError(err).Error("Failed to ensure chat for user message")
		return
	}
	if chat.Title == "" && text != "" {
		if err := l.chatDAO.SetTitleIfEmpty(chatID, TruncateTitle(text)); err != nil {
			l.logger.WithError(err).Warn("Failed to set chat title")
		}
	}
	if _, err := l.chatDAO.AppendMessage(chatID, "user", text, attachments); err != nil {
		l.logger.WithError(err).Error("Failed to save user message")
	}
}

// TruncateTitle derives a chat title from message text.
func TruncateTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= maxTitleChars {
		return text
	}
	return string(runes[:maxTitleChars]) + "..."
}

// RunTurn executes the full request pipeline for one chat turn and streams
// the result through emit.
func (l *ChatLogic) RunTurn(ctx context.Context, req *TurnRequest, emit func(StreamPart) error) error {
	params := ExtractTurnParams(req)

	// Persist the inbound user message before the model call is issued.
	l.SaveUserMessage(params, req.Messages)

	memories, err := l.memory.GetMemories(ctx, params.UserID)
	if err != nil {
		// The cache layer propagates fetch failures; the turn proceeds
		// without memories rather than failing the response.
		l.logger.WithError(err).WithField("user_id", params.UserID).Warn("Memory fetch failed")
		memories = nil
	}

	searchBlock := l.search.ProcessWebSearch(ctx, params.WebSearch, req.Messages)
	systemPrompt := GenerateSystemPrompt(searchBlock, memories)
	resolved := l.resolver.Resolve(params.Model)

	history := make([]pkg.RequestMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		text := joinTextParts(m.Parts)
		if text == "" {
			continue
		}
		history = append(history, pkg.RequestMessage{Role: m.Role, Content: text})
	}

	return l.orchestrator.Run(ctx, resolved.Client, resolved.Model, systemPrompt, history, params, LastMessageText(req.Messages), emit)
}

func joinTextParts(parts []MessagePart) string {
	var out string
	for _, p := range parts {
		if p.Type != "text" || p.Text == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p.Text
	}
	return out
}
