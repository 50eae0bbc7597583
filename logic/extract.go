package logic

import "strings"

// DefaultModelKey is the sentinel that selects the default provider.
const DefaultModelKey = "google"

// MessagePart is one typed segment of an incoming message.
type MessagePart struct {
	Type      string `json:"type"` // "text" or "file"
	Text      string `json:"text,omitempty"`
	Filename  string `json:"filename,omitempty"`
	URL       string `json:"url,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
}

// MessageMetadata is optional client-side state piggybacked on a message.
type MessageMetadata struct {
	ChatID    string `json:"chatId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Model     string `json:"model,omitempty"`
	WebSearch *bool  `json:"webSearch,omitempty"`
}

// IncomingMessage is one message of the inbound turn request.
type IncomingMessage struct {
	Role     string           `json:"role"`
	Parts    []MessagePart    `json:"parts"`
	Metadata *MessageMetadata `json:"metadata,omitempty"`
}

// TurnRequest is the body of POST /chat.
type TurnRequest struct {
	Messages  []IncomingMessage `json:"messages"`
	ChatID    string            `json:"chatId,omitempty"`
	UserID    string            `json:"userId,omitempty"`
	Model     string            `json:"model,omitempty"`
	WebSearch *bool             `json:"webSearch,omitempty"`
}

// TurnParams is the resolved parameter set a turn runs with.
type TurnParams struct {
	ChatID    string
	UserID    string
	Model     string
	WebSearch bool
}

// ExtractTurnParams resolves each parameter in order: explicit body field,
// then the last message's metadata, then the default. No validation beyond
// existence; downstream code must tolerate missing chat/user ids.
func ExtractTurnParams(req *TurnRequest) TurnParams {
	var meta *MessageMetadata
	if len(req.Messages) > 0 {
		meta = req.Messages[len(req.Messages)-1].Metadata
	}

	params := TurnParams{
		ChatID: req.ChatID,
		UserID: req.UserID,
		Model:  req.Model,
	}
	if req.WebSearch != nil {
		params.WebSearch = *req.WebSearch
	}

	if meta != nil {
		if params.ChatID == "" {
			params.ChatID = meta.ChatID
		}
		if params.UserID == "" {
			params.UserID = meta.UserID
		}
		if params.Model == "" {
			params.Model = meta.Model
		}
		if req.WebSearch == nil && meta.WebSearch != nil {
			params.WebSearch = *meta.WebSearch
		}
	}

	if params.Model == "" {
		params.Model = DefaultModelKey
	}
	return params
}

// LastMessageText joins the text parts of the most recent message.
func LastMessageText(messages []IncomingMessage) string {
	if len(messages) == 0 {
		return ""
	}
	last := messages[len(messages)-1]
	var parts []string
	for _, p := range last.Parts {
		if p.Type == "text" && p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}
