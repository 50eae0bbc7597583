package logic

import (
	"context"
	"fmt"

	"deepchat-backend/pkg"

	"github.com/sirupsen/logrus"
)

// SearchProvider is the slice of the web search client the augmenter needs.
type SearchProvider interface {
	Search(ctx context.Context, query string, maxResults int) ([]pkg.SearchResult, error)
}

// SearchLogic conditionally augments a turn with web search context.
type SearchLogic struct {
	client     SearchProvider
	maxResults int
	logger     *logrus.Logger
}

func NewSearchLogic(client SearchProvider, maxResults int, logger *logrus.Logger) *SearchLogic {
	return &SearchLogic{
		client:     client,
		maxResults: maxResults,
		logger:     logger,
	}
}

// ProcessWebSearch returns a formatted context block for the last message's
// text. Disabled or empty input short-circuits with no upstream call. A
// provider failure returns a user-visible error string instead of an error,
// so the turn proceeds without search context.
func (l *SearchLogic) ProcessWebSearch(ctx context.Context, enabled bool, messages []IncomingMessage) string {
	if !enabled || l.client == nil {
		return ""
	}

	query := LastMessageText(messages)
	if query == "" {
		return ""
	}

	results, err := l.client.Search(ctx, query, l.maxResults)
	if err != nil {
		l.logger.WithError(err).Warn("Web search failed")
		return fmt.Sprintf("Web search failed: %v. Answer from your own knowledge and mention that live results were unavailable.", err)
	}

	return FormatSearchResults(results)
}
