package logic

import (
	"context"
	"errors"
	"testing"

	"deepchat-backend/pkg"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type countingSearchProvider struct {
	calls   int
	results []pkg.SearchResult
	err     error
	gotMax  int
}

func (p *countingSearchProvider) Search(_ context.Context, _ string, maxResults int) ([]pkg.SearchResult, error) {
	p.calls++
	p.gotMax = maxResults
	return p.results, p.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func userMessage(text string) []IncomingMessage {
	return []IncomingMessage{{
		Role:  "user",
		Parts: []MessagePart{{Type: "text", Text: text}},
	}}
}

func TestProcessWebSearchDisabledMakesNoCall(t *testing.T) {
	provider := &countingSearchProvider{results: []pkg.SearchResult{{Title: "x"}}}
	search := NewSearchLogic(provider, 5, quietLogger())

	out := search.ProcessWebSearch(context.Background(), false, userMessage("query"))

	assert.Empty(t, out)
	assert.Zero(t, provider.calls)
}

func TestProcessWebSearchEmptyQuerySkips(t *testing.T) {
	provider := &countingSearchProvider{}
	search := NewSearchLogic(provider, 5, quietLogger())

	out := search.ProcessWebSearch(context.Background(), true, nil)

	assert.Empty(t, out)
	assert.Zero(t, provider.calls)
}

func TestProcessWebSearchFormatsResults(t *testing.T) {
	provider := &countingSearchProvider{results: []pkg.SearchResult{
		{Title: "Go", URL: "https://go.dev", Content: "The Go site"},
	}}
	search := NewSearchLogic(provider, 5, quietLogger())

	out := search.ProcessWebSearch(context.Background(), true, userMessage("golang"))

	assert.Contains(t, out, "Web search results:")
	assert.Contains(t, out, "https://go.dev")
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, 5, provider.gotMax)
}

func TestProcessWebSearchFailureReturnsErrorString(t *testing.T) {
	provider := &countingSearchProvider{err: errors.New("rate limited")}
	search := NewSearchLogic(provider, 5, quietLogger())

	out := search.ProcessWebSearch(context.Background(), true, userMessage("golang"))

	assert.Contains(t, out, "Web search failed")
	assert.Contains(t, out, "rate limited")
}

func TestProcessWebSearchNilClient(t *testing.T) {
	search := NewSearchLogic(nil, 5, quietLogger())

	assert.Empty(t, search.ProcessWebSearch(context.Background(), true, userMessage("q")))
}
