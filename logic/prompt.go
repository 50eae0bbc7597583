package logic

import (
	"encoding/json"
	"fmt"
	"strings"

	"deepchat-backend/pkg"
)

const baseSystemPrompt = `You are a helpful AI assistant. Answer the user's questions clearly and concisely. Use Markdown formatting where it improves readability. If you do not know something, say so instead of guessing.`

// maxPromptMemories caps how many memory snippets are inlined into the
// system prompt.
const maxPromptMemories = 3

// GenerateSystemPrompt composes the system instruction for one turn. Pure
// string assembly: base instruction, then the web search block when present,
// then up to three serialized memories.
func GenerateSystemPrompt(webSearchResults string, memories []pkg.Memory) string {
	var b strings.Builder
	b.WriteString(baseSystemPrompt)

	if webSearchResults != "" {
		b.WriteString("\n\n")
		b.WriteString(webSearchResults)
	}

	if len(memories) > 0 {
		slice := memories
		if len(slice) > maxPromptMemories {
			slice = slice[:maxPromptMemories]
		}
		serialized, err := json.Marshal(slice)
		if err == nil {
			b.WriteString("\n\nWhat you remember about this user:\n")
			b.Write(serialized)
		}
	}

	return b.String()
}

// FormatSearchResults renders search hits as a labeled context block.
func FormatSearchResults(results []pkg.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Web search results:\n")
	for i, r := range results {
		b.WriteString(fmt.Sprintf("\n%d. %s\n%s\n%s\n", i+1, r.Title, r.URL, r.Content))
	}
	return b.String()
}
