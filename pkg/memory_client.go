package pkg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Memory is one contextual snippet returned by the memory service.
type Memory struct {
	ID        string `json:"id"`
	Memory    string `json:"memory"`
	CreatedAt string `json:"created_at,omitempty"`
}

// MemoryClient talks to the external semantic-memory service. The service is
// a black box: we only use its per-user search and add endpoints.
type MemoryClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewMemoryClient(baseURL, apiKey string) *MemoryClient {
	return &MemoryClient{
		client:  &http.Client{},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *MemoryClient) do(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s/%s", c.baseURL, endpoint), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Token %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("memory service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("memory service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode memory response: %v", err)
		}
	}
	return nil
}

// SearchMemories returns up to limit memories for a user.
func (c *MemoryClient) SearchMemories(ctx context.Context, userID string, limit int) ([]Memory, error) {
	req := map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
	}
	var out struct {
		Results []Memory `json:"results"`
	}
	if err := c.do(ctx, "POST", "memories/search", req, &out); err != nil {
		return nil, err
	}
	if len(out.Results) > limit {
		out.Results = out.Results[:limit]
	}
	return out.Results, nil
}

// AddMemory stores one completed turn for later retrieval.
func (c *MemoryClient) AddMemory(ctx context.Context, userID, userText, assistantText string) error {
	req := map[string]interface{}{
		"user_id": userID,
		"messages": []map[string]string{
			{"role": "user", "content": userText},
			{"role": "assistant", "content": assistantText},
		},
	}
	return c.do(ctx, "POST", "memories", req, nil)
}
