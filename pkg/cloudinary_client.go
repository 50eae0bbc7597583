package pkg

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DestroyResult is Cloudinary's response to an asset destroy call.
type DestroyResult struct {
	Result string `json:"result"` // "ok" or "not found"
}

// CloudinaryClient handles asset deletion against the Cloudinary admin API.
type CloudinaryClient struct {
	client    *http.Client
	baseURL   string
	cloudName string
	apiKey    string
	apiSecret string
	now       func() time.Time
}

func NewCloudinaryClient(cloudName, apiKey, apiSecret string) *CloudinaryClient {
	return &CloudinaryClient{
		client:    &http.Client{},
		baseURL:   "https://api.cloudinary.com",
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		now:       time.Now,
	}
}

// Signature computes the sha1 request signature Cloudinary expects:
// sha1("public_id=<id>&timestamp=<ts>" + secret).
func (c *CloudinaryClient) Signature(publicID string, timestamp int64) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%d%s", publicID, timestamp, c.apiSecret)
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Destroy deletes one uploaded asset by its public id.
func (c *CloudinaryClient) Destroy(ctx context.Context, publicID string) (*DestroyResult, error) {
	timestamp := c.now().Unix()

	var body strings.Builder
	writer := multipart.NewWriter(&body)
	fields := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(timestamp, 10),
		"api_key":   c.apiKey,
		"signature": c.Signature(publicID, timestamp),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to build form: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %v", err)
	}

	url := fmt.Sprintf("%s/v1_1/%s/image/destroy", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, "POST", url, strings.NewReader(body.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cloudinary returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result DestroyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode cloudinary response: %v", err)
	}
	return &result, nil
}
