package pkg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ledongthuc/pdf"
)

const maxPDFBytes = 32 << 20

// FetchPDFText downloads a PDF by URL and extracts its plain text and page
// count. Extraction is delegated to the pdf library; scanned documents with
// no text layer come back empty.
func FetchPDFText(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %v", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to download pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("pdf download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return "", 0, fmt.Errorf("failed to read pdf body: %v", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse pdf: %v", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract pdf text: %v", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", 0, fmt.Errorf("failed to read pdf text: %v", err)
	}

	return buf.String(), reader.NumPage(), nil
}
