package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"deepchat-backend/logic"
	"deepchat-backend/pkg"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleter struct {
	result   string
	err      error
	publicID string
}

func (f *fakeDeleter) Destroy(_ context.Context, publicID string) (*pkg.DestroyResult, error) {
	f.publicID = publicID
	if f.err != nil {
		return nil, f.err
	}
	return &pkg.DestroyResult{Result: f.result}, nil
}

func newFilesRouter(t *testing.T, deleter AssetDeleter, fetch PDFFetcher, modelHandler http.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	if modelHandler == nil {
		modelHandler = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"A short summary."}}]}`))
		}
	}
	server := httptest.NewServer(modelHandler)
	t.Cleanup(server.Close)

	resolver := logic.NewModelResolver(logic.ResolverConfig{
		DefaultKey:     logic.DefaultModelKey,
		DefaultBaseURL: server.URL,
		DefaultAPIKey:  "test-key",
		DefaultModel:   "test-model",
	}, logger)

	controller := NewFilesController(deleter, fetch, resolver, logger)

	r := gin.New()
	r.POST("/files/delete", controller.DeleteFile)
	r.POST("/pdf/analyze", controller.AnalyzePDF)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDeleteFile(t *testing.T) {
	deleter := &fakeDeleter{result: "ok"}
	r := newFilesRouter(t, deleter, nil, nil)

	w := postJSON(t, r, "/files/delete", `{"publicId":"uploads/doc-1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Equal(t, "uploads/doc-1", deleter.publicID)
}

func TestDeleteFileNotFound(t *testing.T) {
	r := newFilesRouter(t, &fakeDeleter{result: "not found"}, nil, nil)

	w := postJSON(t, r, "/files/delete", `{"publicId":"missing"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	assert.Contains(t, w.Body.String(), "not found")
}

func TestDeleteFileRequiresPublicID(t *testing.T) {
	r := newFilesRouter(t, &fakeDeleter{result: "ok"}, nil, nil)

	w := postJSON(t, r, "/files/delete", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzePDF(t *testing.T) {
	fetch := func(_ context.Context, url string) (string, int, error) {
		assert.Equal(t, "https://cdn.example.com/report.pdf", url)
		return "Quarterly revenue grew 12%.", 3, nil
	}
	r := newFilesRouter(t, &fakeDeleter{}, fetch, nil)

	w := postJSON(t, r, "/pdf/analyze", `{"url":"https://cdn.example.com/report.pdf","filename":"report.pdf"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Summary   string `json:"summary"`
		Content   string `json:"content"`
		PageCount int    `json:"pageCount"`
		Filename  string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "A short summary.", resp.Summary)
	assert.Equal(t, "Quarterly revenue grew 12%.", resp.Content)
	assert.Equal(t, 3, resp.PageCount)
	assert.Equal(t, "report.pdf", resp.Filename)
}

func TestAnalyzePDFSummaryFailureIsNotFatal(t *testing.T) {
	fetch := func(_ context.Context, _ string) (string, int, error) {
		return "content", 1, nil
	}
	modelDown := func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no capacity", http.StatusServiceUnavailable)
	}
	r := newFilesRouter(t, &fakeDeleter{}, fetch, modelDown)

	w := postJSON(t, r, "/pdf/analyze", `{"url":"https://x/y.pdf","filename":"y.pdf"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Summary unavailable.")
	assert.Contains(t, w.Body.String(), `"content":"content"`)
}

func TestAnalyzePDFFetchFailure(t *testing.T) {
	fetch := func(_ context.Context, _ string) (string, int, error) {
		return "", 0, fmt.Errorf("download failed")
	}
	r := newFilesRouter(t, &fakeDeleter{}, fetch, nil)

	w := postJSON(t, r, "/pdf/analyze", `{"url":"https://x/y.pdf","filename":"y.pdf"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "download failed")
}
