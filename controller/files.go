package controller

import (
	"context"
	"fmt"
	"net/http"

	"deepchat-backend/logic"
	"deepchat-backend/pkg"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxAnalyzeChars caps how much extracted PDF text is sent to the model.
const maxAnalyzeChars = 8000

// AssetDeleter is the slice of the Cloudinary client the controller needs.
type AssetDeleter interface {
	Destroy(ctx context.Context, publicID string) (*pkg.DestroyResult, error)
}

// PDFFetcher downloads and extracts a PDF's text.
type PDFFetcher func(ctx context.Context, url string) (string, int, error)

// FilesController handles file deletion and PDF analysis.
type FilesController struct {
	cloudinary AssetDeleter
	fetchPDF   PDFFetcher
	resolver   *logic.ModelResolver
	logger     *logrus.Logger
}

func NewFilesController(cloudinary AssetDeleter, fetchPDF PDFFetcher, resolver *logic.ModelResolver, logger *logrus.Logger) *FilesController {
	return &FilesController{
		cloudinary: cloudinary,
		fetchPDF:   fetchPDF,
		resolver:   resolver,
		logger:     logger,
	}
}

// DeleteFile handles POST /files/delete
func (c *FilesController) DeleteFile(ctx *gin.Context) {
	type Request struct {
		PublicID string `json:"publicId" binding:"required"`
	}
	var req Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := c.cloudinary.Destroy(ctx.Request.Context(), req.PublicID)
	if err != nil {
		c.logger.WithError(err).Error("Cloudinary destroy failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if result.Result != "ok" {
		ctx.JSON(http.StatusOK, gin.H{"success": false, "message": result.Result})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "file deleted"})
}

// AnalyzePDF handles POST /pdf/analyze
func (c *FilesController) AnalyzePDF(ctx *gin.Context) {
	type Request struct {
		URL      string `json:"url" binding:"required"`
		Filename string `json:"filename" binding:"required"`
	}
	var req Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content, pageCount, err := c.fetchPDF(ctx.Request.Context(), req.URL)
	if err != nil {
		c.logger.WithError(err).Error("PDF extraction failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	summary, err := c.summarize(ctx.Request.Context(), req.Filename, content)
	if err != nil {
		c.logger.WithError(err).Warn("PDF summarization failed")
		summary = "Summary unavailable."
	}

	ctx.JSON(http.StatusOK, gin.H{
		"summary":   summary,
		"content":   content,
		"pageCount": pageCount,
		"filename":  req.Filename,
	})
}

func (c *FilesController) summarize(ctx context.Context, filename, content string) (string, error) {
	excerpt := content
	if len(excerpt) > maxAnalyzeChars {
		excerpt = excerpt[:maxAnalyzeChars]
	}

	resolved := c.resolver.Resolve(logic.DefaultModelKey)
	resp, err := resolved.Client.CreateChatCompletion(ctx, pkg.ChatCompletionRequest{
		Model: resolved.Model,
		Messages: []pkg.RequestMessage{
			{Role: "system", Content: "Summarize the following document in a short paragraph."},
			{Role: "user", Content: fmt.Sprintf("Document %q:\n\n%s", filename, excerpt)},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
