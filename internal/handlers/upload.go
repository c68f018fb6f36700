package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// UploadHandler is the attachment side-channel: a client uploads a file
// here first and references the returned URL in a later chat frame.
type UploadHandler struct {
	mediaRoot      string
	mediaURLPrefix string
}

// NewUploadHandler constructs an UploadHandler rooted at mediaRoot.
func NewUploadHandler(mediaRoot, mediaURLPrefix string) *UploadHandler {
	return &UploadHandler{mediaRoot: mediaRoot, mediaURLPrefix: mediaURLPrefix}
}

// Upload stores a multipart file under chat_files/ and returns the URL
// to reference it by.
func (h *UploadHandler) Upload(c *gin.Context) {
	userID := c.GetInt("userID")

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "no file provided"})
		return
	}

	name := fmt.Sprintf("chat_files/%d_%s", userID, filepath.Base(file.Filename))
	dst := filepath.Join(h.mediaRoot, name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "could not store file"})
		return
	}
	if err := c.SaveUploadedFile(file, dst); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "could not store file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"url":    h.mediaURLPrefix + name,
		"name":   file.Filename,
	})
}
