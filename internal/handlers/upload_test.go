package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func setupUploadRouter(handler *UploadHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 42)
		c.Next()
	})
	r.POST("/chat/upload", handler.Upload)
	return r
}

func multipartBody(t *testing.T, fieldName, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadStoresFile(t *testing.T) {
	mediaRoot := t.TempDir()
	handler := NewUploadHandler(mediaRoot, "/media/")
	router := setupUploadRouter(handler)

	body, contentType := multipartBody(t, "file", "notes.pdf", []byte("pdf bytes"))
	req := httptest.NewRequest(http.MethodPost, "/chat/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
		URL    string `json:"url"`
		Name   string `json:"name"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "ok", resp.Status)
	require.Equal(t, "/media/chat_files/42_notes.pdf", resp.URL)
	require.Equal(t, "notes.pdf", resp.Name)

	stored, err := os.ReadFile(filepath.Join(mediaRoot, "chat_files", "42_notes.pdf"))
	require.NoError(t, err)
	require.Equal(t, []byte("pdf bytes"), stored)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	handler := NewUploadHandler(t.TempDir(), "/media/")
	router := setupUploadRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/chat/upload", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadStripsDirectorycomponents(t *testing.T) {
	mediaRoot := t.TempDir()
	handler := NewUploadHandler(mediaRoot, "/media/")
	router := setupUploadRouter(handler)

	body, contentType := multipartBody(t, "file", "../../escape.txt", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/chat/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, err := os.Stat(filepath.Join(mediaRoot, "chat_files", "42_escape.txt"))
	require.NoError(t, err)
}
