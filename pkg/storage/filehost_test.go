package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencampus/sims-api/pkg/config"
)

func newTestFileHost(t *testing.T, handler http.HandlerFunc) *FileHost {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	host := NewFileHost(config.UploadsConfig{
		CloudName:    "campus",
		UploadPreset: "student-docs",
		APIKey:       "key",
		APISecret:    "secret",
		Folder:       "student-documents",
	})
	return host.WithBaseURL(server.URL)
}

func TestFileHostUpload(t *testing.T) {
	host := newTestFileHost(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/campus/auto/upload", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "student-docs", r.FormValue("upload_preset"))
		assert.Equal(t, "student-documents", r.FormValue("folder"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close() //nolint:errcheck
		assert.Equal(t, "transcript.pdf", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"public_id": "student-documents/abc123",
			"url": "http://res.example.com/abc123.pdf",
			"secure_url": "https://res.example.com/abc123.pdf",
			"format": "pdf",
			"bytes": 2048,
			"created_at": "2025-01-15T10:00:00Z"
		}`))
	})

	result, err := host.Upload(context.Background(), "transcript.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "student-documents/abc123", result.PublicID)
	assert.Equal(t, "https://res.example.com/abc123.pdf", result.SecureURL)
	assert.Equal(t, int64(2048), result.Bytes)
}

func TestFileHostUploadRejected(t *testing.T) {
	host := newTestFileHost(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid preset"}}`))
	})

	_, err := host.Upload(context.Background(), "transcript.pdf", strings.NewReader("%PDF-1.4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestFileHostDestroy(t *testing.T) {
	host := newTestFileHost(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/campus/image/destroy", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "student-documents/abc123", r.FormValue("public_id"))
		assert.Equal(t, "key", r.FormValue("api_key"))
		assert.NotEmpty(t, r.FormValue("signature"))
		assert.NotEmpty(t, r.FormValue("timestamp"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	})

	err := host.Destroy(context.Background(), "student-documents/abc123")
	require.NoError(t, err)
}

func TestFileHostDestroyNotFoundIsIgnored(t *testing.T) {
	host := newTestFileHost(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"not found"}`))
	})

	err := host.Destroy(context.Background(), "student-documents/missing")
	require.NoError(t, err)
}
