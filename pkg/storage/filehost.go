package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/opencampus/sims-api/pkg/config"
)

// FileHost uploads student documents to a Cloudinary-compatible media host.
// Uploads use an unsigned preset; deletions are signed with the account secret.
type FileHost struct {
	cloudName    string
	uploadPreset string
	apiKey       string
	apiSecret    string
	folder       string

	baseURL string
	client  *http.Client
}

// UploadResult is the subset of the host's upload response the system keeps.
type UploadResult struct {
	PublicID  string    `json:"public_id"`
	URL       string    `json:"url"`
	SecureURL string    `json:"secure_url"`
	Format    string    `json:"format"`
	Bytes     int64     `json:"bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFileHost builds a client from the uploads configuration.
func NewFileHost(cfg config.UploadsConfig) *FileHost {
	return &FileHost{
		cloudName:    cfg.CloudName,
		uploadPreset: cfg.UploadPreset,
		apiKey:       cfg.APIKey,
		apiSecret:    cfg.APISecret,
		folder:       cfg.Folder,
		baseURL:      "https://api.cloudinary.com/v1_1",
		client:       &http.Client{Timeout: 60 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (h *FileHost) WithBaseURL(baseURL string) *FileHost {
	h.baseURL = strings.TrimRight(baseURL, "/")
	return h
}

// Upload streams the file to the host using the unsigned upload preset and
// returns the stored file's identifiers.
func (h *FileHost) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	if h.cloudName == "" || h.uploadPreset == "" {
		return nil, fmt.Errorf("file host not configured")
	}

	body := &strings.Builder{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("prepare upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copy upload payload: %w", err)
	}
	if err := writer.WriteField("upload_preset", h.uploadPreset); err != nil {
		return nil, fmt.Errorf("write upload preset: %w", err)
	}
	if h.folder != "" {
		if err := writer.WriteField("folder", h.folder); err != nil {
			return nil, fmt.Errorf("write upload folder: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/auto/upload", h.baseURL, h.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body.String()))
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("upload rejected: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var payload struct {
		PublicID  string `json:"public_id"`
		URL       string `json:"url"`
		SecureURL string `json:"secure_url"`
		Format    string `json:"format"`
		Bytes     int64  `json:"bytes"`
		CreatedAt string `json:"created_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339, payload.CreatedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	}

	return &UploadResult{
		PublicID:  payload.PublicID,
		URL:       payload.URL,
		SecureURL: payload.SecureURL,
		Format:    payload.Format,
		Bytes:     payload.Bytes,
		CreatedAt: createdAt,
	}, nil
}

// Destroy removes a previously uploaded file. The request is authenticated
// with the SHA-1 signature scheme the host expects for admin operations.
func (h *FileHost) Destroy(ctx context.Context, publicID string) error {
	if h.cloudName == "" || h.apiKey == "" || h.apiSecret == "" {
		return fmt.Errorf("file host credentials not configured")
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	params := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}
	signature := h.sign(params)

	form := make([]string, 0, 4)
	form = append(form,
		"public_id="+publicID,
		"timestamp="+timestamp,
		"api_key="+h.apiKey,
		"signature="+signature,
	)

	endpoint := fmt.Sprintf("%s/%s/image/destroy", h.baseURL, h.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(strings.Join(form, "&")))
	if err != nil {
		return fmt.Errorf("build destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("destroy file: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("destroy rejected: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var payload struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode destroy response: %w", err)
	}
	if payload.Result != "ok" && payload.Result != "not found" {
		return fmt.Errorf("destroy failed: %s", payload.Result)
	}
	return nil
}

// sign produces the host's request signature: parameters sorted by key,
// joined as key=value pairs with '&', concatenated with the secret, SHA-1.
func (h *FileHost) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + h.apiSecret))
	return hex.EncodeToString(sum[:])
}
