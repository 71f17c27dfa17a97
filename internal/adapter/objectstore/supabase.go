package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"splitledger/config"
	"splitledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// SupabaseStore implements ports.ObjectStore against the Supabase storage
// REST API. Uploaded objects are served from the public bucket URL.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewSupabaseStore creates an object store client.
func NewSupabaseStore(cfg config.StorageConfig, log zerolog.Logger) *SupabaseStore {
	return &SupabaseStore{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// NewSupabaseStoreWithClient allows injecting the HTTP client in tests.
func NewSupabaseStoreWithClient(baseURL, serviceKey string, client HTTPClient, log zerolog.Logger) *SupabaseStore {
	return &SupabaseStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: client,
		log:        log,
	}
}

// Upload stores one object and returns its public URL.
func (s *SupabaseStore) Upload(ctx context.Context, upload ports.UploadRequest) (string, error) {
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, upload.Bucket, upload.ObjectPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(upload.Data))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", upload.ContentType)
	if upload.Upsert {
		req.Header.Set("x-upsert", "true")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("object store returned status %d", resp.StatusCode)
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, upload.Bucket, upload.ObjectPath)
	s.log.Debug().
		Str("bucket", upload.Bucket).
		Str("path", upload.ObjectPath).
		Int("bytes", len(upload.Data)).
		Msg("object uploaded")
	return publicURL, nil
}
