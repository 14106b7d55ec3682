package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors for storage failures.
var (
	ErrObjectExists       = errors.New("storage object already exists")
	ErrStorageUnreachable = errors.New("storage unreachable")
	ErrUploadFailed       = errors.New("storage upload failed")
)

// Client is the interface for the object store holding cropped garment images.
type Client interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	PublicURL(path string) string
}

// SupabaseClient implements Client against the Supabase Storage HTTP API
// using the trusted service-role key.
type SupabaseClient struct {
	baseURL    string
	serviceKey string
	bucket     string
	client     *http.Client
}

// NewSupabaseClient creates a new storage client for the given bucket.
func NewSupabaseClient(baseURL, serviceKey, bucket string, timeout time.Duration) *SupabaseClient {
	return &SupabaseClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		client:     &http.Client{Timeout: timeout},
	}
}

// Upload stores data under path in the bucket. Uploads never overwrite: a key
// collision is reported as ErrObjectExists and handled per item by the caller.
func (c *SupabaseClient) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	u := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, path)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.serviceKey)
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("x-upsert", "false")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrObjectExists, path)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode, body)
	}
}

// PublicURL returns the publicly resolvable URL for an uploaded object.
func (c *SupabaseClient) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, path)
}

// Compile-time check that SupabaseClient implements Client.
var _ Client = (*SupabaseClient)(nil)
