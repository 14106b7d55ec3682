package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/vlyzo/wardrobe-api/pkg/models"
)

// Sentinel errors for vision pipeline failures.
var (
	ErrPipelineUnreachable = errors.New("vision pipeline unreachable")
	ErrPipelineFailed      = errors.New("vision pipeline error")
	ErrPipelineTimeout     = errors.New("vision pipeline timeout")
)

// Processing modes. Single expects one garment in the frame; outfit
// segments the photo into multiple garments and is the default.
const (
	ModeSingle = "single"
	ModeOutfit = "outfit"
)

// Result is the pipeline's answer for one image.
type Result struct {
	ItemsFound int
	Items      []models.Detection
}

// Client is the interface for the vision pipeline.
type Client interface {
	Process(ctx context.Context, image []byte, mode string) (*Result, error)
}

// HTTPClient implements Client against the pipeline's HTTP API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a new vision pipeline HTTP client.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Process sends the image to the pipeline and returns its detections.
// There is no retry: a failed call fails the whole processing job.
func (c *HTTPClient) Process(ctx context.Context, image []byte, mode string) (*Result, error) {
	endpoint := "/process-outfit"
	if mode == ModeSingle {
		endpoint = "/process-single"
	}

	payload, err := json.Marshal(processRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrPipelineFailed, resp.StatusCode, body)
	}

	var visionResp processResponse
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrPipelineFailed, err)
	}

	items := visionResp.Items
	if items == nil {
		items = []models.Detection{}
	}
	return &Result{ItemsFound: visionResp.ItemsFound, Items: items}, nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrPipelineTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrPipelineTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrPipelineUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrPipelineUnreachable, err)
}

// --- pipeline wire types ---

type processRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type processResponse struct {
	ItemsFound int                `json:"items_found"`
	Items      []models.Detection `json:"items"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
