package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"mediaforge/internal/infra"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// APIError carries the upstream status of a failed gateway call.
type APIError struct {
	Model   string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vertex: %s returned %d: %s", e.Model, e.Status, e.Message)
}

// Options controls how the Vertex client is configured.
type Options struct {
	ProjectID    string
	Location     string
	ImagenModel  string
	VeoModel     string
	UpscaleModel string
	LyriaModel   string

	// StorageURI is the gs:// prefix the generation models write their
	// artifacts under.
	StorageURI string

	// BaseURL overrides the regional aiplatform endpoint; used in tests.
	BaseURL    string
	TTSBaseURL string

	HTTPClient  *http.Client
	TokenSource oauth2.TokenSource
	Logger      *infra.Logger

	// Uploader persists artifacts the gateway produces inline (synthesized
	// speech) rather than writing to storage itself.
	Uploader Uploader
}

// Uploader stores raw artifact bytes and returns a storage-native identifier.
type Uploader interface {
	Upload(ctx context.Context, object, contentType string, data []byte) (string, error)
}

// Client calls the Vertex AI REST surface: synchronous predict for image and
// music models, the long-running-operation pair (predictLongRunning /
// fetchPredictOperation) for video, and the text-to-speech endpoint.
type Client struct {
	opts       Options
	baseURL    string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	logger     *infra.Logger
}

// NewClient validates options and wires the default token source when none
// was injected.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.ProjectID == "" {
		return nil, errors.New("vertex: project id is required")
	}
	if opts.Location == "" {
		opts.Location = "us-central1"
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1", opts.Location)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	tokens := opts.TokenSource
	if tokens == nil {
		ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("vertex: default token source: %w", err)
		}
		tokens = ts
	}
	return &Client{
		opts:       opts,
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     tokens,
		logger:     opts.Logger,
	}, nil
}

func (c *Client) modelEndpoint(model, verb string) string {
	return fmt.Sprintf("%s/projects/%s/locations/%s/publishers/google/models/%s:%s",
		c.baseURL, c.opts.ProjectID, c.opts.Location, model, verb)
}

// post issues an authenticated JSON call and decodes the response into out.
// Non-2xx responses become *APIError with the upstream status preserved.
func (c *Client) post(ctx context.Context, model, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("vertex: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("vertex: build request: %w", err)
	}
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("vertex: access token: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vertex: call %s: %w", model, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return fmt.Errorf("vertex: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if c.logger != nil {
			c.logger.Error().Int("status", resp.StatusCode).Str("model", model).Msg("vertex: upstream error")
		}
		return &APIError{Model: model, Status: resp.StatusCode, Message: upstreamMessage(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("vertex: decode response: %w", err)
	}
	return nil
}

// upstreamMessage extracts the error message from a Google API error body,
// falling back to the raw payload.
func upstreamMessage(data []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	if len(data) > 512 {
		data = data[:512]
	}
	return string(data)
}
