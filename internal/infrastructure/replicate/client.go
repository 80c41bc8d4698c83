package replicate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	replicatego "github.com/replicate/replicate-go"

	"github.com/basel-ax/roomdream/internal/domain"
)

const (
	defaultBaseURL        = "https://api.replicate.com/v1"
	defaultMaxOutputBytes = 20 << 20
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL        string
	APIToken       string
	ModelVersion   string
	RequestTimeout time.Duration
	MaxOutputBytes int64
}

// Client talks to the Replicate predictions API through the official SDK.
// Output downloads use the plain HTTP client.
type Client struct {
	api            *replicatego.Client
	httpClient     *http.Client
	modelVersion   string
	maxOutputBytes int64
}

// NewClient creates a new Replicate API client
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = defaultMaxOutputBytes
	}

	httpClient := &http.Client{Timeout: opts.RequestTimeout}
	api, err := replicatego.NewClient(
		replicatego.WithToken(opts.APIToken),
		replicatego.WithBaseURL(strings.TrimRight(opts.BaseURL, "/")),
		replicatego.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create replicate client: %w", err)
	}

	return &Client{
		api:            api,
		httpClient:     httpClient,
		modelVersion:   opts.ModelVersion,
		maxOutputBytes: opts.MaxOutputBytes,
	}, nil
}

// Submit starts a prediction and returns the job as first reported by the API.
func (c *Client) Submit(ctx context.Context, req domain.ImageGenerationRequest) (*Job, error) {
	input := replicatego.PredictionInput{
		"image":    req.ImageURL,
		"prompt":   req.Prompt,
		"a_prompt": req.PositivePrompt,
		"n_prompt": req.NegativePrompt,
	}

	prediction, err := c.api.CreatePrediction(ctx, c.modelVersion, input, nil, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction: %w", err)
	}

	return jobFromPrediction(prediction)
}

// Get fetches the current state of a prediction.
func (c *Client) Get(ctx context.Context, id string) (*Job, error) {
	prediction, err := c.api.GetPrediction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction %s: %w", id, err)
	}

	return jobFromPrediction(prediction)
}

// Download fetches the bytes behind an output URL.
func (c *Client) Download(ctx context.Context, url string) ([]byte, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxOutputBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read output: %w", err)
	}
	if int64(len(data)) > c.maxOutputBytes {
		return nil, "", fmt.Errorf("output exceeds %d bytes", c.maxOutputBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return data, contentType, nil
}

// jobFromPrediction keeps output and error as raw JSON so Job.Result can
// interpret every shape the model returns.
func jobFromPrediction(p *replicatego.Prediction) (*Job, error) {
	output, err := json.Marshal(p.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	predErr, err := json.Marshal(p.Error)
	if err != nil {
		return nil, fmt.Errorf("failed to encode error: %w", err)
	}

	return &Job{
		ID:     p.ID,
		Status: string(p.Status),
		Output: output,
		Error:  predErr,
	}, nil
}
