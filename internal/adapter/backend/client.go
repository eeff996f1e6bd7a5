package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/poaching-risk-service/internal/domain"
	"github.com/couchcryptid/poaching-risk-service/internal/observability"
)

// predictPath is the only write endpoint; everything else is a named read.
const predictPath = "predict"

// Client talks to the inference backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch returns the raw body of a read endpoint.
func (c *Client) Fetch(ctx context.Context, ep domain.Endpoint) ([]byte, error) {
	return c.doRequest(ctx, http.MethodGet, string(ep), nil)
}

// Predict submits one feature vector and decodes the classifier's answer.
func (c *Client) Predict(ctx context.Context, req domain.PredictionRequest) (domain.PredictionResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("encode prediction request: %w", err)
	}
	body, err := c.doRequest(ctx, http.MethodPost, predictPath, payload)
	if err != nil {
		return domain.PredictionResult{}, err
	}
	result, err := domain.Decode[domain.PredictionResult](body)
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("%s: %w", predictPath, err)
	}
	return result, nil
}

// CheckReadiness reports whether the backend's health endpoint answers.
func (c *Client) CheckReadiness(ctx context.Context) error {
	_, err := c.Fetch(ctx, domain.EndpointHealth)
	return err
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// The backend sits behind a tunnel that otherwise answers with an HTML interstitial.
	req.Header.Set("ngrok-skip-browser-warning", "true")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	body, err := c.send(req, path)
	c.metrics.BackendDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.BackendRequests.WithLabelValues(path, "error").Inc()
		c.logger.Warn("backend request failed", "endpoint", path, "error", err)
		return nil, err
	}
	c.metrics.BackendRequests.WithLabelValues(path, "success").Inc()
	return body, nil
}

func (c *Client) send(req *http.Request, path string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend error: %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}
