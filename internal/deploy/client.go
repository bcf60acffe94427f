// Package deploy talks to the external deployment service that deploys,
// initializes and registers a new collection on the caller's behalf.
package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds one deployment round trip. The service waits for
	// three transactions before answering.
	DefaultTimeout = 5 * time.Minute

	deployPath = "/deploy-nft"
)

var (
	// ErrNoBaseURL means no deployment API URL is configured.
	ErrNoBaseURL = errors.New("deployment API URL not configured")
	// ErrDeploymentFailed is returned when the service answers 2xx but
	// reports success=false.
	ErrDeploymentFailed = errors.New("deployment reported failure")
)

// Request is the body of a deployment call.
type Request struct {
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	BaseURI        string `json:"baseUri"`
	FactoryAddress string `json:"factoryAddress,omitempty"`
	PrivateKey     string `json:"privateKey"`
	RPCEndpoint    string `json:"rpcEndpoint"`
}

// LogValue keeps the private key out of logs.
func (r Request) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", r.Name),
		slog.String("symbol", r.Symbol),
		slog.String("base_uri", r.BaseURI),
		slog.String("factory", r.FactoryAddress),
		slog.String("rpc", r.RPCEndpoint),
	)
}

func (r Request) validate() error {
	var missing []string
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.Symbol == "" {
		missing = append(missing, "symbol")
	}
	if r.PrivateKey == "" {
		missing = append(missing, "privateKey")
	}
	if r.RPCEndpoint == "" {
		missing = append(missing, "rpcEndpoint")
	}
	if len(missing) > 0 {
		return fmt.Errorf("deployment request missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Result is the service's answer.
type Result struct {
	CollectionAddress string `json:"collectionAddress"`
	TxHash            string `json:"txHash"`
	Success           bool   `json:"success"`
	DeployOutput      string `json:"deployOutput,omitempty"`
	InitOutput        string `json:"initOutput,omitempty"`
	RegisterOutput    string `json:"registerOutput,omitempty"`
}

// APIError is a non-2xx answer from the deployment service.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string { return e.Message }

// Client calls the deployment service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracker    *Tracker
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTracker makes Deploy report progress to t.
func WithTracker(t *Tracker) Option {
	return func(c *Client) { c.tracker = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tracker returns the progress tracker, nil if none was set.
func (c *Client) Tracker() *Tracker { return c.tracker }

// Deploy performs a single deployment round trip. It never retries.
func (c *Client) Deploy(ctx context.Context, req Request) (*Result, error) {
	res, err := c.deploy(ctx, req)
	if res != nil {
		c.track(func(t *Tracker) { t.Replay(res) })
	} else if err != nil {
		c.track(func(t *Tracker) { t.Fail(err) })
	}
	return res, err
}

func (c *Client) deploy(ctx context.Context, req Request) (*Result, error) {
	if c.baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	c.track(func(t *Tracker) { t.Begin() })

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+deployPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "nftctl/1.0")
	httpReq.Header.Set("X-Request-ID", requestID)

	log := c.logger.With("request_id", requestID)
	log.Info("deployment requested", "request", req)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Deployment failed with status %d", resp.StatusCode),
			RequestID:  requestID,
		}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		log.Warn("deployment failed", "status", resp.StatusCode, "err", apiErr.Message)
		return nil, apiErr
	}

	var res Result
	if err := json.Unmarshal(respBody, &res); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if !res.Success {
		return &res, ErrDeploymentFailed
	}
	log.Info("deployment finished", "collection", res.CollectionAddress, "tx", res.TxHash)
	return &res, nil
}

func (c *Client) track(fn func(*Tracker)) {
	if c.tracker != nil {
		fn(c.tracker)
	}
}
