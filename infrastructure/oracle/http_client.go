package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPConfig contains configuration for an OpenAI-compatible chat
// completions endpoint (OpenAI, Azure OpenAI, local gateways).
type HTTPConfig struct {
	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL string
	APIKey  string
	// APIKeyHeader is the header carrying the key. "Authorization" sends a
	// bearer token; Azure uses "api-key".
	APIKeyHeader string
	Model        string
	Temperature  float32
	Timeout      time.Duration
	// HealthPath is polled to track availability. Empty disables polling.
	HealthPath     string
	HealthInterval time.Duration
	HealthTimeout  time.Duration
}

// DefaultHTTPConfig returns default HTTP oracle configuration.
func DefaultHTTPConfig() *HTTPConfig {
	return &HTTPConfig{
		BaseURL:        "https://api.openai.com/v1",
		APIKeyHeader:   "Authorization",
		Model:          "gpt-4o",
		Temperature:    0.2,
		Timeout:        60 * time.Second,
		HealthPath:     "/models",
		HealthInterval: 30 * time.Second,
		HealthTimeout:  5 * time.Second,
	}
}

// HTTPClient implements Client using HTTP calls to a chat completions API.
type HTTPClient struct {
	config       *HTTPConfig
	httpClient   *http.Client
	healthy      atomic.Bool
	healthCtx    context.Context
	healthCancel context.CancelFunc
	healthWg     sync.WaitGroup
}

// NewHTTPClient creates a new HTTP-based oracle client.
func NewHTTPClient(config *HTTPConfig) *HTTPClient {
	if config == nil {
		config = DefaultHTTPConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	client := &HTTPClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		healthCtx:    ctx,
		healthCancel: cancel,
	}

	if config.HealthPath == "" || config.HealthInterval <= 0 {
		client.healthy.Store(true)
		return client
	}

	// Perform initial health check
	client.performHealthCheck()

	// Start background health check loop
	client.healthWg.Add(1)
	go client.healthCheckLoop()

	return client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string  `json:"name"`
	Strict bool    `json:"strict"`
	Schema *Schema `json:"schema"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float32        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *HTTPClient) buildRequest(req *Request) chatRequest {
	var messages []chatMessage
	if req.Instruction != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.Instruction})
	}

	if req.Image == nil {
		messages = append(messages, chatMessage{Role: "user", Content: req.Text})
	} else {
		var parts []contentPart
		if req.Text != "" {
			parts = append(parts, contentPart{Type: "text", Text: req.Text})
		}
		dataURL := fmt.Sprintf("data:%s;base64,%s", req.Image.MIMEType, base64.StdEncoding.EncodeToString(req.Image.Data))
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: dataURL}})
		messages = append(messages, chatMessage{Role: "user", Content: parts})
	}

	return chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   req.schemaName(),
				Strict: true,
				Schema: req.Schema,
			},
		},
	}
}

// Submit posts req to the chat completions endpoint.
func (c *HTTPClient) Submit(ctx context.Context, req *Request, out any) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if !c.IsHealthy() {
		return ErrUnavailable
	}

	payload, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/chat/completions"), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return ErrEmptyResponse
	}

	msg := chat.Choices[0].Message
	if msg.Refusal != "" {
		return fmt.Errorf("oracle refused: %s", msg.Refusal)
	}

	return decodeStrict(msg.Content, req.Schema, out)
}

func (c *HTTPClient) endpoint(path string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + path
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.config.APIKey == "" {
		return
	}
	if c.config.APIKeyHeader == "" || strings.EqualFold(c.config.APIKeyHeader, "Authorization") {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		return
	}
	req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
}

// IsHealthy returns true if the service is available.
func (c *HTTPClient) IsHealthy() bool {
	return c.healthy.Load()
}

// Close releases resources.
func (c *HTTPClient) Close() {
	if c.healthCancel != nil {
		c.healthCancel()
	}
	c.healthWg.Wait()
	c.httpClient.CloseIdleConnections()
}

func (c *HTTPClient) healthCheckLoop() {
	defer c.healthWg.Done()

	ticker := time.NewTicker(c.config.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.healthCtx.Done():
			return
		case <-ticker.C:
			c.performHealthCheck()
		}
	}
}

func (c *HTTPClient) performHealthCheck() {
	ctx, cancel := context.WithTimeout(c.healthCtx, c.config.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(c.config.HealthPath), nil)
	if err != nil {
		c.healthy.Store(false)
		return
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.healthy.Store(false)
		return
	}
	defer resp.Body.Close()

	c.healthy.Store(resp.StatusCode == http.StatusOK)
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)
