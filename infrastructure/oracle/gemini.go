package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig contains configuration for the Gemini client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
}

// DefaultGeminiConfig returns default Gemini client configuration.
func DefaultGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		Model:       "gemini-2.5-flash",
		Temperature: 0.2,
		Timeout:     60 * time.Second,
	}
}

// GeminiClient implements Client using the Google Gen AI SDK.
type GeminiClient struct {
	config *GeminiConfig
	models *genai.Models
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, config *GeminiConfig) (*GeminiClient, error) {
	if config == nil {
		config = DefaultGeminiConfig()
	}
	if config.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		config: config,
		models: client.Models,
	}, nil
}

// Submit sends req to Gemini with a JSON response schema.
func (c *GeminiClient) Submit(ctx context.Context, req *Request, out any) error {
	if err := req.Validate(); err != nil {
		return err
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	resp, err := c.models.GenerateContent(ctx, c.config.Model, geminiContents(req), c.generateConfig(req))
	if err != nil {
		return fmt.Errorf("failed to generate content: %w", err)
	}

	return decodeStrict(resp.Text(), req.Schema, out)
}

func (c *GeminiClient) generateConfig(req *Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.config.Temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema.toGenai(),
	}
	if req.Instruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.Instruction, genai.RoleUser)
	}
	return cfg
}

func geminiContents(req *Request) []*genai.Content {
	var parts []*genai.Part
	if req.Text != "" {
		parts = append(parts, genai.NewPartFromText(req.Text))
	}
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// Ensure GeminiClient implements Client
var _ Client = (*GeminiClient)(nil)
