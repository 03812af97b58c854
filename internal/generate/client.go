// Package generate is the boundary to the text-generation service that turns
// natural language into SQL suggestions and endpoint definitions. The
// service's output is treated as an opaque artifact and parsed here.
package generate

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/koustreak/sqlgate/internal/errs"
)

// Client completes a prompt into raw text.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config selects and configures the generation backend. It is passed in
// explicitly; nothing here reads the environment.
type Config struct {
	Provider string // "gemini", or "" / "none" to disable generation
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// DefaultConfig returns the Gemini defaults without an API key.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Model:    "gemini-1.5-flash",
		BaseURL:  "https://generativelanguage.googleapis.com",
		Timeout:  60 * time.Second,
	}
}

// NewClient builds the Client named by cfg.Provider.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return disabled{}, nil
	case "gemini":
		if cfg.APIKey == "" {
			return disabled{}, nil
		}
		return NewGeminiClient(ctx, cfg, nil)
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown generator provider %q", cfg.Provider)
	}
}

type disabled struct{}

func (disabled) Complete(context.Context, string) (string, error) {
	return "", errs.New(errs.ErrKindGenerationFailed, "generator is not configured")
}

// GeminiClient completes prompts with the Gemini API through the genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient returns a client for cfg. hc may be nil.
func NewGeminiClient(ctx context.Context, cfg Config, hc *http.Client) (*GeminiClient, error) {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
			Timeout: genai.Ptr(cfg.Timeout),
		},
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindGenerationFailed, "failed to create generator client", err)
	}
	return &GeminiClient{client: client, model: cfg.Model}, nil
}

// Complete sends prompt as a single user turn and returns the text of the
// first candidate.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", errs.Newf(errs.ErrKindGenerationFailed, "generator error %d: %s", apiErr.Code, apiErr.Message)
		}
		return "", errs.Wrap(errs.ErrKindGenerationFailed, "generator request failed", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errs.New(errs.ErrKindGenerationFailed, "generator returned no candidates")
	}
	return resp.Text(), nil
}
