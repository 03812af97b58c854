package generate

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/errs"
	"github.com/koustreak/sqlgate/internal/store"
)

// QuerySuggestion is a generated ad-hoc query. It is returned to the caller
// and never executed here.
type QuerySuggestion struct {
	Query       string  `json:"query"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

// Service turns prompts plus schema context into structured artifacts.
type Service struct {
	client Client
	now    func() time.Time
	newID  func() string
}

// NewService returns a Service backed by c.
func NewService(c Client) *Service {
	return &Service{
		client: c,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// SuggestQuery asks the generator for a query answering prompt.
func (s *Service) SuggestQuery(ctx context.Context, engine database.Engine, schemaText, prompt string) (*QuerySuggestion, error) {
	text, err := render(queryPrompt, promptData{Engine: engine, Schema: schemaText, Prompt: prompt})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindGenerationFailed, "failed to render prompt", err)
	}

	raw, err := s.complete(ctx, text)
	if err != nil {
		return nil, err
	}

	var out QuerySuggestion
	if err := decode(raw, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Query) == "" {
		return nil, errs.New(errs.ErrKindGenerationFailed, "generator response has no query")
	}
	return &out, nil
}

// generatedEndpoint shadows the fields the service owns so whatever the
// generator puts there is discarded.
type generatedEndpoint struct {
	store.Endpoint
	ID           json.RawMessage `json:"id"`
	CreatedAt    json.RawMessage `json:"createdAt"`
	IsPublished  json.RawMessage `json:"isPublished"`
	PublishedURL json.RawMessage `json:"publishedUrl"`
}

// GenerateEndpoint asks the generator for an endpoint definition. The result
// always has a fresh id, the current time, and is unpublished.
func (s *Service) GenerateEndpoint(ctx context.Context, engine database.Engine, schemaText, prompt string, options map[string]any) (*store.Endpoint, error) {
	opts, err := renderOptions(options)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "options cannot be rendered", err)
	}
	text, err := render(endpointPrompt, promptData{Engine: engine, Schema: schemaText, Options: opts, Prompt: prompt})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindGenerationFailed, "failed to render prompt", err)
	}

	raw, err := s.complete(ctx, text)
	if err != nil {
		return nil, err
	}

	var gen generatedEndpoint
	if err := decode(raw, &gen); err != nil {
		return nil, err
	}

	ep := gen.Endpoint
	if strings.TrimSpace(ep.Query) == "" {
		return nil, errs.New(errs.ErrKindGenerationFailed, "generator response has no query")
	}
	if strings.TrimSpace(ep.Path) == "" {
		return nil, errs.New(errs.ErrKindGenerationFailed, "generator response has no path")
	}

	ep.ID = s.newID()
	ep.CreatedAt = s.now()
	ep.IsPublished = false
	ep.PublishedURL = nil
	ep.Method = strings.ToUpper(strings.TrimSpace(ep.Method))
	if ep.Method == "" {
		ep.Method = "GET"
	}
	if !strings.HasPrefix(ep.Path, "/") {
		ep.Path = "/" + ep.Path
	}
	return &ep, nil
}

func (s *Service) complete(ctx context.Context, prompt string) (string, error) {
	raw, err := s.client.Complete(ctx, prompt)
	if err != nil {
		if errs.IsGenerationFailed(err) {
			return "", err
		}
		return "", errs.Wrap(errs.ErrKindGenerationFailed, "generator request failed", err)
	}
	return raw, nil
}

// decode strips an optional markdown code fence and JSON-decodes raw into v.
func decode(raw string, v any) error {
	body := StripFence(raw)
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return errs.Wrap(errs.ErrKindGenerationFailed, "JSON decode error", err)
	}
	return nil
}

// StripFence trims raw and removes a surrounding ```json … ``` or ``` … ```
// fence.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasSuffix(s, "```") {
		return s
	}
	for _, open := range []string{"```json", "```JSON", "```"} {
		if strings.HasPrefix(s, open) && len(s) >= len(open)+3 {
			return strings.TrimSpace(s[len(open) : len(s)-3])
		}
	}
	return s
}
