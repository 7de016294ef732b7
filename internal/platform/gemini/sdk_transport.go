package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/flashforge/internal/config"
	"github.com/phrazzld/flashforge/internal/generation"
	"google.golang.org/genai"
)

// SDKTransport sends requests through the official genai client and
// re-encodes the typed response into the wire envelope.
type SDKTransport struct {
	client *genai.Client
	model  string
}

// NewSDKTransport creates a genai client for the Gemini API backend. It
// requires a credential; callers fall back to REST without one.
func NewSDKTransport(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (*SDKTransport, error) {
	if !cfg.HasCredential() {
		return nil, fmt.Errorf("%w: sdk transport requires an API key", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: cfg.APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create genai client: %v", generation.ErrInvalidConfig, err)
	}

	return &SDKTransport{client: client, model: cfg.ModelName}, nil
}

// Send performs one GenerateContent call.
func (t *SDKTransport) Send(ctx context.Context, req *generation.Request) ([]byte, error) {
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.UserContent}},
	}}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		},
		ResponseMIMEType: req.OutputMIMEType(),
		ResponseSchema:   toSDKSchema(req.Schema),
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, genConfig)
	if err != nil {
		return nil, translateSDKError(err)
	}

	data, err := json.Marshal(envelopeFromSDK(resp))
	if err != nil {
		return nil, fmt.Errorf("failed to encode response envelope: %w", err)
	}
	return data, nil
}

func toSDKSchema(s *generation.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:             genai.Type(s.Type),
		Items:            toSDKSchema(s.Items),
		Required:         s.Required,
		PropertyOrdering: s.PropertyOrdering,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSDKSchema(prop)
		}
	}
	return out
}

func envelopeFromSDK(resp *genai.GenerateContentResponse) generation.Envelope {
	env := generation.Envelope{Candidates: []generation.Candidate{}}
	if resp == nil {
		return env
	}

	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		candidate := generation.Candidate{FinishReason: string(c.FinishReason)}
		if c.Content != nil {
			content := &generation.Content{Role: c.Content.Role, Parts: []generation.Part{}}
			for _, p := range c.Content.Parts {
				if p == nil || p.Thought {
					continue
				}
				content.Parts = append(content.Parts, generation.Part{Text: p.Text})
			}
			candidate.Content = content
		}
		env.Candidates = append(env.Candidates, candidate)
	}
	return env
}

// translateSDKError maps genai errors onto the generation taxonomy.
func translateSDKError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return generation.NewServiceError(apiErr.Code, apiErr.Status, apiErr.Message)
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return generation.NewServiceError(apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message)
	}

	return generation.NewTransportError(err)
}
