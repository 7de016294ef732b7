package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/phrazzld/flashforge/internal/config"
	"github.com/phrazzld/flashforge/internal/generation"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// apiKeyHeader carries the credential on REST calls.
const apiKeyHeader = "x-goog-api-key"

// wireRequest is the generateContent request body.
type wireRequest struct {
	Contents          []generation.Content `json:"contents"`
	SystemInstruction *generation.Content  `json:"systemInstruction,omitempty"`
	GenerationConfig  wireGenerationConfig `json:"generationConfig"`
}

type wireGenerationConfig struct {
	ResponseMIMEType string             `json:"responseMimeType"`
	ResponseSchema   *generation.Schema `json:"responseSchema,omitempty"`
}

// wireError is the error body returned by Google APIs.
type wireError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// RESTTransport calls the generateContent endpoint directly over HTTP.
type RESTTransport struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewRESTTransport creates a RESTTransport for the configured model. A nil
// client uses http.DefaultClient.
func NewRESTTransport(cfg config.LLMConfig, client *http.Client) (*RESTTransport, error) {
	if client == nil {
		client = http.DefaultClient
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", generation.ErrInvalidConfig, cfg.BaseURL)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	endpoint := base.JoinPath(cfg.APIVersion, "models", cfg.ModelName+":generateContent")

	return &RESTTransport{
		client:   client,
		endpoint: endpoint.String(),
		apiKey:   cfg.GeminiAPIKey,
	}, nil
}

// Endpoint returns the URL requests are posted to.
func (t *RESTTransport) Endpoint() string {
	return t.endpoint
}

// Send posts req and returns the response body.
func (t *RESTTransport) Send(ctx context.Context, req *generation.Request) ([]byte, error) {
	body, err := json.Marshal(newWireRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(apiKeyHeader, t.apiKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, generation.NewTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, generation.NewTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeServiceError(resp.StatusCode, data)
	}

	return data, nil
}

// newWireRequest converts req into the generateContent JSON body.
func newWireRequest(req *generation.Request) wireRequest {
	return wireRequest{
		Contents: []generation.Content{{
			Role:  "user",
			Parts: []generation.Part{{Text: req.UserContent}},
		}},
		SystemInstruction: &generation.Content{
			Parts: []generation.Part{{Text: req.SystemInstruction}},
		},
		GenerationConfig: wireGenerationConfig{
			ResponseMIMEType: req.OutputMIMEType(),
			ResponseSchema:   req.Schema,
		},
	}
}

func decodeServiceError(statusCode int, body []byte) *generation.ServiceError {
	var we wireError
	if err := json.Unmarshal(body, &we); err != nil || we.Error.Message == "" {
		return generation.NewServiceError(statusCode, "", strings.TrimSpace(string(body)))
	}
	return generation.NewServiceError(statusCode, we.Error.Status, we.Error.Message)
}
