package gemini

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/phrazzld/flashforge/internal/config"
)

// Transport names accepted in config.LLMConfig.Transport.
const (
	TransportREST = "rest"
	TransportSDK  = "sdk"
)

// NewTransport builds the transport named by cfg.Transport. The SDK client
// needs a credential, so without one REST is used; the invoker never calls
// it in that case anyway.
func NewTransport(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (Transport, error) {
	if cfg.Transport == TransportSDK && cfg.HasCredential() {
		return NewSDKTransport(ctx, cfg, httpClient)
	}
	return NewRESTTransport(cfg, httpClient)
}

// New wires a transport and an Invoker from configuration.
func New(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger, opts ...Option) (*Invoker, error) {
	transport, err := NewTransport(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.InfoContext(ctx, "gemini invoker configured",
			"model", cfg.ModelName,
			"transport", cfg.Transport,
			"max_attempts", cfg.MaxRetries,
			"credential_configured", cfg.HasCredential())
	}

	return NewInvoker(cfg, transport, logger, opts...)
}
