package live

import (
	"context"
	"net/http"
)

const (
	// DefaultEndpoint is the Gemini Live WebSocket endpoint.
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultModel is the model used when ConnectConfig.Model is empty.
	DefaultModel = "models/gemini-2.0-flash-live-001"
)

// Client is the Gemini Live API client.
type Client struct {
	config *clientConfig
}

// clientConfig holds the client configuration.
type clientConfig struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*clientConfig)

// NewClient creates a new Gemini Live client.
//
// The apiKey is required and can be obtained from:
// https://aistudio.google.com/apikey
func NewClient(apiKey string, opts ...Option) *Client {
	if apiKey == "" {
		panic("live: API key is required")
	}

	cfg := &clientConfig{
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Client{config: cfg}
}

// WithEndpoint sets the WebSocket endpoint. Primarily used in tests to
// point at a local mock server.
func WithEndpoint(url string) Option {
	return func(c *clientConfig) {
		c.endpoint = url
	}
}

// WithHTTPClient sets a custom HTTP client. Its Timeout bounds the
// WebSocket handshake.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// ConnectConfig configures one duplex session.
type ConnectConfig struct {
	// Model is the model resource name, e.g.
	// "models/gemini-2.0-flash-live-001". Defaults to DefaultModel.
	Model string

	// Voice selects the prebuilt voice for synthesized speech
	// (e.g. "Puck", "Kore"). Empty leaves the server default.
	Voice string

	// SystemInstruction is prepended to the conversation.
	SystemInstruction string

	// ResponseModalities defaults to ["AUDIO"].
	ResponseModalities []string
}

// Connect establishes a duplex session. It sends the setup frame and
// blocks until the server acknowledges with setupComplete; the
// returned Session is ready to accept audio.
func (c *Client) Connect(ctx context.Context, config *ConnectConfig) (*Session, error) {
	return c.connect(ctx, config)
}
