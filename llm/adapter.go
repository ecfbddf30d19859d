package llm

import (
	"context"
	"errors"
	"time"
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // The message content
}

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse indicates the provider returned no usable content.
var ErrEmptyResponse = errors.New("empty model response")

// Adapter defines the interface for LLM providers. One request, one
// response; no streaming and no retries. A failure is surfaced to the
// caller as-is.
type Adapter interface {
	// Send sends messages and returns the complete response
	Send(ctx context.Context, messages []Message) (*Message, error)

	// ModelName returns the current model name
	ModelName() string

	// Available checks if the adapter is properly configured and available
	Available() bool
}

// AdapterConfig contains common configuration for LLM adapters
type AdapterConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// DefaultTimeout for LLM requests
const DefaultTimeout = 60 * time.Second
