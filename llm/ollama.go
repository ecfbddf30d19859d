package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaAdapter implements Adapter for a local Ollama server
type OllamaAdapter struct {
	client  *http.Client
	config  AdapterConfig
	baseURL string
}

// OllamaMessage represents a message in Ollama API format
type OllamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OllamaChatRequest represents a chat request to Ollama
type OllamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []OllamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

// OllamaChatResponse represents a chat response from Ollama
type OllamaChatResponse struct {
	Model   string        `json:"model"`
	Message OllamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// NewOllamaAdapter creates a new Ollama adapter
func NewOllamaAdapter(config AdapterConfig) *OllamaAdapter {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &OllamaAdapter{
		client: &http.Client{
			Timeout: config.Timeout,
		},
		config:  config,
		baseURL: baseURL,
	}
}

// Send implements Adapter.Send
func (o *OllamaAdapter) Send(ctx context.Context, messages []Message) (*Message, error) {
	ollamaMessages := make([]OllamaMessage, len(messages))
	for i, msg := range messages {
		ollamaMessages[i] = OllamaMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	reqBody, err := json.Marshal(OllamaChatRequest{
		Model:    o.config.Model,
		Messages: ollamaMessages,
		Stream:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Ollama API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Ollama API returned %d: %s", resp.StatusCode, string(body))
	}

	var chatResp OllamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode Ollama response: %w", err)
	}

	if chatResp.Message.Content == "" {
		return nil, ErrEmptyResponse
	}

	return &Message{
		Role:    chatResp.Message.Role,
		Content: chatResp.Message.Content,
	}, nil
}

// ModelName implements Adapter.ModelName
func (o *OllamaAdapter) ModelName() string {
	return o.config.Model
}

// Available implements Adapter.Available
func (o *OllamaAdapter) Available() bool {
	return o.config.Model != ""
}
