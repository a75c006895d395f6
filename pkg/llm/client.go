package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// ClientConfig represents the configuration for the generation client.
type ClientConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string // Ollama server URL
	Timeout     time.Duration
}

// Client sends prompts to a local Ollama server and returns the
// generated text.
type Client struct {
	config ClientConfig
	llm    llms.Model
}

// NewWithConfig creates a new Client with the given configuration.
func NewWithConfig(config ClientConfig) (*Client, error) {
	// Validate and set default values for config fields if necessary
	if config.Model == "" {
		config.Model = "mistral" // Default Ollama model
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}
	if config.Timeout == 0 {
		// Local models can be slow on large prompts; the budget is
		// deliberately generous.
		config.Timeout = 1000 * time.Second
	}

	model, err := ollama.New(ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Client{
		config: config,
		llm:    model,
	}, nil
}

// Generate runs one model call for the given prompt. Failures are
// classified so callers can tell a timeout from an unreachable server.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	response, err := c.llm.GenerateContent(ctx, content,
		llms.WithTemperature(c.config.Temperature),
		llms.WithMaxTokens(c.config.MaxTokens),
	)
	if err != nil {
		return "", classify(err)
	}

	if response == nil || len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from model %q", c.config.Model)
	}

	return response.Choices[0].Content, nil
}
