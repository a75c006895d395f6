package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.TimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.timeout_seconds",
			Message: "timeout_seconds must be positive",
		})
	}

	// Validate Chunker config
	if c.Chunker.MaxChunkChars < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunker.max_chunk_chars",
			Message: "max_chunk_chars must be positive",
		})
	}

	if c.Chunker.ChunkThreshold < c.Chunker.MaxChunkChars {
		errors = append(errors, ValidationError{
			Field:   "chunker.chunk_threshold",
			Message: "chunk_threshold must be at least max_chunk_chars",
		})
	}

	// Validate Orchestrator config
	if c.Orchestrator.Workers < 1 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.workers",
			Message: "workers must be positive",
		})
	}

	if c.Orchestrator.RetryCount < 0 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.retry_count",
			Message: "retry_count cannot be negative",
		})
	}

	if c.Orchestrator.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "orchestrator.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate FAQ config
	if c.FAQ.Questions < 3 || c.FAQ.Questions > 10 {
		errors = append(errors, ValidationError{
			Field:   "faq.questions",
			Message: "questions must be between 3 and 10",
		})
	}

	if c.FAQ.MaxChars < 1 {
		errors = append(errors, ValidationError{
			Field:   "faq.max_chars",
			Message: "max_chars must be positive",
		})
	}

	// Validate Fetch config
	if c.Fetch.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "fetch.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	return errors
}
