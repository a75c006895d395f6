package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL        string  `yaml:"base_url"`
		Model          string  `yaml:"model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float64 `yaml:"temperature"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"llm"`

	Chunker struct {
		MaxChunkChars  int `yaml:"max_chunk_chars"`
		ChunkThreshold int `yaml:"chunk_threshold"`
	} `yaml:"chunker"`

	Orchestrator struct {
		Workers        int     `yaml:"workers"`
		RetryCount     int     `yaml:"retry_count"`
		RetryBackoffMS int     `yaml:"retry_backoff_ms"`
		RateLimit      float64 `yaml:"rate_limit"`
	} `yaml:"orchestrator"`

	FAQ struct {
		Questions int `yaml:"questions"`
		MaxChars  int `yaml:"max_chars"`
	} `yaml:"faq"`

	Fetch struct {
		RateLimit      float64 `yaml:"rate_limit"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"fetch"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/brief/config.yaml"),
			"/etc/brief/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.TimeoutSeconds == 0 {
		config.LLM.TimeoutSeconds = 1000
	}

	if config.Chunker.MaxChunkChars == 0 {
		config.Chunker.MaxChunkChars = 2500
	}
	if config.Chunker.ChunkThreshold == 0 {
		config.Chunker.ChunkThreshold = 3000
	}

	if config.Orchestrator.Workers == 0 {
		config.Orchestrator.Workers = 1
	}
	if config.Orchestrator.RetryCount == 0 {
		config.Orchestrator.RetryCount = 2
	}
	if config.Orchestrator.RetryBackoffMS == 0 {
		config.Orchestrator.RetryBackoffMS = 500
	}
	if config.Orchestrator.RateLimit == 0 {
		config.Orchestrator.RateLimit = 2.0
	}

	if config.FAQ.Questions == 0 {
		config.FAQ.Questions = 5
	}
	if config.FAQ.MaxChars == 0 {
		config.FAQ.MaxChars = 10000
	}

	if config.Fetch.RateLimit == 0 {
		config.Fetch.RateLimit = 2.0
	}
	if config.Fetch.TimeoutSeconds == 0 {
		config.Fetch.TimeoutSeconds = 30
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
}
