package llm

import (
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"formcheck/internal/config"
)

const defaultHTTPTimeout = 60 * time.Second

// NewOpenAI builds an OpenAI API client from configuration. BaseURL may point
// at any OpenAI-compatible endpoint.
func NewOpenAI(cfg config.OpenAI) *openai.Client {
	clientConfig := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientConfig.BaseURL = strings.TrimRight(base, "/")
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(clientConfig)
}

// Configured reports whether an API key is present.
func Configured(cfg config.OpenAI) bool {
	return strings.TrimSpace(cfg.APIKey) != ""
}
