package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ChatCompleter is the part of the OpenAI client used by the analysis
// service. *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type AIConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	Language string
}

var errAIDisabled = errors.New("AI provider is not configured")

// NewOpenAIClient returns nil when no API key is configured; the analysis
// service then reports every AI call as an upstream failure.
func NewOpenAIClient(cfg AIConfig, httpClient *http.Client) *openai.Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		oc.BaseURL = normalizeOpenAIBase(base)
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}
	return openai.NewClientWithConfig(oc)
}

// normalizeOpenAIBase accepts a bare host, a /v1 base or a full
// chat completions URL and returns the /v1 base the client expects.
func normalizeOpenAIBase(base string) string {
	endpoint := strings.TrimRight(strings.TrimSpace(base), "/")
	endpoint = strings.TrimSuffix(endpoint, "/chat/completions")
	if !strings.HasSuffix(endpoint, "/v1") {
		endpoint += "/v1"
	}
	return endpoint
}
