package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OpenRouterProvider speaks the OpenAI-compatible chat API hosted by OpenRouter.
// SiteURL and AppName are sent as the attribution headers OpenRouter reads.
type OpenRouterProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	SiteURL string
	AppName string
	Client  *http.Client
}

type responseFormat struct {
	Type string `json:"type"`
}

type openRouterChatReq struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float32         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type openRouterChatResp struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenRouterProvider(baseURL, apiKey, model, siteURL, appName string) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		SiteURL: siteURL,
		AppName: appName,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *OpenRouterProvider) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	if strings.TrimSpace(p.APIKey) == "" {
		return "", errors.New("openrouter: api key is required")
	}
	model := strings.TrimSpace(p.Model)
	if model == "" {
		return "", errors.New("openrouter: model is required")
	}

	req := openRouterChatReq{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSON {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+p.APIKey)
	if p.SiteURL != "" {
		header.Set("HTTP-Referer", p.SiteURL)
	}
	if p.AppName != "" {
		header.Set("X-Title", p.AppName)
	}

	var resp openRouterChatResp
	url := strings.TrimRight(p.BaseURL, "/") + "/chat/completions"
	if err := postJSON(ctx, p.Client, url, header, req, &resp); err != nil {
		return "", fmt.Errorf("openrouter: %w", err)
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return "", errors.New("openrouter: " + resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openrouter: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
