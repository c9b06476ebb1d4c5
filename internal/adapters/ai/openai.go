package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/avolkov/tickerscout/internal/adapters/config"
	"github.com/avolkov/tickerscout/pkg/logger"
)

const openaiAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIProvider implements the completion provider for OpenAI
type OpenAIProvider struct {
	apiKey    string
	model     string
	maxTokens int
	enabled   bool
	baseURL   string
	client    *http.Client
}

// NewOpenAIProvider creates new OpenAI provider
func NewOpenAIProvider(cfg *config.AIProviderConfig) *OpenAIProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIProvider{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		enabled:   cfg.Enabled && cfg.APIKey != "",
		baseURL:   openaiAPIURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (o *OpenAIProvider) GetName() string {
	return "openai"
}

func (o *OpenAIProvider) IsEnabled() bool {
	return o.enabled
}

func (o *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": 0.7,
		"max_tokens":  o.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", o.apiKey))

	startTime := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return "", &BackendError{Provider: o.GetName(), Err: err}
	}
	defer resp.Body.Close()

	latency := time.Since(startTime)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &BackendError{
			Provider:   o.GetName(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("API error: %s", string(body)),
		}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &BackendError{Provider: o.GetName(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if len(result.Choices) == 0 {
		return "", &BackendError{Provider: o.GetName(), Err: fmt.Errorf("no choices in response")}
	}

	content := result.Choices[0].Message.Content

	logger.Debug("OpenAI response",
		zap.Duration("latency", latency),
		zap.Int("chars", len(content)),
	)

	return content, nil
}
