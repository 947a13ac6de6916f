package azure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"

	defaultAzureAPIVersion = "2024-08-01-preview"
)

// ErrEmptyResponse is returned when the model answers without any content
var ErrEmptyResponse = errors.New("empty content in response")

// OpenAIConfig selects the chat completion backend
type OpenAIConfig struct {
	Provider    string // "azure" or "openai"
	Endpoint    string // required for azure, optional base URL override for openai
	APIKey      string
	Model       string // deployment name on azure
	APIVersion  string
	Temperature float64
	MaxRetries  int
	BaseDelay   time.Duration
}

// OpenAIClient wraps the openai-go SDK with retry logic and logging
type OpenAIClient struct {
	client      *openai.Client
	model       string
	provider    string
	temperature float64
	logger      *zap.Logger
	maxRetries  int
	baseDelay   time.Duration
}

// NewOpenAIClient creates a chat completion client for Azure OpenAI or the public OpenAI API
func NewOpenAIClient(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, fmt.Errorf("apiKey and model are required")
	}

	// SDK level retries are disabled, Complete does its own backoff
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	switch strings.ToLower(cfg.Provider) {
	case ProviderAzure, "":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("endpoint is required for the azure provider")
		}
		version := cfg.APIVersion
		if version == "" {
			version = defaultAzureAPIVersion
		}
		opts = append(opts,
			azure.WithEndpoint(cfg.Endpoint, version),
			azure.WithAPIKey(cfg.APIKey),
		)
	case ProviderOpenAI:
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
		if cfg.Endpoint != "" {
			opts = append(opts, option.WithBaseURL(cfg.Endpoint))
		}
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	client := openai.NewClient(opts...)

	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = ProviderAzure
	}

	return &OpenAIClient{
		client:      &client,
		model:       cfg.Model,
		provider:    provider,
		temperature: cfg.Temperature,
		logger:      logger,
		maxRetries:  maxRetries,
		baseDelay:   baseDelay,
	}, nil
}

// Complete sends a chat completion request with retry logic
func (c *OpenAIClient) Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	startTime := time.Now()
	var lastErr error

	attempts := 0
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.baseDelay * time.Duration(1<<uint(attempt-1))
			c.logger.Info("retrying chat completion",
				zap.String("provider", c.provider),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("chat completion cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		attempts++
		result, err := c.complete(ctx, messages)
		if err == nil {
			c.logger.Info("chat completion finished",
				zap.String("provider", c.provider),
				zap.Duration("processing_time", time.Since(startTime)),
				zap.Int("attempts", attempts),
			)
			return result, nil
		}

		lastErr = err
		if !c.isRetryable(ctx, err) {
			c.logger.Error("non-retryable chat completion error",
				zap.Error(err),
				zap.Int("attempt", attempts),
			)
			break
		}

		c.logger.Warn("chat completion failed, will retry",
			zap.Error(err),
			zap.Int("attempt", attempts),
		)
	}

	c.logger.Error("chat completion failed",
		zap.Error(lastErr),
		zap.Duration("total_time", time.Since(startTime)),
		zap.Int("attempts", attempts),
	)

	return "", fmt.Errorf("chat completion failed after %d attempts: %w", attempts, lastErr)
}

// complete performs a single chat completion request
func (c *OpenAIClient) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	requestStart := time.Now()

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: messages,
	}
	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Info("chat completion token usage",
		zap.String("model", c.model),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("request_time", time.Since(requestStart)),
	)

	return content, nil
}

// isRetryable determines if an error should trigger a retry.
// Authentication failures, invalid requests and cancelled contexts never do.
func (c *OpenAIClient) isRetryable(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429, apiErr.StatusCode >= 500:
			return true
		default:
			return false
		}
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "authentication") || strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "401") {
		return false
	}
	if strings.Contains(errStr, "invalid") || strings.Contains(errStr, "bad request") || strings.Contains(errStr, "400") {
		return false
	}

	// rate limits, timeouts, network errors and empty answers
	return true
}
