package azure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1767225600,
  "model": "gpt-4o",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": %q}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

// scriptedServer answers chat completion calls with the given status codes in order
func scriptedServer(t *testing.T, content string, statuses ...int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1)) - 1
		status := http.StatusOK
		if n < len(statuses) {
			status = statuses[n]
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error": {"message": "scripted failure", "type": "server_error"}}`))
			return
		}
		_, _ = w.Write([]byte(fmt.Sprintf(completionBody, content)))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestClient(t *testing.T, endpoint string) *OpenAIClient {
	t.Helper()
	client, err := NewOpenAIClient(OpenAIConfig{
		Provider:  ProviderOpenAI,
		Endpoint:  endpoint,
		APIKey:    "test-key",
		Model:     "gpt-4o",
		BaseDelay: time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OpenAIConfig
		wantErr bool
	}{
		{
			name: "azure configuration",
			cfg:  OpenAIConfig{Provider: ProviderAzure, Endpoint: "https://test.openai.azure.com/", APIKey: "k", Model: "gpt-4o"},
		},
		{
			name: "provider defaults to azure",
			cfg:  OpenAIConfig{Endpoint: "https://test.openai.azure.com/", APIKey: "k", Model: "gpt-4o"},
		},
		{
			name: "openai without endpoint",
			cfg:  OpenAIConfig{Provider: ProviderOpenAI, APIKey: "k", Model: "gpt-4o-mini"},
		},
		{
			name:    "azure without endpoint",
			cfg:     OpenAIConfig{Provider: ProviderAzure, APIKey: "k", Model: "gpt-4o"},
			wantErr: true,
		},
		{
			name:    "missing api key",
			cfg:     OpenAIConfig{Provider: ProviderOpenAI, Model: "gpt-4o"},
			wantErr: true,
		},
		{
			name:    "missing model",
			cfg:     OpenAIConfig{Provider: ProviderOpenAI, APIKey: "k"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     OpenAIConfig{Provider: "bedrock", APIKey: "k", Model: "m"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewOpenAIClient(tt.cfg, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Model, client.model)
			assert.Equal(t, 3, client.maxRetries)
			assert.Equal(t, time.Second, client.baseDelay)
		})
	}
}

func TestOpenAIClient_isRetryable(t *testing.T) {
	client := &OpenAIClient{logger: zap.NewNop(), maxRetries: 3, baseDelay: time.Second}
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "authentication error", err: errors.New("authentication failed"), want: false},
		{name: "unauthorized error", err: errors.New("unauthorized access"), want: false},
		{name: "401 error", err: errors.New("status code 401"), want: false},
		{name: "invalid request error", err: errors.New("invalid request format"), want: false},
		{name: "bad request error", err: errors.New("bad request"), want: false},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "rate limit error", err: errors.New("rate limit exceeded"), want: true},
		{name: "timeout error", err: errors.New("request timeout"), want: true},
		{name: "network error", err: errors.New("network connection failed"), want: true},
		{name: "500 error", err: errors.New("status code 500"), want: true},
		{name: "empty answer", err: ErrEmptyResponse, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, client.isRetryable(ctx, tt.err))
		})
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.False(t, client.isRetryable(cancelled, errors.New("network connection failed")))
}

func TestOpenAIClient_Complete(t *testing.T) {
	server, calls := scriptedServer(t, "Keep the easy runs easy.")
	client := newTestClient(t, server.URL)

	got, err := client.Complete(context.Background(), []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You are a running coach."),
		openai.UserMessage("How slow is easy?"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Keep the easy runs easy.", got)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestOpenAIClient_Complete_RetriesServerErrors(t *testing.T) {
	server, calls := scriptedServer(t, "ok", http.StatusInternalServerError, http.StatusTooManyRequests)
	client := newTestClient(t, server.URL)

	got, err := client.Complete(context.Background(), []openai.ChatCompletionMessageParamUnion{openai.UserMessage("hi")})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestOpenAIClient_Complete_DoesNotRetryAuthErrors(t *testing.T) {
	server, calls := scriptedServer(t, "never", http.StatusUnauthorized, http.StatusUnauthorized)
	client := newTestClient(t, server.URL)

	_, err := client.Complete(context.Background(), []openai.ChatCompletionMessageParamUnion{openai.UserMessage("hi")})

	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestOpenAIClient_Complete_GivesUpAfterMaxRetries(t *testing.T) {
	server, calls := scriptedServer(t, "",
		http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway, http.StatusBadGateway)
	client := newTestClient(t, server.URL)

	_, err := client.Complete(context.Background(), []openai.ChatCompletionMessageParamUnion{openai.UserMessage("hi")})

	require.Error(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))
}

func TestOpenAIClient_Complete_EmptyContent(t *testing.T) {
	server, _ := scriptedServer(t, "   ")
	client := newTestClient(t, server.URL)

	_, err := client.Complete(context.Background(), []openai.ChatCompletionMessageParamUnion{openai.UserMessage("hi")})

	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIClient_Complete_ContextCancellation(t *testing.T) {
	server, _ := scriptedServer(t, "ok")
	client := newTestClient(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, []openai.ChatCompletionMessageParamUnion{openai.UserMessage("hi")})
	assert.Error(t, err)
}
