package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// MockProvider is a test implementation of the Provider interface
type MockProvider struct {
	name          string
	reply         string
	responseDelay time.Duration
}

func NewMockProvider(name, reply string) *MockProvider {
	return &MockProvider{name: name, reply: reply}
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if m.responseDelay > 0 {
		select {
		case <-time.After(m.responseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return &ChatResponse{
		ID:       "mock-response-123",
		Model:    req.Model,
		Provider: m.name,
		Choices: []Choice{
			{
				Index:        0,
				Message:      Message{Role: RoleAssistant, Content: m.reply},
				FinishReason: "stop",
			},
		},
		Latency: m.responseDelay,
		Created: time.Now(),
	}, nil
}

func TestMockProviderSatisfiesInterface(t *testing.T) {
	var p Provider = NewMockProvider("mock", "hello")

	resp, err := p.ChatCompletion(context.Background(), &ChatRequest{Model: "m"})
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}
	if got := resp.Content(); got != "hello" {
		t.Errorf("Content() = %q, want %q", got, "hello")
	}
}

func TestMockProviderHonorsContext(t *testing.T) {
	p := NewMockProvider("mock", "slow")
	p.responseDelay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := p.ChatCompletion(ctx, &ChatRequest{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ChatCompletion() error = %v, want deadline exceeded", err)
	}
}

func TestChatResponseContent(t *testing.T) {
	var nilResp *ChatResponse
	if nilResp.Content() != "" {
		t.Error("nil response should have empty content")
	}
	if (&ChatResponse{}).Content() != "" {
		t.Error("response without choices should have empty content")
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("upstream 503")
	err := NewProviderError("openrouter", "HTTP_ERROR", "request failed", 503, true, cause)

	if err.Error() != "request failed: upstream 503" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("ProviderError should unwrap to its cause")
	}
	if !IsRetryable(fmt.Errorf("chat: %w", err)) {
		t.Error("wrapped retryable error should be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}

	noCause := NewProviderError("openrouter", "BAD", "bad request", 400, false, nil)
	if noCause.Error() != "bad request" {
		t.Errorf("Error() = %q", noCause.Error())
	}
}

func TestDefaultProviderConfig(t *testing.T) {
	cfg := DefaultProviderConfig()
	if cfg.MaxRetries != 3 || cfg.Timeout != 60*time.Second || cfg.Headers == nil {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
