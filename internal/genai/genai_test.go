package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp   openai.ChatCompletion
	err    error
	params openai.ChatCompletionNewParams
}

func (m *mockChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	m.params = params
	return m.resp, m.err
}

func completion(content string) openai.ChatCompletion {
	return openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestGeneratePrompt_Success(t *testing.T) {
	mock := &mockChatService{resp: completion("Hello World")}
	client := &Client{chat: mock, model: "test-model"}
	out, err := client.GeneratePrompt(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello World" {
		t.Errorf("expected 'Hello World', got '%s'", out)
	}
	if len(mock.params.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(mock.params.Messages))
	}
	if mock.params.Model != "test-model" {
		t.Errorf("expected model test-model, got %q", mock.params.Model)
	}
}

func TestGeneratePrompt_ServiceError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("service failure")}}
	_, err := client.GeneratePrompt(context.Background(), "sys", "usr")
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestGeneratePrompt_NoChoices(t *testing.T) {
	client := &Client{chat: &mockChatService{resp: openai.ChatCompletion{}}}
	_, err := client.GeneratePrompt(context.Background(), "sys", "usr")
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected no choices returned error, got %v", err)
	}
}

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient()
	if err == nil {
		t.Error("expected error when API key not provided, got nil")
	}
}

func TestNewClient_WithKey(t *testing.T) {
	cli, err := NewClient(WithAPIKey("test-key"), WithModel("gpt-test"))
	if err != nil {
		t.Fatalf("expected no error with API key, got %v", err)
	}
	if cli.model != "gpt-test" {
		t.Errorf("expected model gpt-test, got %q", cli.model)
	}
	if cli.timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", cli.timeout)
	}
}

func TestTipSource(t *testing.T) {
	mock := &mockChatService{resp: completion("1. Drink a glass of water\n\n- 8 hours of sleep\n• Walk after school\nStretch")}
	src := NewTipSource(&Client{chat: mock})

	tips, err := src.Tips(context.Background(), "body")
	if err != nil {
		t.Fatalf("Tips: %v", err)
	}
	want := []string{"Drink a glass of water", "8 hours of sleep", "Walk after school"}
	if len(tips) != len(want) {
		t.Fatalf("expected %d tips, got %v", len(want), tips)
	}
	for i := range want {
		if tips[i] != want[i] {
			t.Errorf("tip %d = %q, want %q", i, tips[i], want[i])
		}
	}
}

func TestTipSourceErrors(t *testing.T) {
	src := NewTipSource(&Client{chat: &mockChatService{resp: completion("  \n ")}})
	if _, err := src.Tips(context.Background(), "body"); err == nil {
		t.Error("expected error for empty answer")
	}
	if _, err := src.Tips(context.Background(), "astrology"); err == nil {
		t.Error("expected error for unknown topic")
	}

	failing := NewTipSource(&Client{chat: &mockChatService{err: errors.New("rate limited")}})
	if _, err := failing.Tips(context.Background(), "soft_skills"); err == nil {
		t.Error("expected error from failing service")
	}
}
