package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/storefront/internal/testutil"
	"github.com/Sternrassler/storefront/pkg/intent"
	"github.com/rs/zerolog"
)

func testConfig(baseURL string) Config {
	logger := zerolog.Nop()
	return Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
		Retry: &RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			BackoffMultiplier: 2.0,
		},
		Logger: &logger,
	}
}

func TestNew_Registry(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
	}{
		{"openai", nil},
		{"anthropic", nil},
		{" OpenAI ", nil},
		{"mistral", ErrUnknownProvider},
		{"", ErrUnknownProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := New(tt.name, Config{APIKey: "k"})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("New(%q) error = %v, want %v", tt.name, err, tt.wantErr)
				}
				return
			}
			if err != nil || engine == nil {
				t.Errorf("New(%q) = %v, %v", tt.name, engine, err)
			}
		})
	}
}

func TestNames(t *testing.T) {
	if got := strings.Join(Names(), ","); got != "anthropic,openai" {
		t.Errorf("Names() = %q", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	if _, err := NewOpenAI(Config{}); err == nil {
		t.Error("NewOpenAI should require an api key")
	}

	o, err := NewOpenAI(Config{APIKey: "k", BaseURL: "http://localhost:1/"})
	if err != nil {
		t.Fatalf("NewOpenAI failed: %v", err)
	}
	if o.cfg.Model != OpenAIDefaultModel || o.cfg.BaseURL != "http://localhost:1" || o.cfg.MaxTokens != 1024 {
		t.Errorf("Unexpected defaults: %+v", o.cfg)
	}

	a, err := NewAnthropic(Config{APIKey: "k", Model: "custom"})
	if err != nil {
		t.Fatalf("NewAnthropic failed: %v", err)
	}
	if a.cfg.Model != "custom" || a.cfg.BaseURL != anthropicBaseURL {
		t.Errorf("Unexpected defaults: %+v", a.cfg)
	}
}

func TestTransport_RetriesServerErrors(t *testing.T) {
	mock := testutil.NewMockEngine()
	defer mock.Close()
	mock.SetSequence("/v1/chat/completions",
		testutil.NewServerErrorResponse(),
		testutil.NewRateLimitResponse(),
		testutil.NewJSONResponse(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`),
	)

	engine, err := NewOpenAI(testConfig(mock.URL()))
	if err != nil {
		t.Fatalf("NewOpenAI failed: %v", err)
	}

	got, err := engine.Complete(context.Background(), intent.Request{Messages: []intent.Message{{Role: intent.RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got.Text != "ok" {
		t.Errorf("Text = %q, want ok", got.Text)
	}
	if n := mock.GetRequestCount(); n != 3 {
		t.Errorf("Requests = %d, want 3", n)
	}
}

func TestTransport_RetryExhausted(t *testing.T) {
	mock := testutil.NewMockEngine()
	defer mock.Close()
	mock.SetResponse("/v1/messages", testutil.NewServerErrorResponse())

	engine, _ := NewAnthropic(testConfig(mock.URL()))
	_, err := engine.Complete(context.Background(), intent.Request{Messages: []intent.Message{{Role: intent.RoleUser, Content: "hi"}}})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Error = %v, want ErrRetryExhausted", err)
	}
	if n := mock.GetRequestCount(); n != 3 {
		t.Errorf("Requests = %d, want 3", n)
	}
}

func TestTransport_ClientErrorsAreNotRetried(t *testing.T) {
	mock := testutil.NewMockEngine()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testutil.NewBadRequestResponse("bad tool schema"))

	engine, _ := NewOpenAI(testConfig(mock.URL()))
	_, err := engine.Complete(context.Background(), intent.Request{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.ErrorClass != ErrorClassClient {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !strings.Contains(apiErr.Message, "bad tool schema") {
		t.Errorf("Message = %q, want provider message", apiErr.Message)
	}
	if n := mock.GetRequestCount(); n != 1 {
		t.Errorf("Requests = %d, want 1", n)
	}
}

func TestTransport_ContextCancelledDuringBackoff(t *testing.T) {
	mock := testutil.NewMockEngine()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testutil.NewServerErrorResponse())

	cfg := testConfig(mock.URL())
	cfg.Retry.InitialBackoff = time.Minute
	cfg.Retry.MaxBackoff = time.Minute
	engine, _ := NewOpenAI(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := engine.Complete(ctx, intent.Request{})
	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Error = %v, want ErrContextCancelled", err)
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{200, ""},
		{201, ""},
		{400, ErrorClassClient},
		{401, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{529, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  bool
	}{
		{ErrorClassClient, false},
		{ErrorClassServer, true},
		{ErrorClassRateLimit, true},
		{ErrorClassNetwork, true},
		{"", false},
	}

	for _, tt := range tests {
		if got := shouldRetry(tt.class); got != tt.want {
			t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestRetryConfigForErrorClass(t *testing.T) {
	if got := RetryConfigForErrorClass(ErrorClassRateLimit); got.InitialBackoff != time.Second {
		t.Errorf("Rate limit InitialBackoff = %v, want 1s", got.InitialBackoff)
	}
	if got := RetryConfigForErrorClass(ErrorClassNetwork); got.MaxAttempts != 2 {
		t.Errorf("Network MaxAttempts = %d, want 2", got.MaxAttempts)
	}
	if got := RetryConfigForErrorClass(ErrorClassServer); got != DefaultRetryConfig() {
		t.Errorf("Server config = %+v, want default", got)
	}
}

func TestAPIError(t *testing.T) {
	inner := errors.New("boom")
	err := &APIError{Provider: "openai", StatusCode: 500, ErrorClass: ErrorClassServer, Message: "oops", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("APIError should unwrap to its cause")
	}
	if got := err.Error(); got != "openai server error (status 500): oops: boom" {
		t.Errorf("Error() = %q", got)
	}
}
