package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("status: %s, code: %d, error: %s", e.Status, e.StatusCode, e.ErrorMessage)
}

// Model is a generic model container that uses a function variable for the
// provider-specific call logic.
type Model struct {
	ModelName string
	APIKey    string
	BaseURL   string
	client    *http.Client

	// callFunc is the implementation for each provider
	callFunc func(ctx context.Context, model *Model, messages []Message) (AIMessage, error)

	// Option pointer variables - nil means option not set
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// Call makes a single call to the model and returns the assistant response.
func (m *Model) Call(ctx context.Context, messages []Message) (AIMessage, error) {
	if m.callFunc == nil {
		return AIMessage{}, fmt.Errorf("model %s has no provider call configured", m.ModelName)
	}
	return m.callFunc(ctx, m, messages)
}

func (m *Model) httpClient() *http.Client {
	if m.client == nil {
		m.client = &http.Client{Timeout: 10 * time.Minute}
	}
	return m.client
}
