package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAI-compatible chat completion types. This driver works against any
// endpoint speaking the /v1/chat/completions protocol, including Ollama.

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIModel creates a model backed by an OpenAI-compatible chat
// completions endpoint. baseURL should include the scheme and host, e.g.
// "http://localhost:11434/v1".
func NewOpenAIModel(modelName, apiKey, baseURL string) *Model {
	return &Model{
		ModelName: modelName,
		APIKey:    apiKey,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 10 * time.Minute},
		callFunc:  callChatAPI,
	}
}

func callChatAPI(ctx context.Context, model *Model, messages []Message) (AIMessage, error) {
	req := chatCompletionRequest{
		Model:       model.ModelName,
		Temperature: model.Temperature,
		MaxTokens:   model.MaxTokens,
		TopP:        model.TopP,
	}
	for _, m := range messages {
		role, content := m.Value()
		req.Messages = append(req.Messages, chatMessage{Role: string(role), Content: content})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return AIMessage{}, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := model.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return AIMessage{}, fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if model.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+model.APIKey)
	}

	resp, err := model.httpClient().Do(httpReq)
	if err != nil {
		return AIMessage{}, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return AIMessage{}, fmt.Errorf("failed to read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return AIMessage{}, StatusError{
			StatusCode:   resp.StatusCode,
			Status:       resp.Status,
			ErrorMessage: strings.TrimSpace(string(respBody)),
		}
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return AIMessage{}, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if chatResp.Error != nil {
		return AIMessage{}, fmt.Errorf("model error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return AIMessage{}, fmt.Errorf("chat response contained no choices")
	}

	return AIMessage{
		Role:    AssistantRole,
		Content: chatResp.Choices[0].Message.Content,
		Usage:   chatResp.Usage,
	}, nil
}
