// Package openaicompat adapts OpenAI-compatible chat completion endpoints to
// the ADK model.LLM interface.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	maxErrorBody   = 4096
)

// Config for an OpenAI-compatible provider.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// Limiter throttles outbound calls. Optional; may be shared across models.
	Limiter *rate.Limiter
	// HTTPClient overrides the default client. Optional.
	HTTPClient *http.Client
}

// Model adapts a chat completion API to the ADK model.LLM interface.
type Model struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
}

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm provider returned status %d: %s", e.StatusCode, e.Body)
}

func NewModel(cfg Config) *Model {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Model{
		config:  cfg,
		client:  client,
		limiter: cfg.Limiter,
	}
}

func (m *Model) Name() string {
	return m.config.Model
}

// GenerateContent adapts ADK requests to the chat completions API. Streaming
// is not supported; a single response is yielded.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string              `json:"type"`
	JSONSchema *responseJSONSchema `json:"json_schema,omitempty"`
}

type responseJSONSchema struct {
	Name   string `json:"name"`
	Schema any    `json:"schema"`
	Strict bool   `json:"strict"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int32           `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int32 `json:"prompt_tokens"`
		CompletionTokens int32 `json:"completion_tokens"`
		TotalTokens      int32 `json:"total_tokens"`
	} `json:"usage"`
	Error interface{} `json:"error"`
}

func (m *Model) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("llm request is nil")
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("llm rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(m.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("llm api error: %v", result.Error)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("llm api error: empty choices")
	}

	choice := result.Choices[0]
	parts := make([]*genai.Part, 0, 1)
	if strings.TrimSpace(choice.Message.Content) != "" {
		parts = append(parts, genai.NewPartFromText(choice.Message.Content))
	}

	return &model.LLMResponse{
		Content: &genai.Content{
			Role:  "model",
			Parts: parts,
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     result.Usage.PromptTokens,
			CandidatesTokenCount: result.Usage.CompletionTokens,
			TotalTokenCount:      result.Usage.TotalTokens,
		},
		TurnComplete: true,
	}, nil
}

func (m *Model) buildRequest(req *model.LLMRequest) chatRequest {
	out := chatRequest{
		Model:    m.config.Model,
		Messages: make([]chatMessage, 0, len(req.Contents)+1),
	}

	cfg := req.Config
	if cfg != nil && cfg.SystemInstruction != nil {
		if text := contentText(cfg.SystemInstruction); text != "" {
			out.Messages = append(out.Messages, chatMessage{Role: "system", Content: text})
		}
	}
	out.Messages = append(out.Messages, convertMessages(req.Contents)...)

	if cfg == nil {
		return out
	}
	if cfg.Temperature != nil {
		t := float64(*cfg.Temperature)
		out.Temperature = &t
	}
	if cfg.MaxOutputTokens > 0 {
		out.MaxTokens = cfg.MaxOutputTokens
	}
	switch {
	case cfg.ResponseJsonSchema != nil:
		out.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &responseJSONSchema{
				Name:   "response",
				Schema: cfg.ResponseJsonSchema,
				Strict: true,
			},
		}
	case cfg.ResponseMIMEType == "application/json":
		out.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	return out
}

func convertMessages(contents []*genai.Content) []chatMessage {
	messages := make([]chatMessage, 0, len(contents))
	for _, content := range contents {
		if content == nil {
			continue
		}
		text := contentText(content)
		if text == "" {
			continue
		}
		messages = append(messages, chatMessage{
			Role:    roleForContent(string(content.Role)),
			Content: text,
		})
	}
	return messages
}

func roleForContent(role string) string {
	if role == "model" {
		return "assistant"
	}
	return "user"
}

func contentText(content *genai.Content) string {
	var builder strings.Builder
	for _, part := range content.Parts {
		if part == nil || strings.TrimSpace(part.Text) == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(part.Text)
	}
	return strings.TrimSpace(builder.String())
}

var _ model.LLM = (*Model)(nil)
