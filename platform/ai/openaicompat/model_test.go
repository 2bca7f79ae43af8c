package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func TestGenerateContentSendsJSONModeAndSamplingSettings(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}],"usage":{"prompt_tokens":10,"completion_tokens":3,"total_tokens":13}}`))
	}))
	defer srv.Close()

	m := NewModel(Config{APIKey: "secret", BaseURL: srv.URL + "/", Model: "test-model"})
	temp := float32(0.1)
	req := &model.LLMRequest{
		Contents: []*genai.Content{{Role: "user", Parts: []*genai.Part{genai.NewPartFromText("evalúa esto")}}},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText("eres un evaluador")}},
			Temperature:       &temp,
			MaxOutputTokens:   1000,
			ResponseMIMEType:  "application/json",
		},
	}

	var resp *model.LLMResponse
	for r, err := range m.GenerateContent(context.Background(), req, false) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp = r
	}

	if captured.Model != "test-model" {
		t.Fatalf("expected model test-model, got %q", captured.Model)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
	if captured.Temperature == nil || *captured.Temperature < 0.09 || *captured.Temperature > 0.11 {
		t.Fatalf("expected temperature 0.1, got %v", captured.Temperature)
	}
	if captured.MaxTokens != 1000 {
		t.Fatalf("expected max_tokens 1000, got %d", captured.MaxTokens)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", captured.ResponseFormat)
	}
	if resp == nil || resp.Content == nil || len(resp.Content.Parts) != 1 || resp.Content.Parts[0].Text != `{"ok":true}` {
		t.Fatalf("unexpected response content: %+v", resp)
	}
	if resp.UsageMetadata == nil || resp.UsageMetadata.TotalTokenCount != 13 {
		t.Fatalf("expected usage metadata to be mapped")
	}
}

func TestGenerateContentReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer srv.Close()

	m := NewModel(Config{APIKey: "k", BaseURL: srv.URL})
	var gotErr error
	for _, err := range m.GenerateContent(context.Background(), &model.LLMRequest{}, false) {
		gotErr = err
	}

	var statusErr *StatusError
	if !errors.As(gotErr, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", gotErr)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", statusErr.StatusCode)
	}
}

func TestBuildRequestPrefersJSONSchemaOverMIMEType(t *testing.T) {
	m := NewModel(Config{})
	schema := map[string]any{"type": "object"}
	out := m.buildRequest(&model.LLMRequest{
		Config: &genai.GenerateContentConfig{
			ResponseMIMEType:   "application/json",
			ResponseJsonSchema: schema,
		},
	})
	if out.ResponseFormat == nil || out.ResponseFormat.Type != "json_schema" || out.ResponseFormat.JSONSchema == nil {
		t.Fatalf("expected json_schema response format, got %+v", out.ResponseFormat)
	}
	if out.Model != defaultModel {
		t.Fatalf("expected default model %q, got %q", defaultModel, out.Model)
	}
}
