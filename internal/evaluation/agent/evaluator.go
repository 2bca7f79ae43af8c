// Package agent calls the evaluation model and turns its output into a
// validated, tagged result.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"crm_messaging_backend/internal/evaluation/prompt"
	"crm_messaging_backend/platform/ai/openaicompat"
	"crm_messaging_backend/platform/logger"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	temperature     = float32(0.1)
	maxOutputTokens = int32(1000)
)

// ResponseSchema is the JSON schema the model is asked to follow.
var ResponseSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		fieldScorePotencial:    map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
		fieldScoreSatisfaccion: map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
		fieldInteresProductos:  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		fieldComentario:        map[string]any{"type": "string"},
		fieldPalabrasClave:     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required": []string{
		fieldScorePotencial,
		fieldScoreSatisfaccion,
		fieldInteresProductos,
		fieldComentario,
		fieldPalabrasClave,
	},
	"additionalProperties": false,
}

// ModelFactory builds a model for tenant-specific settings.
type ModelFactory func(settings Settings) model.LLM

// Evaluator runs the evaluation prompt against the configured model.
type Evaluator struct {
	defaultModel model.LLM
	factory      ModelFactory
	log          *logger.Logger

	mu     sync.Mutex
	models map[string]model.LLM
}

// NewEvaluator returns an evaluator using defaultModel unless a tenant
// override is supplied and factory is non-nil.
func NewEvaluator(defaultModel model.LLM, factory ModelFactory, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Evaluator{
		defaultModel: defaultModel,
		factory:      factory,
		log:          log,
		models:       make(map[string]model.LLM),
	}
}

// Evaluate sends promptText to the model. Transport and provider errors are
// returned; malformed output never is, it is reported through the outcome's
// status instead.
func (e *Evaluator) Evaluate(ctx context.Context, promptText string, settings Settings) (Outcome, error) {
	llm := e.modelFor(settings)
	if llm == nil {
		return Outcome{}, fmt.Errorf("no evaluation model configured")
	}

	temp := temperature
	req := &model.LLMRequest{
		Contents: []*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(promptText)},
		}},
		Config: &genai.GenerateContentConfig{
			SystemInstruction:  &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(prompt.SystemInstruction)}},
			Temperature:        &temp,
			MaxOutputTokens:    maxOutputTokens,
			ResponseMIMEType:   "application/json",
			ResponseJsonSchema: ResponseSchema,
		},
	}

	started := time.Now()
	var text strings.Builder
	var tokens int32
	for resp, err := range llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return Outcome{}, fmt.Errorf("evaluation model call: %w", err)
		}
		text.WriteString(responseText(resp))
		if resp != nil && resp.UsageMetadata != nil {
			tokens += resp.UsageMetadata.TotalTokenCount
		}
	}
	e.log.ModelCall(llm.Name(), tokens, time.Since(started))

	outcome := ParseOutput(text.String())
	outcome.Model = llm.Name()
	if outcome.Degraded() {
		e.log.Warn("evaluation output degraded",
			"status", string(outcome.Status),
			"model", outcome.Model,
			"defaulted", outcome.Defaulted,
			"parse_error", errString(outcome.ParseErr),
		)
	}
	return outcome, nil
}

func (e *Evaluator) modelFor(settings Settings) model.LLM {
	if e.factory == nil || !settings.isOverride() {
		return e.defaultModel
	}

	key := settings.Model + "|" + settings.BaseURL + "|" + settings.APIKey
	if settings.ConfigID != nil {
		key = settings.ConfigID.String() + "|" + key
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if m, ok := e.models[key]; ok {
		return m
	}
	m := e.factory(settings)
	if m == nil {
		return e.defaultModel
	}
	e.models[key] = m
	return m
}

// OpenAICompatFactory builds tenant models on top of the process defaults in
// base. Empty override fields keep the base value; the limiter is shared.
func OpenAICompatFactory(base openaicompat.Config) ModelFactory {
	return func(settings Settings) model.LLM {
		cfg := base
		if settings.Model != "" {
			cfg.Model = settings.Model
		}
		if settings.APIKey != "" {
			cfg.APIKey = settings.APIKey
		}
		if settings.BaseURL != "" {
			cfg.BaseURL = settings.BaseURL
		}
		return openaicompat.NewModel(cfg)
	}
}

func responseText(resp *model.LLMResponse) string {
	if resp == nil || resp.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Content.Parts {
		if part == nil {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
