package agent

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/google/uuid"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

type fakeLLM struct {
	name  string
	text  string
	err   error
	calls int
	last  *model.LLMRequest
}

func (f *fakeLLM) Name() string { return f.name }

func (f *fakeLLM) GenerateContent(_ context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	f.calls++
	f.last = req
	return func(yield func(*model.LLMResponse, error) bool) {
		if f.err != nil {
			yield(nil, f.err)
			return
		}
		yield(&model.LLMResponse{Content: &genai.Content{Role: "model", Parts: []*genai.Part{genai.NewPartFromText(f.text)}}}, nil)
	}
}

func TestEvaluateParsesWellFormedOutput(t *testing.T) {
	llm := &fakeLLM{name: "default", text: `{"score_potencial": 9, "score_satisfaccion": 8, "interes_productos": ["Ingeniería de Software", "ingeniería de software"], "comentario": " muy interesado ", "palabras_clave": ["precio", "matrícula"]}`}
	out, err := NewEvaluator(llm, nil, nil).Evaluate(context.Background(), "prompt", Settings{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusParsed || out.Degraded() {
		t.Fatalf("expected parsed outcome, got %s", out.Status)
	}
	e := out.Evaluation
	if e.ScorePotencial != 9 || e.ScoreSatisfaccion != 8 {
		t.Fatalf("unexpected scores: %+v", e)
	}
	if len(e.InteresProductos) != 1 || e.InteresProductos[0] != "Ingeniería de Software" {
		t.Fatalf("expected de-duplicated products, got %v", e.InteresProductos)
	}
	if e.Comentario != "muy interesado" || len(e.PalabrasClave) != 2 {
		t.Fatalf("unexpected evaluation: %+v", e)
	}
	if out.Model != "default" {
		t.Fatalf("expected model name recorded, got %q", out.Model)
	}
}

func TestEvaluateSendsStructuredRequest(t *testing.T) {
	llm := &fakeLLM{text: `{}`}
	if _, err := NewEvaluator(llm, nil, nil).Evaluate(context.Background(), "evalúa", Settings{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := llm.last.Config
	if cfg == nil || cfg.Temperature == nil || *cfg.Temperature != temperature {
		t.Fatalf("expected temperature %v", temperature)
	}
	if cfg.MaxOutputTokens != 1000 || cfg.ResponseMIMEType != "application/json" || cfg.ResponseJsonSchema == nil {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.SystemInstruction == nil || len(llm.last.Contents) != 1 || llm.last.Contents[0].Parts[0].Text != "evalúa" {
		t.Fatalf("unexpected request contents")
	}
}

func TestEvaluateReturnsTransportErrors(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection reset")}
	if _, err := NewEvaluator(llm, nil, nil).Evaluate(context.Background(), "p", Settings{}); err == nil {
		t.Fatalf("expected transport error")
	}
	if _, err := NewEvaluator(nil, nil, nil).Evaluate(context.Background(), "p", Settings{}); err == nil {
		t.Fatalf("expected error without a model")
	}
}

func TestEvaluateUsesTenantModelOverride(t *testing.T) {
	fallback := &fakeLLM{name: "default", text: `{}`}
	tenant := &fakeLLM{name: "tenant", text: `{}`}
	built := 0
	factory := func(s Settings) model.LLM {
		built++
		if s.Model != "gpt-tenant" {
			t.Errorf("unexpected settings: %+v", s)
		}
		return tenant
	}
	ev := NewEvaluator(fallback, factory, nil)
	id := uuid.New()
	settings := Settings{ConfigID: &id, Model: "gpt-tenant", APIKey: "k"}

	for range 2 {
		out, err := ev.Evaluate(context.Background(), "p", settings)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Model != "tenant" {
			t.Fatalf("expected tenant model, got %q", out.Model)
		}
	}
	if built != 1 {
		t.Fatalf("expected tenant model to be reused, built %d", built)
	}
	if fallback.calls != 0 {
		t.Fatalf("default model must not be called")
	}
}

func TestParseOutputMissingScoreIsPartial(t *testing.T) {
	out := ParseOutput(`{"score_satisfaccion": 7, "interes_productos": [], "comentario": "ok", "palabras_clave": ["precio"]}`)
	if out.Status != StatusPartial {
		t.Fatalf("expected partial, got %s", out.Status)
	}
	if out.Evaluation.ScorePotencial != NeutralScore || out.Evaluation.ScoreSatisfaccion != 7 {
		t.Fatalf("unexpected scores: %+v", out.Evaluation)
	}
	if len(out.Defaulted) != 1 || out.Defaulted[0] != fieldScorePotencial {
		t.Fatalf("expected score_potencial defaulted, got %v", out.Defaulted)
	}
}

func TestParseOutputClampsAndRounds(t *testing.T) {
	out := ParseOutput("```json\n{\"score_potencial\": 14, \"score_satisfaccion\": \"0.4\", \"interes_productos\": [\"a\", 3, \"\"], \"comentario\": \"c\", \"palabras_clave\": []}\n```")
	if out.Status != StatusParsed {
		t.Fatalf("expected parsed, got %s (%v)", out.Status, out.ParseErr)
	}
	if out.Evaluation.ScorePotencial != 10 || out.Evaluation.ScoreSatisfaccion != 1 {
		t.Fatalf("expected clamped scores, got %+v", out.Evaluation)
	}
	if len(out.Clamped) != 2 {
		t.Fatalf("expected both scores reported as clamped, got %v", out.Clamped)
	}
	if len(out.Evaluation.InteresProductos) != 1 || out.Evaluation.InteresProductos[0] != "a" {
		t.Fatalf("expected non-string items dropped, got %v", out.Evaluation.InteresProductos)
	}

	if got := ParseOutput(`{"score_potencial": 7.6, "score_satisfaccion": 3.2}`).Evaluation; got.ScorePotencial != 8 || got.ScoreSatisfaccion != 3 {
		t.Fatalf("expected rounding, got %+v", got)
	}
}

func TestParseOutputFallback(t *testing.T) {
	for _, raw := range []string{"", "lo siento, no puedo", "{not json}", `{"score_potencial": 9`} {
		out := ParseOutput(raw)
		if out.Status != StatusFallback || out.ParseErr == nil {
			t.Fatalf("%q: expected fallback with error, got %s", raw, out.Status)
		}
		e := out.Evaluation
		if e.ScorePotencial != 5 || e.ScoreSatisfaccion != 5 || len(e.InteresProductos) != 0 || len(e.PalabrasClave) != 0 {
			t.Fatalf("%q: expected neutral evaluation, got %+v", raw, e)
		}
		if e.InteresProductos == nil || e.PalabrasClave == nil {
			t.Fatalf("%q: lists must be empty, not nil", raw)
		}
	}
}

func TestParseOutputNullFieldsAreDefaulted(t *testing.T) {
	out := ParseOutput(`{"score_potencial": null, "score_satisfaccion": 6, "interes_productos": null, "comentario": null, "palabras_clave": ["x"]}`)
	if out.Status != StatusPartial || len(out.Defaulted) != 3 {
		t.Fatalf("expected 3 defaulted fields, got %s %v", out.Status, out.Defaulted)
	}
	if out.Evaluation.ScorePotencial != 5 || out.Evaluation.InteresProductos == nil {
		t.Fatalf("unexpected defaults: %+v", out.Evaluation)
	}
}
