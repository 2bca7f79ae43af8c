package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	fieldScorePotencial    = "score_potencial"
	fieldScoreSatisfaccion = "score_satisfaccion"
	fieldInteresProductos  = "interes_productos"
	fieldComentario        = "comentario"
	fieldPalabrasClave     = "palabras_clave"

	minScore = 1
	maxScore = 10
)

var errEmptyOutput = errors.New("empty model output")

// ParseOutput turns raw model text into a tagged outcome. It never fails:
// unparsable text yields StatusFallback with the neutral evaluation.
func ParseOutput(raw string) Outcome {
	out := Outcome{Status: StatusParsed, Evaluation: Neutral(), Raw: raw}

	body := extractJSONObject(raw)
	if body == "" {
		out.Status = StatusFallback
		out.ParseErr = errEmptyOutput
		if strings.TrimSpace(raw) != "" {
			out.ParseErr = fmt.Errorf("no JSON object in model output")
		}
		return out
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		out.Status = StatusFallback
		out.ParseErr = fmt.Errorf("decode model output: %w", err)
		return out
	}

	eval := &out.Evaluation
	if v, clamped, ok := scoreField(fields[fieldScorePotencial]); ok {
		eval.ScorePotencial = v
		if clamped {
			out.Clamped = append(out.Clamped, fieldScorePotencial)
		}
	} else {
		out.Defaulted = append(out.Defaulted, fieldScorePotencial)
	}
	if v, clamped, ok := scoreField(fields[fieldScoreSatisfaccion]); ok {
		eval.ScoreSatisfaccion = v
		if clamped {
			out.Clamped = append(out.Clamped, fieldScoreSatisfaccion)
		}
	} else {
		out.Defaulted = append(out.Defaulted, fieldScoreSatisfaccion)
	}
	if v, ok := listField(fields[fieldInteresProductos]); ok {
		eval.InteresProductos = v
	} else {
		out.Defaulted = append(out.Defaulted, fieldInteresProductos)
	}
	if v, ok := stringField(fields[fieldComentario]); ok {
		eval.Comentario = v
	} else {
		out.Defaulted = append(out.Defaulted, fieldComentario)
	}
	if v, ok := listField(fields[fieldPalabrasClave]); ok {
		eval.PalabrasClave = v
	} else {
		out.Defaulted = append(out.Defaulted, fieldPalabrasClave)
	}

	if len(out.Defaulted) > 0 {
		out.Status = StatusPartial
	}
	return out
}

// extractJSONObject returns the outermost {...} span, tolerating markdown
// fences and prose around it.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// scoreField accepts a JSON number or numeric string, rounds it and clamps it
// into [1,10].
func scoreField(raw json.RawMessage) (value int, clamped bool, ok bool) {
	if absent(raw) {
		return 0, false, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false, false
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false, false
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, false
	}

	rounded := int(math.Round(f))
	v := max(minScore, min(rounded, maxScore))
	return v, v != rounded, true
}

// listField accepts an array of strings, dropping blanks and duplicates while
// keeping order. Non-string items are skipped.
func listField(raw json.RawMessage) ([]string, bool) {
	if absent(raw) {
		return nil, false
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out, true
}

func stringField(raw json.RawMessage) (string, bool) {
	if absent(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func absent(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
