package agent

import "github.com/google/uuid"

// Status tags how much of the model output could be used.
type Status string

const (
	// StatusParsed means every field was present and well typed.
	StatusParsed Status = "parsed"
	// StatusPartial means the output was a JSON object but some fields were
	// missing or malformed and were defaulted.
	StatusPartial Status = "partial"
	// StatusFallback means the output could not be parsed at all and the
	// neutral evaluation was substituted.
	StatusFallback Status = "fallback"
)

// NeutralScore substitutes any missing or unusable 1-10 score.
const NeutralScore = 5

// Evaluation is the structured assessment of one message.
type Evaluation struct {
	ScorePotencial    int      `json:"score_potencial"`
	ScoreSatisfaccion int      `json:"score_satisfaccion"`
	InteresProductos  []string `json:"interes_productos"`
	Comentario        string   `json:"comentario"`
	PalabrasClave     []string `json:"palabras_clave"`
}

// Neutral is the evaluation used when the model output is unusable.
func Neutral() Evaluation {
	return Evaluation{
		ScorePotencial:    NeutralScore,
		ScoreSatisfaccion: NeutralScore,
		InteresProductos:  []string{},
		PalabrasClave:     []string{},
	}
}

// Outcome is the tagged result of an evaluation call. Evaluation is always
// usable; Status says how it was obtained. ParseErr is set for fallback
// outcomes and Defaulted lists the fields substituted in partial ones.
type Outcome struct {
	Status     Status
	Evaluation Evaluation
	Raw        string
	ParseErr   error
	Defaulted  []string
	Clamped    []string
	Model      string
}

// Degraded reports whether the outcome needed any substitution.
func (o Outcome) Degraded() bool {
	return o.Status != StatusParsed
}

// Settings selects the model for a tenant. A zero value uses the process
// default model.
type Settings struct {
	ConfigID *uuid.UUID
	Model    string
	APIKey   string
	BaseURL  string
}

func (s Settings) isOverride() bool {
	return s.APIKey != "" || s.Model != "" || s.BaseURL != ""
}
