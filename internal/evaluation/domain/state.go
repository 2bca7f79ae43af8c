package domain

// EvaluationState is a step of the per-message evaluation state machine.
type EvaluationState string

const (
	StatePending         EvaluationState = "PENDING"
	StateContextLoaded   EvaluationState = "CONTEXT_LOADED"
	StatePrompted        EvaluationState = "PROMPTED"
	StateLLMEvaluated    EvaluationState = "LLM_EVALUATED"
	StateProductsMatched EvaluationState = "PRODUCTS_MATCHED"
	StateScored          EvaluationState = "SCORED"
	StatePersisted       EvaluationState = "PERSISTED"
	StateComplete        EvaluationState = "COMPLETE"
	StateFailed          EvaluationState = "FAILED"
)

// happyPath lists the non-failure states in order.
var happyPath = []EvaluationState{
	StatePending,
	StateContextLoaded,
	StatePrompted,
	StateLLMEvaluated,
	StateProductsMatched,
	StateScored,
	StatePersisted,
	StateComplete,
}

// IsTerminal reports whether no further transition is allowed.
func (s EvaluationState) IsTerminal() bool {
	return s == StateComplete || s == StateFailed
}

// CanTransition reports whether the machine may move from one state to another.
// Only the next happy-path step, or FAILED from any non-terminal state, is allowed.
func CanTransition(from, to EvaluationState) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	for i := 0; i < len(happyPath)-1; i++ {
		if happyPath[i] == from {
			return happyPath[i+1] == to
		}
	}
	return false
}
