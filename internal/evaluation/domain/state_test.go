package domain

import "testing"

func TestCanTransitionFollowsHappyPath(t *testing.T) {
	for i := 0; i < len(happyPath)-1; i++ {
		if !CanTransition(happyPath[i], happyPath[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", happyPath[i], happyPath[i+1])
		}
	}
}

func TestCanTransitionRejectsSkips(t *testing.T) {
	if CanTransition(StatePending, StatePrompted) {
		t.Fatalf("expected PENDING -> PROMPTED to be rejected")
	}
	if CanTransition(StateScored, StateLLMEvaluated) {
		t.Fatalf("expected backwards transition to be rejected")
	}
}

func TestFailedReachableFromAnyNonTerminalState(t *testing.T) {
	for _, s := range happyPath[:len(happyPath)-1] {
		if !CanTransition(s, StateFailed) {
			t.Fatalf("expected %s -> FAILED to be allowed", s)
		}
	}
	if CanTransition(StateComplete, StateFailed) {
		t.Fatalf("expected COMPLETE to be terminal")
	}
	if CanTransition(StateFailed, StatePending) {
		t.Fatalf("expected FAILED to be terminal")
	}
}
