package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := NotFound("lead not found")
	wrapped := fmt.Errorf("load lead: %w", base)
	if !Is(wrapped, KindNotFound) {
		t.Fatalf("expected not found through fmt wrapping")
	}
	if Is(errors.New("plain"), KindNotFound) || KindOf(nil) != KindUnknown {
		t.Fatalf("plain errors carry no kind")
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindUnavailable, "model unavailable", cause)
	if err.Error() != "model unavailable: connection refused" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected the cause to be reachable")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:    http.StatusNotFound,
		KindValidation:  http.StatusBadRequest,
		KindInternal:    http.StatusInternalServerError,
		KindUnavailable: http.StatusServiceUnavailable,
		KindUnknown:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := New(kind, "x").HTTPStatus(); got != want {
			t.Fatalf("kind %d: expected %d, got %d", kind, want, got)
		}
	}
}
