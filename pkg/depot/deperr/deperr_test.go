package deperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestTypeOfUnwraps(t *testing.T) {
	inner := errors.New("connection refused")
	err := fmt.Errorf("loading /src: %w", WrapDepotError(FETCH_FAILURE, inner, "Object fetch failed"))
	if TypeOf(err) != FETCH_FAILURE {
		t.Errorf("expected FETCH_FAILURE, got %s", TypeOf(err))
	}
	if !errors.Is(err, inner) {
		t.Error("expected the inner error to stay reachable")
	}
	if TypeOf(inner) != 0 || IsDepotError(inner) {
		t.Error("a plain error has no depot type")
	}
}

func TestOutermostTypeWins(t *testing.T) {
	err := WrapDepotError(NO_COMMIT, NewDepotError(NOT_FOUND, "Object x not found"), "Failed to load commit")
	if !Is(err, NO_COMMIT) {
		t.Errorf("expected NO_COMMIT, got %s", TypeOf(err))
	}
	want := "NO_COMMIT: Failed to load commit: NOT_FOUND: Object x not found"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}
