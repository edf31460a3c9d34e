package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrap_NilReturnsNil(t *testing.T) {
	if err := Wrap(nil, ErrStorage, "x"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
	if err := Wrapf(nil, ErrStorage, "x %d", 1); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}

func TestWrap_MessageIncludesCause(t *testing.T) {
	err := Wrap(errors.New("disk full"), ErrStorage, "saving snapshot")
	if got := err.Error(); got != "saving snapshot: disk full" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCodeOf_ThroughFmtWrap(t *testing.T) {
	inner := New(ErrProtocol, "missing key \"exists\"")
	outer := fmt.Errorf("processing: %w", inner)

	if CodeOf(outer) != ErrProtocol {
		t.Errorf("CodeOf = %s, want %s", CodeOf(outer), ErrProtocol)
	}
	if !Has(outer, ErrProtocol) {
		t.Error("Has should report ErrProtocol")
	}
	if CodeOf(errors.New("plain")) != ErrUnknown {
		t.Error("plain errors should map to ErrUnknown")
	}
}

func TestIs_ComparesCodes(t *testing.T) {
	err := Newf(ErrGeneration, "rule %q failed", "x")
	if !errors.Is(err, New(ErrGeneration, "")) {
		t.Error("errors.Is should match on code")
	}
	if errors.Is(err, New(ErrStorage, "")) {
		t.Error("errors.Is should not match a different code")
	}
}
