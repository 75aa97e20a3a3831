package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	if !IsKnownCode("") {
		t.Fatalf("empty code is the success case and must be known")
	}
	if !IsKnownCode(ErrInvalidTarget) {
		t.Fatalf("%s must be known", ErrInvalidTarget)
	}
	if IsKnownCode("E_MADE_UP") {
		t.Fatalf("unknown code must be rejected")
	}
}
