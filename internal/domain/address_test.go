package domain

import (
	"errors"
	"testing"
)

func TestParseAddress(t *testing.T) {
	key, err := ParseAddress(" GrAkKfEpTKQuVHG2Y97Y2FF4i7y7Q5AHLK94JBy7Y5yv ")
	if err != nil {
		t.Fatalf("ParseAddress returned error: %v", err)
	}
	if key.String() != "GrAkKfEpTKQuVHG2Y97Y2FF4i7y7Q5AHLK94JBy7Y5yv" {
		t.Fatalf("unexpected key: %s", key)
	}
}

func TestParseAddressRejectsInvalid(t *testing.T) {
	if _, err := ParseAddress("  "); !errors.Is(err, ErrAddressRequired) {
		t.Fatalf("expected ErrAddressRequired, got %v", err)
	}
	for _, input := range []string{"0OIl", "abc", "GrAkKfEpTKQuVHG2Y97Y2FF4i7y7Q5AHLK94JBy7Y5yvGrAk"} {
		if _, err := ParseAddress(input); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("expected ErrInvalidAddress for %q, got %v", input, err)
		}
	}
}
