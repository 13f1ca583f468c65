package uuid

import (
	"strings"
	"testing"
)

func TestNew_IsVersion7AndOrdered(t *testing.T) {
	a := New()
	b := New()

	if !IsValid(a) || !IsValid(b) {
		t.Fatalf("expected valid uuids, got %q and %q", a, b)
	}
	if a[14] != '7' {
		t.Errorf("expected version nibble 7, got %q in %s", a[14], a)
	}
	if strings.Compare(a[:13], b[:13]) > 0 {
		t.Errorf("expected %s to sort before %s", a, b)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("0190B5A8-6F3A-7C2E-9B1D-2A4F5E6D7C8B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0190b5a8-6f3a-7c2e-9b1d-2a4f5e6d7c8b" {
		t.Errorf("expected canonical lower-case form, got %s", got)
	}

	if _, err := Parse("not-a-uuid"); err == nil {
		t.Error("expected error for malformed uuid")
	}
}
