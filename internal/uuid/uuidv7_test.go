package uuid

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("generates_version_7", func(t *testing.T) {
		id := New()
		if !IsValid(id) {
			t.Fatalf("expected valid UUID, got %q", id)
		}
		if id[14] != '7' {
			t.Errorf("expected version nibble 7, got %q in %s", id[14], id)
		}
	})

	t.Run("sorts_by_creation_time", func(t *testing.T) {
		first := New()
		second := New()
		if strings.Compare(first[:13], second[:13]) > 0 {
			t.Errorf("expected %s to sort before %s", first, second)
		}
	})
}

func TestParse(t *testing.T) {
	got, err := Parse("0190A5B2-7C3D-7E4F-8A1B-123456789ABC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0190a5b2-7c3d-7e4f-8a1b-123456789abc" {
		t.Errorf("expected canonical lower-case form, got %s", got)
	}

	if _, err := Parse("not-a-uuid"); err == nil {
		t.Error("expected error for malformed input")
	}
	if IsValid("") {
		t.Error("empty string should not be valid")
	}
}
