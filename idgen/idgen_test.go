package idgen

import (
	"strings"
	"testing"
)

func TestUUIDv7_Unique(t *testing.T) {
	gen := UUIDv7()
	seen := make(map[string]bool)
	for range 1000 {
		id := gen()
		if seen[id] {
			t.Fatalf("duplicate ID: %s", id)
		}
		seen[id] = true
	}
}

func TestUUIDv7_Sortable(t *testing.T) {
	gen := UUIDv7()
	a := gen()
	b := gen()
	if !(a < b) {
		t.Errorf("IDs not time-sortable: %s >= %s", a, b)
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("lead_", UUIDv7())
	id := gen()
	if !strings.HasPrefix(id, "lead_") {
		t.Errorf("missing prefix: %s", id)
	}
	if _, err := Parse(strings.TrimPrefix(id, "lead_")); err != nil {
		t.Errorf("suffix is not a valid UUID: %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse("not-a-uuid"); err == nil {
		t.Error("expected error for invalid UUID")
	}
}
