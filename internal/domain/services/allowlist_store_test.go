package services

import (
	"testing"

	"github.com/doorman/doorman/internal/domain/entities"
)

// Test exact, case-sensitive membership semantics
func TestAllowlistStore_Contains(t *testing.T) {
	store := NewAllowlistStore([]entities.AllowlistEntry{
		{TeamID: "ABCDE12345", Label: "Vendor A"},
		{TeamID: " PADDED9999 "},
		{TeamID: ""},
	})

	tests := []struct {
		name     string
		identity string
		want     bool
	}{
		{"exact match", "ABCDE12345", true},
		{"query with surrounding whitespace", "  ABCDE12345\t", true},
		{"entry stored trimmed", "PADDED9999", true},
		{"case differs", "abcde12345", false},
		{"substring", "ABCDE1234", false},
		{"superstring", "ABCDE123456", false},
		{"empty identity", "", false},
		{"unknown identity", "ZZZZZ99999", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := store.Contains(tt.identity); got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.identity, got, tt.want)
			}
		})
	}

	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (empty entries dropped)", store.Len())
	}
}

// Test entries come back sorted for stable listing output
func TestAllowlistStore_EntriesSorted(t *testing.T) {
	store := NewAllowlistStore([]entities.AllowlistEntry{
		{TeamID: "ZZZZZ99999"},
		{TeamID: "ABCDE12345", Label: "Vendor A"},
		{TeamID: "MMMMM55555"},
	})

	entries := store.Entries()
	if len(entries) != 3 {
		t.Fatalf("Entries() = %d entries, want 3", len(entries))
	}
	wantOrder := []string{"ABCDE12345", "MMMMM55555", "ZZZZZ99999"}
	for i, want := range wantOrder {
		if entries[i].TeamID != want {
			t.Errorf("Entries()[%d] = %s, want %s", i, entries[i].TeamID, want)
		}
	}
	if entries[0].Label != "Vendor A" {
		t.Errorf("Entries()[0].Label = %q, want %q", entries[0].Label, "Vendor A")
	}
}
