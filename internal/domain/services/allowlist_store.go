package services

import (
	"sort"
	"strings"

	"github.com/doorman/doorman/internal/domain/entities"
)

// allowlistStore is the in-memory set of trusted identities. Built once per
// run, read-only afterwards, safe for concurrent readers without locking.
type allowlistStore struct {
	entries map[string]entities.AllowlistEntry
}

// NewAllowlistStore builds a store from parsed allowlist entries
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewAllowlistStore(entries []entities.AllowlistEntry) *allowlistStore {
	byID := make(map[string]entities.AllowlistEntry, len(entries))
	for _, entry := range entries {
		id := strings.TrimSpace(entry.TeamID)
		if id == "" {
			continue
		}
		entry.TeamID = id
		byID[id] = entry
	}
	return &allowlistStore{entries: byID}
}

// Contains reports whether identity is trusted. Matching is exact and
// case-sensitive after trimming surrounding whitespace; no wildcards.
func (a *allowlistStore) Contains(identity string) bool {
	_, ok := a.entries[strings.TrimSpace(identity)]
	return ok
}

// Len returns the number of distinct trusted identities
func (a *allowlistStore) Len() int {
	return len(a.entries)
}

// Entries returns the stored entries sorted by identity for stable output
func (a *allowlistStore) Entries() []entities.AllowlistEntry {
	out := make([]entities.AllowlistEntry, 0, len(a.entries))
	for _, entry := range a.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}
