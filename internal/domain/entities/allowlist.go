package entities

// AllowlistEntry represents one trusted signing identity.
// Identities are case-sensitive exact-match tokens; no wildcards.
type AllowlistEntry struct {
	TeamID string
	Label  string // trailing comment text from the allowlist line, if any
}
