// Package allowlist provides file-based Team ID allowlist parsing and
// repository implementations.
package allowlist

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/doorman/doorman/internal/domain/entities"
)

// teamIDPattern matches an Apple Team ID: exactly ten characters, capital
// letters and digits only
var teamIDPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// Parser parses plain-text allowlist files.
//
// One identity per line, first token is the Team ID, an optional trailing
// comment names the vendor:
//
//	ABCDE12345  # Mozilla Corporation
type Parser struct{}

// NewParser creates a new allowlist parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile parses an allowlist file into entries, in file order
func (p *Parser) ParseFile(filePath string) ([]entities.AllowlistEntry, error) {
	//nolint:gosec // G304: filePath is the operator-provided allowlist path
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses allowlist bytes into entries, in file order.
// Blank lines, comments, and lines whose first token is not a valid
// ten-character identity are skipped; parsing fails only when no usable
// identity remains. Lint reports the skipped lines.
func (p *Parser) Parse(data []byte) ([]entities.AllowlistEntry, error) {
	entries := make([]entities.AllowlistEntry, 0)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		entry, ok, err := parseLine(scanner.Text())
		if err != nil || !ok {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan allowlist: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("allowlist contains no identities")
	}

	return entries, nil
}

// Lint reports every problem in the allowlist rather than stopping at the
// first. An empty result means the file is clean.
func (p *Parser) Lint(data []byte) []string {
	issues := make([]string, 0)
	seen := make(map[string]int)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		entry, ok, err := parseLine(scanner.Text())
		if err != nil {
			issues = append(issues, fmt.Sprintf("line %d: %v", lineNo, err))
			continue
		}
		if !ok {
			continue
		}
		if first, dup := seen[entry.TeamID]; dup {
			issues = append(issues, fmt.Sprintf("line %d: duplicate of line %d: %s", lineNo, first, entry.TeamID))
			continue
		}
		seen[entry.TeamID] = lineNo
	}
	if err := scanner.Err(); err != nil {
		issues = append(issues, fmt.Sprintf("failed to scan allowlist: %v", err))
	}

	if len(seen) == 0 {
		issues = append(issues, "allowlist contains no identities")
	}

	return issues
}

// parseLine extracts one entry from a raw line. ok is false for blank and
// comment-only lines.
func parseLine(raw string) (entities.AllowlistEntry, bool, error) {
	line := raw
	label := ""
	if idx := strings.Index(line, "#"); idx >= 0 {
		label = strings.TrimSpace(line[idx+1:])
		line = line[:idx]
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return entities.AllowlistEntry{}, false, nil
	}

	teamID := fields[0]
	if !teamIDPattern.MatchString(teamID) {
		return entities.AllowlistEntry{}, false, fmt.Errorf("invalid team identifier %q", teamID)
	}

	// A label may also follow the identity without a comment marker
	if label == "" && len(fields) > 1 {
		label = strings.Join(fields[1:], " ")
	}

	return entities.AllowlistEntry{TeamID: teamID, Label: label}, true, nil
}
