// Package codesign wraps the macOS signature-verification tools: spctl for
// Gatekeeper assessment, codesign for bundle and binary identities, pkgutil
// for flat-package identities.
package codesign

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/doorman/doorman/internal/external-adapters/toolexec"
)

const (
	spctlTool    = "spctl"
	codesignTool = "codesign"
	pkgutilTool  = "pkgutil"
)

// Assessment types accepted by spctl.
const (
	AssessTypeInstall = "install"
	AssessTypeExecute = "execute"
)

var (
	// codesign -dv reports on stderr, one key=value per line
	teamIDPattern = regexp.MustCompile(`TeamIdentifier=([A-Z0-9]{10})`)
	// pkgutil --check-signature prints the certificate chain on stdout
	installerPattern = regexp.MustCompile(`Developer ID Installer: .*\(([A-Z0-9]{10})\)`)
)

// Assessor runs Gatekeeper and signature queries through the system tools
type Assessor struct {
	runner *toolexec.Runner
}

// NewAssessor creates an assessor sharing the given runner
func NewAssessor(runner *toolexec.Runner) *Assessor {
	return &Assessor{runner: runner}
}

// Assess reports whether Gatekeeper accepts the target for the given
// assessment type (install for packages, execute for bundles)
func (a *Assessor) Assess(ctx context.Context, path, assessType string) (bool, error) {
	res, err := a.runner.Run(ctx, spctlTool, "--assess", "--type", assessType, "-vv", path)
	if err != nil {
		return false, fmt.Errorf("gatekeeper assessment failed: %w", err)
	}
	return res.ExitCode == 0 && strings.Contains(res.Combined(), "accepted"), nil
}

// TeamIdentifier returns the Team ID embedded in the code signature of a
// bundle or native binary
func (a *Assessor) TeamIdentifier(ctx context.Context, path string) (string, error) {
	res, err := a.runner.Run(ctx, codesignTool, "-dv", path)
	if err != nil {
		return "", fmt.Errorf("signature display failed: %w", err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("codesign exited %d: %s", res.ExitCode, firstLine(res.Stderr))
	}
	return ParseTeamIdentifier(res.Stderr)
}

// InstallerIdentity returns the Team ID of the Developer ID Installer
// certificate that signed a flat package
func (a *Assessor) InstallerIdentity(ctx context.Context, pkgPath string) (string, error) {
	res, err := a.runner.Run(ctx, pkgutilTool, "--check-signature", pkgPath)
	if err != nil {
		return "", fmt.Errorf("package signature check failed: %w", err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("pkgutil exited %d: %s", res.ExitCode, firstLine(res.Combined()))
	}
	return ParseInstallerIdentity(res.Stdout)
}

// ParseTeamIdentifier extracts the ten-character Team ID from codesign -dv
// output. Ad-hoc signatures print "TeamIdentifier=not set" and yield an
// error here.
func ParseTeamIdentifier(output string) (string, error) {
	m := teamIDPattern.FindStringSubmatch(output)
	if m == nil {
		return "", errors.New("no TeamIdentifier in codesign output")
	}
	return m[1], nil
}

// ParseInstallerIdentity extracts the Team ID from the Developer ID
// Installer line of pkgutil --check-signature output
func ParseInstallerIdentity(output string) (string, error) {
	m := installerPattern.FindStringSubmatch(output)
	if m == nil {
		return "", errors.New("no Developer ID Installer certificate in pkgutil output")
	}
	return m[1], nil
}

// IsSpctlInstalled checks if spctl is available in PATH
func IsSpctlInstalled() bool {
	return toolexec.IsInstalled(spctlTool)
}

// IsCodesignInstalled checks if codesign is available in PATH
func IsCodesignInstalled() bool {
	return toolexec.IsInstalled(codesignTool)
}

// IsPkgutilInstalled checks if pkgutil is available in PATH
func IsPkgutilInstalled() bool {
	return toolexec.IsInstalled(pkgutilTool)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
