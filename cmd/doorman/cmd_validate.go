package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/doorman/doorman/internal/domain-adapters/gateways"
	orchestrators "github.com/doorman/doorman/internal/domain-orchestrators"
	"github.com/doorman/doorman/internal/domain/entities"
	"github.com/doorman/doorman/internal/domain/interfaces"
	"github.com/doorman/doorman/internal/domain/interfaces/repositories"
	"github.com/doorman/doorman/internal/domain/interfaces/services"
	"github.com/doorman/doorman/internal/external-adapters/allowlist"
	"github.com/doorman/doorman/internal/external-adapters/bundleplist"
	"github.com/doorman/doorman/internal/external-adapters/toolexec"
	"github.com/doorman/doorman/internal/external-adapters/yaml"
)

func runValidate(ctx context.Context, args []string) {
	fs := pflag.NewFlagSet("validate", pflag.ExitOnError)
	var (
		artifactPath  = fs.StringP("artifact", "a", "", "Artifact to validate (.pkg, .dmg, .app) or a folder to search")
		allowlistPath = fs.String("allowlist", "", "Team ID allowlist file")
		allowlistSig  = fs.String("allowlist-sig", "", "Detached GPG signature over the allowlist")
		signerKey     = fs.String("signer-key", "", "GPG public key file of the allowlist signer")
		label         = fs.StringP("label", "l", "", "Product label used to pick an artifact out of a folder")
		configPath    = fs.StringP("config", "c", "", "YAML run configuration file")
		outputPath    = fs.StringP("output", "o", "", "Write the full JSON report to this file")
		parallel      = fs.IntP("parallel", "p", 0, "Parallel identity resolutions (overrides config)")
		failWW        = fs.Bool("fail-on-world-writable", true, "Treat world-writable payload files as fatal")
		verbose       = fs.BoolP("verbose", "v", false, "Show every component verdict and debug logging")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: doorman validate [options]

Validate a macOS installer artifact against a Team ID allowlist.

Performs:
  - Gatekeeper notarization assessment (spctl)
  - Recursive bundle traversal with Mach-O detection
  - Signing identity resolution and allowlist cross-check (codesign, pkgutil)
  - Symlink-escape and permission exploit detection

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  doorman validate --artifact Firefox.dmg --allowlist trusted-teams.txt
  doorman validate -a ~/Downloads -l firefox --allowlist trusted-teams.txt
  doorman validate -a Installer.pkg -c doorman.yml --output report.json
  doorman validate -a App.app --allowlist teams.txt --allowlist-sig teams.txt.asc --signer-key release.asc
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(exitSetup)
	}

	if *artifactPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --artifact is required\n\n")
		fs.Usage()
		os.Exit(exitSetup)
	}
	if *allowlistSig != "" && *signerKey == "" {
		fmt.Fprintf(os.Stderr, "Error: --allowlist-sig requires --signer-key\n\n")
		fs.Usage()
		os.Exit(exitSetup)
	}

	cfg, err := buildRunConfig(fs, *configPath, *allowlistPath, *allowlistSig, *signerKey, *label, *failWW, *parallel, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitSetup)
	}

	report, err := executeValidate(ctx, newValidationOrchestrator(cfg), *artifactPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitSetup)
	}

	displayReport(report, *verbose)

	if *outputPath != "" {
		if err := writeReport(report, *outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitSetup)
		}
		fmt.Printf("📄 Report written to %s\n", *outputPath)
	}

	if !report.Pass {
		os.Exit(exitUntrusted)
	}
}

func executeValidate(ctx context.Context, svc services.ValidationService, artifactPath string, cfg entities.RunConfig) (*entities.ValidationReport, error) {
	fmt.Printf("🔒 Validating %s\n\n", filepath.Base(artifactPath))

	return svc.Validate(ctx, artifactPath, cfg)
}

// newValidationOrchestrator wires the full adapter stack following Clean
// Architecture
func newValidationOrchestrator(cfg entities.RunConfig) *orchestrators.ValidationOrchestrator {
	logger := &interfaces.StderrLogger{Verbose: cfg.Verbose}

	// Layer 1: Create external adapters (Infrastructure)
	runner := toolexec.NewRunner(cfg.ToolTimeout)

	var allowlists repositories.AllowlistRepository = allowlist.NewFileRepository()
	if cfg.AllowlistSignature != "" {
		allowlists = allowlist.NewSignedFileRepository(cfg.AllowlistSignature, cfg.AllowlistSignerKey)
	}

	// Layer 2: Create gateways (Interface Adapters)
	resolver := gateways.NewCodesignGateway(logger, runner)
	mounter := gateways.NewDiskImageGateway(logger, runner)

	// Layer 3: Create orchestrator (Use Case)
	return orchestrators.NewValidationOrchestrator(
		logger,
		gateways.NewArtifactLocator(),
		gateways.NewArtifactDigester(),
		resolver,
		mounter,
		bundleplist.NewReader(),
		allowlists,
	)
}

// buildRunConfig layers configuration: defaults, then the YAML file, then
// explicit flags
func buildRunConfig(fs *pflag.FlagSet, configPath, allowlistPath, allowlistSig, signerKey, label string,
	failWW bool, parallel int, verbose bool) (entities.RunConfig, error) {

	cfg := entities.DefaultRunConfig()

	if configPath != "" {
		parsed, err := yaml.NewConfigParser().ParseFile(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *parsed
	}

	if allowlistPath != "" {
		cfg.AllowlistPath = allowlistPath
	}
	if allowlistSig != "" {
		cfg.AllowlistSignature = allowlistSig
	}
	if signerKey != "" {
		cfg.AllowlistSignerKey = signerKey
	}
	if label != "" {
		cfg.Label = label
	}
	if fs.Changed("fail-on-world-writable") {
		cfg.FailOnWorldWritable = failWW
	}
	if fs.Changed("parallel") {
		cfg.ParallelResolvers = parallel
	}
	if verbose {
		cfg.Verbose = true
	}

	return cfg, nil
}

func displayReport(report *entities.ValidationReport, verbose bool) {
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if report.Pass {
		fmt.Printf("✅ TRUSTED: %s\n", describeArtifact(report))
	} else {
		fmt.Printf("❌ UNTRUSTED: %s\n", describeArtifact(report))
	}
	fmt.Printf("   Notarization: %s\n", report.ArtifactNotarization)
	if report.ArtifactSHA256 != "" {
		fmt.Printf("   SHA-256: %s\n", report.ArtifactSHA256)
	}
	fmt.Printf("   Scanned: %d nodes, %d binaries, %d nested bundles, %d symlinks in %v\n",
		report.Stats.NodesVisited,
		report.Stats.NativeBinaries,
		report.Stats.NestedBundles,
		report.Stats.SymlinksChecked,
		report.Stats.Duration.Round(time.Millisecond))

	failed := report.FailedVerdicts()
	if len(failed) > 0 {
		fmt.Printf("\n   Failed components (%d of %d):\n", len(failed), len(report.Verdicts))
		for _, v := range failed {
			fmt.Printf("   ❌ %s: %s\n", v.Path, failureReason(v))
		}
	}

	if verbose {
		fmt.Printf("\n   All components:\n")
		for _, v := range report.Verdicts {
			marker := "✅"
			if !v.Passed {
				marker = "❌"
			}
			fmt.Printf("   %s [%s] %s%s\n", marker, v.Kind, v.Path, identitySuffix(v))
		}
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

func describeArtifact(report *entities.ValidationReport) string {
	if report.Bundle != nil && report.Bundle.Name != "" {
		desc := report.Bundle.Name
		if report.Bundle.Version != "" {
			desc += " " + report.Bundle.Version
		}
		if report.Bundle.BundleID != "" {
			desc += " (" + report.Bundle.BundleID + ")"
		}
		return desc
	}
	return filepath.Base(report.ArtifactPath)
}

// failureReason renders the first thing wrong with a component
func failureReason(v entities.ComponentVerdict) string {
	if fatal := v.FatalViolations(); len(fatal) > 0 {
		return fatal[0].Detail
	}
	if len(v.Violations) > 0 {
		return v.Violations[0].Detail
	}
	if v.IdentityErr != "" {
		return v.IdentityErr
	}
	if v.Identity != "" && !v.MatchedAllowlist {
		return fmt.Sprintf("identity %s not in allowlist", v.Identity)
	}
	if v.Notarization == entities.NotarizationRejected {
		return "notarization rejected"
	}
	return "no signing identity"
}

func identitySuffix(v entities.ComponentVerdict) string {
	if v.Identity == "" {
		return ""
	}
	return " (" + v.Identity + ")"
}

func writeReport(report *entities.ValidationReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
