package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/doorman/doorman/internal/domain/entities"
	"github.com/doorman/doorman/internal/domain/interfaces/services"
)

func runInspect(ctx context.Context, args []string) {
	fs := pflag.NewFlagSet("inspect", pflag.ExitOnError)
	var (
		artifactPath = fs.StringP("artifact", "a", "", "Artifact to inspect (.pkg, .dmg, .app) or a folder to search")
		label        = fs.StringP("label", "l", "", "Product label used to pick an artifact out of a folder")
		configPath   = fs.StringP("config", "c", "", "YAML run configuration file")
		jsonOut      = fs.BoolP("json", "j", false, "Print the full report as JSON on stdout")
		outputPath   = fs.StringP("output", "o", "", "Write the full JSON report to this file")
		verbose      = fs.BoolP("verbose", "v", false, "Enable debug logging")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: doorman inspect [options]

Walk an artifact and report its classified contents without invoking the
signature tools. Security checks (setuid, symlink escapes, world-writable
files) still run; identities and notarization are not evaluated.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  doorman inspect --artifact Firefox.dmg
  doorman inspect -a ~/Downloads -l firefox --json
  doorman inspect -a App.app -o inventory.json
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

	cfg, err := buildRunConfig(fs, *configPath, "", "", "", *label, true, 0, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitSetup)
	}

	var svc services.ValidationService = newValidationOrchestrator(cfg)
	report, err := svc.Inspect(ctx, *artifactPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitSetup)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitSetup)
		}
	} else {
		displayInventory(report)
	}

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

func displayInventory(report *entities.ValidationReport) {
	fmt.Printf("🔍 Inspecting %s\n\n", describeArtifact(report))

	for _, v := range report.Verdicts {
		marker := "  "
		if !v.Passed {
			marker = "❌"
		}
		fmt.Printf("%s %-12s %s%s\n", marker, kindTag(v.Kind), v.Path, archSuffix(v.Archs))
		for _, violation := range v.Violations {
			fmt.Printf("              ⚠️  %s\n", violation.Detail)
		}
	}

	fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("   Scanned: %d nodes, %d binaries, %d nested bundles, %d symlinks\n",
		report.Stats.NodesVisited,
		report.Stats.NativeBinaries,
		report.Stats.NestedBundles,
		report.Stats.SymlinksChecked)
	if failed := report.FailedVerdicts(); len(failed) > 0 {
		fmt.Printf("❌ %d components carry security violations\n", len(failed))
	} else {
		fmt.Printf("✅ No security violations found\n")
	}
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
}

func kindTag(kind string) string {
	switch kind {
	case entities.EntryKindNative:
		return "NATIVE"
	case entities.EntryKindBundleRoot:
		return "BUNDLE"
	case entities.EntryKindSymlink:
		return "SYMLINK"
	case entities.EntryKindPackage:
		return "PACKAGE"
	case entities.EntryKindDirectory:
		return "DIR"
	default:
		return strings.ToUpper(kind)
	}
}

func archSuffix(archs []string) string {
	if len(archs) == 0 {
		return ""
	}
	return " (" + strings.Join(archs, ", ") + ")"
}
