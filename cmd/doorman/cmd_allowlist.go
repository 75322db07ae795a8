package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/doorman/doorman/internal/external-adapters/allowlist"
)

func runAllowlist(ctx context.Context, args []string) {
	if len(args) < 1 {
		allowlistUsage()
		os.Exit(exitSetup)
	}

	action := args[0]
	switch action {
	case "lint":
		runAllowlistLint(args[1:])
	case "show":
		runAllowlistShow(ctx, args[1:])
	case "help", "-h", "--help":
		allowlistUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown allowlist action: %s\n\n", action)
		allowlistUsage()
		os.Exit(exitSetup)
	}
}

func allowlistUsage() {
	fmt.Fprintf(os.Stderr, `Usage: doorman allowlist <action> [options]

Actions:
  lint <file>   Report every problem in an allowlist file
  show <file>   Load an allowlist (verifying its signature if given) and print it

Examples:
  doorman allowlist lint trusted-teams.txt
  doorman allowlist show trusted-teams.txt
  doorman allowlist show teams.txt --signature teams.txt.asc --signer-key release.asc
`)
}

func runAllowlistLint(args []string) {
	fs := pflag.NewFlagSet("allowlist lint", pflag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(exitSetup)
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: allowlist file is required\n\n")
		allowlistUsage()
		os.Exit(exitSetup)
	}
	path := fs.Arg(0)

	//nolint:gosec // G304: operator-provided allowlist path
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read allowlist: %v\n", err)
		os.Exit(exitSetup)
	}

	issues := allowlist.NewParser().Lint(data)
	if len(issues) == 0 {
		fmt.Printf("✅ %s is well-formed\n", path)
		return
	}

	fmt.Printf("❌ %s has %d problems:\n", path, len(issues))
	for _, issue := range issues {
		fmt.Printf("   - %s\n", issue)
	}
	os.Exit(exitUntrusted)
}

func runAllowlistShow(ctx context.Context, args []string) {
	fs := pflag.NewFlagSet("allowlist show", pflag.ExitOnError)
	var (
		sigPath = fs.String("signature", "", "Detached GPG signature over the allowlist")
		keyPath = fs.String("signer-key", "", "GPG public key file of the allowlist signer")
	)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(exitSetup)
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: allowlist file is required\n\n")
		allowlistUsage()
		os.Exit(exitSetup)
	}
	if *sigPath != "" && *keyPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --signature requires --signer-key\n\n")
		allowlistUsage()
		os.Exit(exitSetup)
	}
	path := fs.Arg(0)

	repo := allowlist.NewFileRepository()
	if *sigPath != "" {
		repo = allowlist.NewSignedFileRepository(*sigPath, *keyPath)
	}

	entries, err := repo.Load(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitSetup)
	}

	if *sigPath != "" {
		fmt.Printf("🔏 Signature verified\n\n")
	}
	fmt.Printf("📋 %s (%d trusted identities)\n", path, len(entries))
	for _, entry := range entries {
		if entry.Label != "" {
			fmt.Printf("   %s  %s\n", entry.TeamID, entry.Label)
		} else {
			fmt.Printf("   %s\n", entry.TeamID)
		}
	}
}
