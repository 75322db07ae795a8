package main

import (
	"context"
	"fmt"
	"os"
)

// Exit codes: 0 artifact trusted, 1 artifact untrusted, 2 setup failure
// (bad arguments, missing tools, unreadable allowlist).
const (
	exitTrusted   = 0
	exitUntrusted = 1
	exitSetup     = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitSetup)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "validate":
		runValidate(ctx, os.Args[2:])
	case "inspect":
		runInspect(ctx, os.Args[2:])
	case "allowlist":
		runAllowlist(ctx, os.Args[2:])
	case "version":
		runVersion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(exitSetup)
	}
}

func printUsage() {
	fmt.Println(`doorman - Deep trust validation for macOS installer artifacts

Usage:
  doorman <command> [options]

Commands:
  validate   Validate an artifact against a Team ID allowlist
  inspect    Walk an artifact and report its contents without signature checks
  allowlist  Lint or display a Team ID allowlist file
  version    Print version information

Exit codes:
  0  artifact trusted
  1  artifact untrusted
  2  setup failure (arguments, tools, allowlist)

Use "doorman <command> --help" for more information about a command.`)
}
