package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
)

// version is overridden at release time via -ldflags "-X main.version=..."
var version = "0.4.1"

func runVersion(_ context.Context, args []string) {
	fs := pflag.NewFlagSet("version", pflag.ExitOnError)
	check := fs.BoolP("check", "u", false, "Check GitHub for a newer release")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(exitSetup)
	}

	fmt.Printf("doorman version %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)

	if *check {
		checkUpdate(version)
	}
}

func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      "doorman",
		Repository: "doorman",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Println("👉 Download it from https://github.com/doorman/doorman/releases")
	} else {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}
