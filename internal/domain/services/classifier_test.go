package services

import (
	"io/fs"
	"reflect"
	"testing"

	"github.com/doorman/doorman/internal/domain/entities"
)

// machoPrefix builds a synthetic header prefix from 4-byte groups
func machoPrefix(groups ...[]byte) []byte {
	var prefix []byte
	for _, g := range groups {
		prefix = append(prefix, g...)
	}
	// pad so prefix length never decides the outcome
	for len(prefix) < 32 {
		prefix = append(prefix, 0)
	}
	return prefix
}

// Test that every recognized magic yields native-executable regardless of name
func TestClassifier_MagicDetection(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name     string
		fileName string
		prefix   []byte
		want     string
	}{
		{
			name:     "thin 32-bit big-endian",
			fileName: "notes.txt",
			prefix:   machoPrefix([]byte{0xfe, 0xed, 0xfa, 0xce}, []byte{0x00, 0x00, 0x00, 0x12}),
			want:     entities.EntryKindNative,
		},
		{
			name:     "thin 64-bit big-endian",
			fileName: "image.png",
			prefix:   machoPrefix([]byte{0xfe, 0xed, 0xfa, 0xcf}, []byte{0x01, 0x00, 0x00, 0x12}),
			want:     entities.EntryKindNative,
		},
		{
			name:     "thin 32-bit little-endian",
			fileName: "config.plist",
			prefix:   machoPrefix([]byte{0xce, 0xfa, 0xed, 0xfe}, []byte{0x0c, 0x00, 0x00, 0x00}),
			want:     entities.EntryKindNative,
		},
		{
			name:     "thin 64-bit little-endian",
			fileName: "helper",
			prefix:   machoPrefix([]byte{0xcf, 0xfa, 0xed, 0xfe}, []byte{0x07, 0x00, 0x00, 0x01}),
			want:     entities.EntryKindNative,
		},
		{
			name:     "fat big-endian",
			fileName: "Thing.class",
			prefix:   machoPrefix([]byte{0xca, 0xfe, 0xba, 0xbe}, []byte{0x00, 0x00, 0x00, 0x01}, []byte{0x01, 0x00, 0x00, 0x07}),
			want:     entities.EntryKindNative,
		},
		{
			name:     "fat 64 big-endian",
			fileName: "universal",
			prefix:   machoPrefix([]byte{0xca, 0xfe, 0xba, 0xbf}, []byte{0x00, 0x00, 0x00, 0x01}, []byte{0x01, 0x00, 0x00, 0x0c}),
			want:     entities.EntryKindNative,
		},
		{
			name:     "fat byte-swapped",
			fileName: "swapped.dat",
			prefix:   machoPrefix([]byte{0xbe, 0xba, 0xfe, 0xca}, []byte{0x01, 0x00, 0x00, 0x00}, []byte{0x07, 0x00, 0x00, 0x01}),
			want:     entities.EntryKindNative,
		},
		{
			name:     "fat 64 byte-swapped",
			fileName: "swapped64",
			prefix:   machoPrefix([]byte{0xbf, 0xba, 0xfe, 0xca}, []byte{0x01, 0x00, 0x00, 0x00}, []byte{0x0c, 0x00, 0x00, 0x01}),
			want:     entities.EntryKindNative,
		},
		{
			name:     "plain text never native",
			fileName: "binary",
			prefix:   []byte("#!/bin/sh\necho hi\n"),
			want:     entities.EntryKindResource,
		},
		{
			name:     "elf magic never native",
			fileName: "tool",
			prefix:   machoPrefix([]byte{0x7f, 'E', 'L', 'F'}),
			want:     entities.EntryKindResource,
		},
		{
			name:     "short prefix never native",
			fileName: "stub",
			prefix:   []byte{0xfe, 0xed},
			want:     entities.EntryKindResource,
		},
		{
			name:     "empty file never native",
			fileName: "empty",
			prefix:   nil,
			want:     entities.EntryKindResource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, _ := c.Classify(tt.fileName, 0o644, tt.prefix)
			if kind != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.name, kind, tt.want)
			}
		})
	}
}

// Test bundle-boundary suffix recognition on directories
func TestClassifier_BundleBoundaries(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		dirName string
		want    string
	}{
		{"Firefox.app", entities.EntryKindBundleRoot},
		{"Sparkle.framework", entities.EntryKindBundleRoot},
		{"Share.appex", entities.EntryKindBundleRoot},
		{"Input.plugin", entities.EntryKindBundleRoot},
		{"Helpers.bundle", entities.EntryKindBundleRoot},
		{"Updater.xpc", entities.EntryKindBundleRoot},
		{"UPPERCASE.APP", entities.EntryKindBundleRoot},
		{"Contents", entities.EntryKindDirectory},
		{"framework", entities.EntryKindDirectory},
		{"app.backup", entities.EntryKindDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.dirName, func(t *testing.T) {
			kind, archs := c.Classify(tt.dirName, fs.ModeDir|0o755, nil)
			if kind != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.dirName, kind, tt.want)
			}
			if archs != nil {
				t.Errorf("Classify(%s) returned archs %v for a directory", tt.dirName, archs)
			}
		})
	}
}

// Test that mode decides symlink classification before anything else
func TestClassifier_SymlinkMode(t *testing.T) {
	c := NewClassifier()

	kind, _ := c.Classify("Current", fs.ModeSymlink|0o777, nil)
	if kind != entities.EntryKindSymlink {
		t.Errorf("Classify(symlink) = %s, want %s", kind, entities.EntryKindSymlink)
	}

	// even a bundle-suffixed name is a symlink first
	kind, _ = c.Classify("Alias.app", fs.ModeSymlink|0o777, nil)
	if kind != entities.EntryKindSymlink {
		t.Errorf("Classify(Alias.app symlink) = %s, want %s", kind, entities.EntryKindSymlink)
	}
}

// Test architecture extraction from thin and fat headers
func TestParseArchitectures(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
		want   []string
	}{
		{
			name:   "thin little-endian x86_64",
			prefix: machoPrefix([]byte{0xcf, 0xfa, 0xed, 0xfe}, []byte{0x07, 0x00, 0x00, 0x01}),
			want:   []string{"x86_64"},
		},
		{
			name:   "thin little-endian arm64",
			prefix: machoPrefix([]byte{0xcf, 0xfa, 0xed, 0xfe}, []byte{0x0c, 0x00, 0x00, 0x01}),
			want:   []string{"arm64"},
		},
		{
			name:   "thin big-endian ppc",
			prefix: machoPrefix([]byte{0xfe, 0xed, 0xfa, 0xce}, []byte{0x00, 0x00, 0x00, 0x12}),
			want:   []string{"ppc"},
		},
		{
			name: "universal x86_64 and arm64",
			prefix: machoPrefix(
				[]byte{0xca, 0xfe, 0xba, 0xbe},
				[]byte{0x00, 0x00, 0x00, 0x02},
				[]byte{0x01, 0x00, 0x00, 0x07}, []byte{0, 0, 0, 3}, []byte{0, 0, 0x10, 0}, []byte{0, 0, 0x20, 0}, []byte{0, 0, 0, 14},
				[]byte{0x01, 0x00, 0x00, 0x0c}, []byte{0, 0, 0, 0}, []byte{0, 0, 0x30, 0}, []byte{0, 0, 0x20, 0}, []byte{0, 0, 0, 14},
			),
			want: []string{"x86_64", "arm64"},
		},
		{
			name: "byte-swapped fat i386",
			prefix: machoPrefix(
				[]byte{0xbe, 0xba, 0xfe, 0xca},
				[]byte{0x01, 0x00, 0x00, 0x00},
				[]byte{0x07, 0x00, 0x00, 0x00},
			),
			want: []string{"i386"},
		},
		{
			name:   "not a header",
			prefix: []byte("plain text content here"),
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseArchitectures(tt.prefix)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseArchitectures() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Test that a fat header claiming more slices than the prefix holds is
// truncated, not rejected
func TestParseArchitectures_TruncatedFatHeader(t *testing.T) {
	prefix := machoPrefix(
		[]byte{0xca, 0xfe, 0xba, 0xbe},
		[]byte{0x00, 0x00, 0x01, 0x00}, // claims 256 slices
		[]byte{0x01, 0x00, 0x00, 0x07},
	)

	got := ParseArchitectures(prefix[:12])
	if len(got) != 1 || got[0] != "x86_64" {
		t.Errorf("ParseArchitectures(truncated) = %v, want [x86_64]", got)
	}

	if !IsMachO(prefix[:12]) {
		t.Error("IsMachO(truncated fat header) = false, want true")
	}

	// A header claiming the maximum count must not size the result past
	// the prefix; scanned files choose their own leading bytes.
	hostile := machoPrefix(
		[]byte{0xca, 0xfe, 0xba, 0xbe},
		[]byte{0xff, 0xff, 0xff, 0xff}, // claims 4294967295 slices
		[]byte{0x01, 0x00, 0x00, 0x07},
	)
	for len(hostile) < ClassifierPrefixLen {
		hostile = append(hostile, 0)
	}

	got = ParseArchitectures(hostile)
	if len(got) == 0 || got[0] != "x86_64" {
		t.Fatalf("ParseArchitectures(max count) = %v, want x86_64 first", got)
	}
	if whole := len(hostile) / fatArchRecordLen; len(got) > whole+1 {
		t.Errorf("ParseArchitectures(max count) returned %d slices, a %d-byte prefix holds at most %d",
			len(got), len(hostile), whole+1)
	}
}

// Test unknown cputype formatting
func TestParseArchitectures_UnknownCPUType(t *testing.T) {
	prefix := machoPrefix([]byte{0xcf, 0xfa, 0xed, 0xfe}, []byte{0xff, 0x00, 0x00, 0x00})

	got := ParseArchitectures(prefix)
	if len(got) != 1 || got[0] != "cputype-0xff" {
		t.Errorf("ParseArchitectures(unknown) = %v, want [cputype-0xff]", got)
	}
}
