// Package services implements domain business logic and use cases.
package services

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io/fs"
	"strings"

	"github.com/doorman/doorman/internal/domain/entities"
)

// ClassifierPrefixLen is the number of leading bytes the classifier needs
// from a regular file. A bounded prefix read is what keeps multi-gigabyte
// bundles scannable in seconds.
const ClassifierPrefixLen = 512

// Mach-O header magic numbers as stored on disk: thin 32/64-bit and
// fat/universal 32/64-bit, each in both byte orders.
var (
	magicThin32BE = []byte{0xfe, 0xed, 0xfa, 0xce}
	magicThin64BE = []byte{0xfe, 0xed, 0xfa, 0xcf}
	magicThin32LE = []byte{0xce, 0xfa, 0xed, 0xfe}
	magicThin64LE = []byte{0xcf, 0xfa, 0xed, 0xfe}
	magicFat32BE  = []byte{0xca, 0xfe, 0xba, 0xbe}
	magicFat64BE  = []byte{0xca, 0xfe, 0xba, 0xbf}
	magicFat32LE  = []byte{0xbe, 0xba, 0xfe, 0xca}
	magicFat64LE  = []byte{0xbf, 0xba, 0xfe, 0xca}
)

// CPU type values from the Mach-O header.
const (
	cpuTypeI386  = 0x00000007
	cpuTypeX8664 = 0x01000007
	cpuTypeARM   = 0x0000000c
	cpuTypeARM64 = 0x0100000c
	cpuTypePPC   = 0x00000012
	cpuTypePPC64 = 0x01000012
)

// Fat header layout: magic + entry count, then one arch record per slice.
const (
	fatHeaderLen     = 8
	fatArchRecordLen = 20
	fatArch64RecLen  = 32
)

// classifier decides what a single filesystem entry is. Native-executable
// detection uses magic bytes only, never file extensions or MIME types.
type classifier struct {
	bundleSuffixes []string
}

// DefaultBundleSuffixes returns the recognized bundle-boundary name suffixes
func DefaultBundleSuffixes() []string {
	return []string{".app", ".framework", ".appex", ".plugin", ".bundle", ".xpc"}
}

// NewClassifier creates a classifier with the default bundle-boundary
// suffix set
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewClassifier() *classifier {
	return NewClassifierWithSuffixes(DefaultBundleSuffixes())
}

// NewClassifierWithSuffixes creates a classifier with a custom
// bundle-boundary suffix set
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewClassifierWithSuffixes(suffixes []string) *classifier {
	normalized := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		normalized = append(normalized, strings.ToLower(s))
	}
	return &classifier{bundleSuffixes: normalized}
}

// Classify maps one entry to its kind from its name, lstat mode, and leading
// bytes. prefix may be nil or short for non-regular files; archs is non-nil
// only for native executables.
func (c *classifier) Classify(name string, mode fs.FileMode, prefix []byte) (kind string, archs []string) {
	switch {
	case mode&fs.ModeSymlink != 0:
		return entities.EntryKindSymlink, nil
	case mode.IsDir():
		if c.IsBundleRoot(name) {
			return entities.EntryKindBundleRoot, nil
		}
		return entities.EntryKindDirectory, nil
	case mode.IsRegular():
		if IsMachO(prefix) {
			return entities.EntryKindNative, ParseArchitectures(prefix)
		}
		return entities.EntryKindResource, nil
	default:
		// Sockets, devices and fifos carry no code; the security checker
		// still sees them.
		return entities.EntryKindResource, nil
	}
}

// IsBundleRoot reports whether a directory name ends in a recognized
// bundle-boundary suffix
func (c *classifier) IsBundleRoot(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range c.bundleSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// IsMachO reports whether the leading bytes match any Mach-O or
// fat/universal header magic
func IsMachO(prefix []byte) bool {
	if len(prefix) < 4 {
		return false
	}
	head := prefix[:4]
	for _, magic := range [][]byte{
		magicThin32BE, magicThin64BE, magicThin32LE, magicThin64LE,
		magicFat32BE, magicFat64BE, magicFat32LE, magicFat64LE,
	} {
		if bytes.Equal(head, magic) {
			return true
		}
	}
	return false
}

// ParseArchitectures extracts the CPU architectures declared in a Mach-O or
// fat header prefix. Returns nil when the prefix is not a recognized header.
// For fat binaries only the arch records that fit in the prefix are read;
// real universal binaries carry two or three.
func ParseArchitectures(prefix []byte) []string {
	if len(prefix) < fatHeaderLen {
		return nil
	}
	head := prefix[:4]
	switch {
	case bytes.Equal(head, magicThin32BE), bytes.Equal(head, magicThin64BE):
		return []string{cpuTypeName(binary.BigEndian.Uint32(prefix[4:8]))}
	case bytes.Equal(head, magicThin32LE), bytes.Equal(head, magicThin64LE):
		return []string{cpuTypeName(binary.LittleEndian.Uint32(prefix[4:8]))}
	case bytes.Equal(head, magicFat32BE):
		return fatArchitectures(prefix, binary.BigEndian, fatArchRecordLen)
	case bytes.Equal(head, magicFat64BE):
		return fatArchitectures(prefix, binary.BigEndian, fatArch64RecLen)
	case bytes.Equal(head, magicFat32LE):
		return fatArchitectures(prefix, binary.LittleEndian, fatArchRecordLen)
	case bytes.Equal(head, magicFat64LE):
		return fatArchitectures(prefix, binary.LittleEndian, fatArch64RecLen)
	default:
		return nil
	}
}

func fatArchitectures(prefix []byte, order binary.ByteOrder, recordLen int) []string {
	count := int(order.Uint32(prefix[4:fatHeaderLen]))
	// The declared count is untrusted file content; clamp it to the number
	// of records the prefix can hold before sizing the allocation.
	if limit := (len(prefix)-fatHeaderLen)/recordLen + 1; count < 0 || count > limit {
		count = limit
	}
	archs := make([]string, 0, count)
	for i := 0; i < count; i++ {
		offset := fatHeaderLen + i*recordLen
		if offset+4 > len(prefix) {
			break
		}
		archs = append(archs, cpuTypeName(order.Uint32(prefix[offset:offset+4])))
	}
	if len(archs) == 0 {
		return nil
	}
	return archs
}

func cpuTypeName(cpuType uint32) string {
	switch cpuType {
	case cpuTypeX8664:
		return "x86_64"
	case cpuTypeARM64:
		return "arm64"
	case cpuTypeI386:
		return "i386"
	case cpuTypeARM:
		return "arm"
	case cpuTypePPC:
		return "ppc"
	case cpuTypePPC64:
		return "ppc64"
	default:
		return fmt.Sprintf("cputype-0x%x", cpuType)
	}
}
