// Package yaml provides YAML-based run configuration parsing.
package yaml

import (
	"fmt"
	"os"
	"time"

	"github.com/doorman/doorman/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlConfig represents the raw YAML structure
type yamlConfig struct {
	Label     string        `yaml:"label"`
	Allowlist yamlAllowlist `yaml:"allowlist"`
	Security  yamlSecurity  `yaml:"security"`
	Scan      yamlScan      `yaml:"scan"`
	Verbose   bool          `yaml:"verbose"`
}

type yamlAllowlist struct {
	Path      string `yaml:"path"`
	Signature string `yaml:"signature"`
	SignerKey string `yaml:"signer_key"`
}

type yamlSecurity struct {
	// Pointer distinguishes an explicit false from an absent key
	FailOnWorldWritable    *bool    `yaml:"fail_on_world_writable"`
	AllowedSymlinkPrefixes []string `yaml:"allowed_symlink_prefixes"`
	DeniedSymlinkTargets   []string `yaml:"denied_symlink_targets"`
}

type yamlScan struct {
	SkipDirs           []string `yaml:"skip_dirs"`
	ParallelResolvers  int      `yaml:"parallel_resolvers"`
	ToolTimeoutSeconds int      `yaml:"tool_timeout_seconds"`
}

// ConfigParser parses YAML run configuration files
type ConfigParser struct{}

// NewConfigParser creates a new YAML parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// ParseFile parses a YAML configuration file into a RunConfig
func (p *ConfigParser) ParseFile(filePath string) (*entities.RunConfig, error) {
	//nolint:gosec // G304: filePath is the operator-provided configuration path
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a RunConfig. Absent keys keep their
// defaults; present keys replace them.
func (p *ConfigParser) Parse(data []byte) (*entities.RunConfig, error) {
	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := entities.DefaultRunConfig()

	cfg.Label = yamlCfg.Label
	cfg.Verbose = yamlCfg.Verbose
	applyAllowlist(&cfg, yamlCfg.Allowlist)
	applySecurity(&cfg, yamlCfg.Security)
	if err := applyScan(&cfg, yamlCfg.Scan); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyAllowlist(cfg *entities.RunConfig, ya yamlAllowlist) {
	cfg.AllowlistPath = ya.Path
	cfg.AllowlistSignature = ya.Signature
	cfg.AllowlistSignerKey = ya.SignerKey
}

func applySecurity(cfg *entities.RunConfig, ys yamlSecurity) {
	if ys.FailOnWorldWritable != nil {
		cfg.FailOnWorldWritable = *ys.FailOnWorldWritable
	}
	if ys.AllowedSymlinkPrefixes != nil {
		cfg.AllowedSymlinkPrefixes = ys.AllowedSymlinkPrefixes
	}
	if ys.DeniedSymlinkTargets != nil {
		cfg.DeniedSymlinkTargets = ys.DeniedSymlinkTargets
	}
}

func applyScan(cfg *entities.RunConfig, ys yamlScan) error {
	if ys.SkipDirs != nil {
		cfg.SkipDirs = ys.SkipDirs
	}
	if ys.ParallelResolvers < 0 {
		return fmt.Errorf("parallel_resolvers must not be negative, got %d", ys.ParallelResolvers)
	}
	if ys.ParallelResolvers > 0 {
		cfg.ParallelResolvers = ys.ParallelResolvers
	}
	if ys.ToolTimeoutSeconds < 0 {
		return fmt.Errorf("tool_timeout_seconds must not be negative, got %d", ys.ToolTimeoutSeconds)
	}
	if ys.ToolTimeoutSeconds > 0 {
		cfg.ToolTimeout = time.Duration(ys.ToolTimeoutSeconds) * time.Second
	}
	return nil
}
