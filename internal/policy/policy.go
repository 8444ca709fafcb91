// Package policy holds the workspace access rules and the engine that enforces them.
//
// A Policy is loaded once at startup and never changes for the lifetime of the
// server. Every operation group asks the Engine before touching the filesystem
// or the process table.
package policy

import (
	"fmt"

	"github.com/docker/go-units"
	"gopkg.in/yaml.v3"
)

const (
	// UniversalPattern is the default allow glob.
	UniversalPattern = "**/*"

	DefaultMaxReadSize  = 10 * 1024 * 1024
	DefaultMaxWriteSize = 10 * 1024 * 1024
)

// Operation names that can be gated behind an explicit confirmation flag.
const (
	OpDelete     = "delete"
	OpApplyPatch = "applyPatch"
	OpTaskRun    = "task.run"
)

// Policy is the static set of access rules for one workspace.
type Policy struct {
	// AllowedPaths are doublestar globs relative to the root. Deny always wins.
	AllowedPaths []string `yaml:"allowedPaths" json:"allowedPaths"`
	DeniedPaths  []string `yaml:"deniedPaths" json:"deniedPaths"`

	MaxReadSize  ByteSize `yaml:"maxReadSize" json:"maxReadSize"`
	MaxWriteSize ByteSize `yaml:"maxWriteSize" json:"maxWriteSize"`

	// AllowedCommands lists program names that may be executed. Empty disables execution.
	AllowedCommands []string `yaml:"allowedCommands" json:"allowedCommands"`
	// EnvAllowlist lists host environment variables passed to children. Empty disables filtering.
	EnvAllowlist []string `yaml:"envAllowlist" json:"envAllowlist"`

	RequireConfirmation []string `yaml:"requireConfirmation" json:"requireConfirmation"`
}

// Default returns the policy used when the workspace has no policy file.
func Default() *Policy {
	return &Policy{
		AllowedPaths:        []string{UniversalPattern},
		DeniedPaths:         []string{},
		MaxReadSize:         DefaultMaxReadSize,
		MaxWriteSize:        DefaultMaxWriteSize,
		AllowedCommands:     []string{},
		EnvAllowlist:        []string{},
		RequireConfirmation: []string{OpDelete, OpApplyPatch, OpTaskRun},
	}
}

// ByteSize is a size limit that accepts either a plain integer or a
// human-readable string such as "512KiB" or "10MB".
type ByteSize int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", value.Line)
	}
	if value.Tag == "!!int" {
		var n int64
		if err := value.Decode(&n); err != nil {
			return err
		}
		*b = ByteSize(n)
		return nil
	}
	n, err := units.RAMInBytes(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid size %q: %w", value.Line, value.Value, err)
	}
	*b = ByteSize(n)
	return nil
}

// String renders the size in binary units.
func (b ByteSize) String() string {
	return units.BytesSize(float64(b))
}
