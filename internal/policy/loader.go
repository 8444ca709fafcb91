package policy

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Load reads the policy file at root/name. A missing file yields Default().
// Keys present in the file replace the defaults, including explicit empty lists.
func Load(root, name string) (*Policy, error) {
	p := filepath.Join(root, name)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, &FileError{Path: p, Cause: err}
	}

	pol, err := Parse(data)
	if err != nil {
		return nil, &FileError{Path: p, Cause: err}
	}
	return pol, nil
}

// Parse decodes YAML (or JSON, which is valid YAML) over the default policy.
func Parse(data []byte) (*Policy, error) {
	pol := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(pol); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := pol.Validate(); err != nil {
		return nil, err
	}
	return pol, nil
}

// Validate rejects malformed globs and negative limits.
func (p *Policy) Validate() error {
	for _, list := range [][]string{p.AllowedPaths, p.DeniedPaths} {
		for _, pattern := range list {
			if !doublestar.ValidatePattern(pattern) {
				return &InvalidPatternError{Pattern: pattern}
			}
		}
	}
	if p.MaxReadSize < 0 {
		return errors.New("maxReadSize must be >= 0")
	}
	if p.MaxWriteSize < 0 {
		return errors.New("maxWriteSize must be >= 0")
	}
	return nil
}
