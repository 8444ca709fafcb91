package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// FileReader is the single filesystem call the loader needs.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

type osReader struct{}

func (osReader) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// LoadError wraps every failure to turn a config file into a Config.
type LoadError struct {
	Path  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Cause)
}
func (e *LoadError) Unwrap() error { return e.Cause }

// Loader reads runtime configuration files.
type Loader struct {
	files FileReader
}

// NewLoader creates a Loader backed by the OS filesystem.
func NewLoader() *Loader {
	return &Loader{files: osReader{}}
}

// NewLoaderWithFS creates a Loader reading through files.
func NewLoaderWithFS(files FileReader) *Loader {
	return &Loader{files: files}
}

// Load decodes the JSON file at path over DefaultConfig and validates the
// result. Keys present in the file win, explicit zero values included; unknown
// keys are rejected. An empty path or a missing file yields the defaults.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := l.files.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}
	return cfg, nil
}

// Load reads path with the OS-backed loader.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}
