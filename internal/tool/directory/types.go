package directory

import (
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Entry types reported in a listing.
const (
	TypeFile    = "file"
	TypeDir     = "dir"
	TypeSymlink = "symlink"
	TypeOther   = "other"
)

// Entry represents a single entry in a directory listing.
type Entry struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// ListRequest lists a directory. Path defaults to the workspace root.
// Globs are matched against each entry's path relative to the listed directory.
type ListRequest struct {
	Path       string   `json:"path,omitempty"`
	Recursive  bool     `json:"recursive,omitempty"`
	Globs      []string `json:"globs,omitempty"`
	MaxEntries int      `json:"maxEntries,omitempty"`
}

func (r *ListRequest) Validate() error {
	if r.MaxEntries < 0 {
		return ErrNegativeMaxEntries
	}
	for _, g := range r.Globs {
		if !doublestar.ValidatePattern(g) {
			return ErrInvalidPattern
		}
	}
	return nil
}

type ListResponse struct {
	Path      string  `json:"path"`
	Entries   []Entry `json:"entries"`
	Truncated bool    `json:"truncated"`
}
