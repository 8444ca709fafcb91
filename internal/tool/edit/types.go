package edit

import (
	"github.com/bmatcuk/doublestar/v4"
)

// -- Batch Edit --

// Operation replaces Before with After. An empty Before appends After to the
// end of the file. ExpectedReplacements defaults to 1.
type Operation struct {
	Before               string `json:"before"`
	After                string `json:"after"`
	ExpectedReplacements int    `json:"expectedReplacements,omitempty"`
}

type FileEdit struct {
	Path       string      `json:"path"`
	Operations []Operation `json:"operations"`
}

type BatchEditRequest struct {
	Edits  []FileEdit `json:"edits"`
	DryRun bool       `json:"dryRun,omitempty"`
}

func (r *BatchEditRequest) Validate() error {
	if len(r.Edits) == 0 {
		return ErrEditsRequired
	}
	for _, e := range r.Edits {
		if e.Path == "" {
			return ErrPathRequired
		}
		if len(e.Operations) == 0 {
			return ErrOperationsRequired
		}
		for _, op := range e.Operations {
			if op.ExpectedReplacements < 0 {
				return ErrNegativeCount
			}
		}
	}
	return nil
}

// FileChange describes the effect of an edit-group operation on one file.
type FileChange struct {
	Path         string `json:"path"`
	Change       string `json:"change"`
	OldSize      int64  `json:"oldSize"`
	NewSize      int64  `json:"newSize"`
	AddedLines   int    `json:"addedLines"`
	RemovedLines int    `json:"removedLines"`
	Diff         string `json:"diff"`
}

// Change kinds.
const (
	ChangeCreate    = "create"
	ChangeModify    = "modify"
	ChangeDelete    = "delete"
	ChangeUnchanged = "unchanged"
)

type BatchEditResponse struct {
	DryRun bool         `json:"dryRun"`
	Files  []FileChange `json:"files"`
}

// -- Format --

type FormatRequest struct {
	Path   string `json:"path"`
	DryRun bool   `json:"dryRun,omitempty"`
}

func (r *FormatRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	return nil
}

type FormatResponse struct {
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
	DryRun  bool   `json:"dryRun"`
	Diff    string `json:"diff"`
}

// -- Diff --

// DiffRequest limits the diff to paths under BasePath that match at least one
// include glob (all when empty) and no exclude glob.
type DiffRequest struct {
	BasePath     string   `json:"basePath,omitempty"`
	IncludeGlobs []string `json:"includeGlobs,omitempty"`
	ExcludeGlobs []string `json:"excludeGlobs,omitempty"`
}

func (r *DiffRequest) Validate() error {
	for _, g := range append(append([]string{}, r.IncludeGlobs...), r.ExcludeGlobs...) {
		if !doublestar.ValidatePattern(g) {
			return ErrInvalidPattern
		}
	}
	return nil
}

// Diff sources.
const (
	SourceGit      = "git"
	SourceSnapshot = "snapshot"
)

type FileDiff struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Diff   string `json:"diff"`
}

type DiffResponse struct {
	Source string     `json:"source"`
	Files  []FileDiff `json:"files"`
	Diff   string     `json:"diff"`
}

// -- Apply Patch --

type ApplyPatchRequest struct {
	Patch     string `json:"patch"`
	DryRun    bool   `json:"dryRun,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

func (r *ApplyPatchRequest) Validate() error {
	if r.Patch == "" {
		return ErrPatchRequired
	}
	return nil
}

type ApplyPatchResponse struct {
	DryRun bool         `json:"dryRun"`
	Files  []FileChange `json:"files"`
	Diff   string       `json:"diff"`
}
