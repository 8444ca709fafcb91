package search

import (
	"github.com/bmatcuk/doublestar/v4"
)

// ScopeWorkspace selects every source file in the workspace for code.symbols.
const ScopeWorkspace = "workspace"

// Symbol kinds.
const (
	KindFunction = "function"
	KindClass    = "class"
	KindConstant = "constant"
	KindVariable = "variable"
)

// FindRequest represents the parameters for search.find.
// Globs default to every file; CaseSensitive defaults to false.
type FindRequest struct {
	Query          string   `json:"query"`
	Regex          bool     `json:"regex,omitempty"`
	CaseSensitive  bool     `json:"caseSensitive,omitempty"`
	Globs          []string `json:"globs,omitempty"`
	MaxResults     int      `json:"maxResults,omitempty"`
	IncludeIgnored bool     `json:"includeIgnored,omitempty"`
}

func (r *FindRequest) Validate() error {
	if r.Query == "" {
		return ErrQueryRequired
	}
	if r.MaxResults < 0 {
		return ErrNegativeMaxResults
	}
	for _, g := range r.Globs {
		if !doublestar.ValidatePattern(g) {
			return ErrInvalidPattern
		}
	}
	return nil
}

// Match is a single matching line. Line and Column are 1-based; Column counts
// characters up to the first occurrence in the line.
type Match struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Text   string `json:"text"`
}

type FindResponse struct {
	Matches   []Match `json:"matches"`
	Truncated bool    `json:"truncated"`
}

// SymbolsRequest represents the parameters for code.symbols.
type SymbolsRequest struct {
	Scope string `json:"scope"`
	Query string `json:"query,omitempty"`
}

func (r *SymbolsRequest) Validate() error {
	if r.Scope == "" {
		return ErrScopeRequired
	}
	return nil
}

// Symbol is a lexically detected declaration.
type Symbol struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Path string `json:"path"`
	Line int    `json:"line"`
}

type SymbolsResponse struct {
	Symbols   []Symbol `json:"symbols"`
	Truncated bool     `json:"truncated"`
}
