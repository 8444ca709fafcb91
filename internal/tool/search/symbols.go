package search

import (
	"context"
	"errors"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/Cyclone1070/workspacerpc/internal/config"
	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/helper/content"
)

// sourceExtensions selects the files scanned for a workspace-wide symbol query.
var sourceExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true, ".mjs": true, ".ts": true, ".tsx": true,
	".java": true, ".kt": true, ".cs": true, ".rb": true, ".rs": true, ".php": true, ".swift": true,
	".c": true, ".h": true, ".cc": true, ".cpp": true, ".hpp": true, ".sh": true,
}

type symbolPattern struct {
	kind string
	re   *regexp.Regexp
}

// Line-anchored declaration shapes; the first capture group is the name.
// Order matters: the first pattern that matches a line wins.
var symbolPatterns = []symbolPattern{
	{KindFunction, regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)`)},
	{KindFunction, regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)`)},
	{KindFunction, regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`)},
	{KindFunction, regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+([A-Za-z_]\w*)`)},
	{KindClass, regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:public\s+|private\s+|protected\s+)?(?:abstract\s+|final\s+|static\s+)*(?:class|interface|enum)\s+([A-Za-z_$][\w$]*)`)},
	{KindClass, regexp.MustCompile(`^\s*type\s+([A-Za-z_]\w*)\s+(?:struct|interface)\b`)},
	{KindClass, regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait)\s+([A-Za-z_]\w*)`)},
	{KindConstant, regexp.MustCompile(`^\s*(?:export\s+)?const\s+([A-Za-z_$][\w$]*)`)},
	{KindConstant, regexp.MustCompile(`^([A-Z][A-Z0-9_]*)\s*=[^=]`)},
	{KindVariable, regexp.MustCompile(`^\s*(?:export\s+)?(?:let|var)\s+([A-Za-z_$][\w$]*)`)},
}

// SymbolsTool handles code.symbols. Detection is lexical: it recognises
// declaration shapes line by line and does not parse any language.
type SymbolsTool struct {
	fs     fileSystem
	policy pathPolicy
	config *config.Config
}

// NewSymbolsTool creates a new SymbolsTool with injected dependencies.
func NewSymbolsTool(fs fileSystem, policy pathPolicy, cfg *config.Config) *SymbolsTool {
	if fs == nil {
		panic("fs is required")
	}
	if policy == nil {
		panic("policy is required")
	}
	if cfg == nil {
		panic("config is required")
	}
	return &SymbolsTool{fs: fs, policy: policy, config: cfg}
}

// Run scans either one file or, for the "workspace" scope, every source file
// by extension. A non-empty Query keeps symbols whose name contains it,
// ignoring case.
func (t *SymbolsTool) Run(ctx context.Context, req *SymbolsRequest) (*SymbolsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	resp := &SymbolsResponse{Symbols: []Symbol{}}
	query := strings.ToLower(req.Query)
	limit := t.config.Tools.MaxSearchResults

	scan := func(rel string, data []byte) bool {
		if content.IsBinarySample(data, t.config.Tools.BinarySampleSize) {
			return true
		}
		for i, line := range content.SplitLines(string(data)) {
			sym, ok := matchSymbol(line)
			if !ok || (query != "" && !strings.Contains(strings.ToLower(sym.Name), query)) {
				continue
			}
			if len(resp.Symbols) >= limit {
				resp.Truncated = true
				return false
			}
			sym.Path = rel
			sym.Line = i + 1
			resp.Symbols = append(resp.Symbols, sym)
		}
		return true
	}

	if req.Scope != ScopeWorkspace {
		rel, data, err := t.readOne(req.Scope)
		if err != nil {
			return nil, err
		}
		scan(rel, data)
		return resp, nil
	}

	w, err := newWalker(t.fs, t.policy, false)
	if err != nil {
		return nil, err
	}
	err = w.walk(ctx, func(abs, rel string, size int64) bool {
		if !sourceExtensions[path.Ext(rel)] || size > t.policy.MaxReadSize() {
			return true
		}
		data, err := t.fs.ReadFile(abs)
		if err != nil {
			return true
		}
		return scan(rel, data)
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *SymbolsTool) readOne(input string) (string, []byte, error) {
	abs, rel, err := t.policy.Resolve(input)
	if err != nil {
		return "", nil, err
	}
	info, err := t.fs.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, &FileMissingError{Path: rel}
		}
		return "", nil, &StatError{Path: rel, Cause: err}
	}
	if !info.Mode().IsRegular() {
		return "", nil, &NotAFileError{Path: rel}
	}
	if limit := t.policy.MaxReadSize(); info.Size() > limit {
		return "", nil, &TooLargeError{Path: rel, Size: info.Size(), Limit: limit}
	}
	data, err := t.fs.ReadFile(abs)
	if err != nil {
		return "", nil, &ReadError{Path: rel, Cause: err}
	}
	return rel, data, nil
}

func matchSymbol(line string) (Symbol, bool) {
	for _, p := range symbolPatterns {
		if m := p.re.FindStringSubmatch(line); m != nil {
			return Symbol{Name: m[1], Kind: p.kind}, true
		}
	}
	return Symbol{}, false
}
