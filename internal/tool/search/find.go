package search

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Cyclone1070/workspacerpc/internal/config"
	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/helper/content"
)

const truncatedSuffix = "...[truncated]"

// FindTool handles search.find.
type FindTool struct {
	fs     fileSystem
	policy pathPolicy
	config *config.Config
}

// NewFindTool creates a new FindTool with injected dependencies.
func NewFindTool(fs fileSystem, policy pathPolicy, cfg *config.Config) *FindTool {
	if fs == nil {
		panic("fs is required")
	}
	if policy == nil {
		panic("policy is required")
	}
	if cfg == nil {
		panic("config is required")
	}
	return &FindTool{fs: fs, policy: policy, config: cfg}
}

// Run scans every allowed text file matching the glob set and reports each
// matching line in discovery order, stopping once the result cap is reached.
// Binary files and files above the read ceiling are skipped; invalid UTF-8 is
// replaced rather than rejected.
func (t *FindTool) Run(ctx context.Context, req *FindRequest) (*FindResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	re, err := compileQuery(req.Query, req.Regex, req.CaseSensitive)
	if err != nil {
		return nil, err
	}

	globs := req.Globs
	if len(globs) == 0 {
		globs = []string{"**/*"}
	}
	maxResults := req.MaxResults
	if maxResults == 0 || maxResults > t.config.Tools.MaxSearchResults {
		maxResults = t.config.Tools.MaxSearchResults
	}

	w, err := newWalker(t.fs, t.policy, req.IncludeIgnored)
	if err != nil {
		return nil, err
	}

	resp := &FindResponse{Matches: []Match{}}
	err = w.walk(ctx, func(abs, rel string, size int64) bool {
		if !matchesAny(globs, rel) || size > t.policy.MaxReadSize() {
			return true
		}
		data, err := t.fs.ReadFile(abs)
		if err != nil {
			// Vanished or unreadable files do not abort the search.
			return true
		}
		if content.IsBinarySample(data, t.config.Tools.BinarySampleSize) {
			return true
		}
		for i, line := range content.SplitLines(string(data)) {
			loc := re.FindStringIndex(line)
			if loc == nil {
				continue
			}
			if len(resp.Matches) >= maxResults {
				resp.Truncated = true
				return false
			}
			resp.Matches = append(resp.Matches, Match{
				Path:   rel,
				Line:   i + 1,
				Column: utf8.RuneCountInString(line[:loc[0]]) + 1,
				Text:   t.clip(strings.TrimSpace(strings.ToValidUTF8(line, "\uFFFD"))),
			})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *FindTool) clip(line string) string {
	if len(line) <= t.config.Tools.MaxLineLength {
		return line
	}
	cut := t.config.Tools.MaxLineLength
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	return line[:cut] + truncatedSuffix
}

// compileQuery builds the line matcher. Literal queries have every regex
// metacharacter escaped.
func compileQuery(query string, isRegex, caseSensitive bool) (*regexp.Regexp, error) {
	expr := query
	if !isRegex {
		expr = regexp.QuoteMeta(query)
	}
	if !caseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &InvalidQueryError{Query: query, Cause: err}
	}
	return re, nil
}

func matchesAny(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}
