package edit

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Cyclone1070/workspacerpc/internal/tool/helper/content"
)

var hunkHeader = regexp.MustCompile(`^@@ -\d+(?:,(\d+))? \+\d+(?:,(\d+))? @@`)

// patchTargets are the file names a patch touches, as the patch tool will see
// them after prefix stripping.
type patchTargets struct {
	names []string
	strip int
}

// parsePatchTargets collects every path named by file headers, rename and
// copy headers, and git diff lines. Hunk bodies are skipped by line count so
// that content lines beginning with "---" are not mistaken for headers.
func parsePatchTargets(patch string) (*patchTargets, error) {
	var prefixed, plain []string
	var literal []string
	oldLeft, newLeft := 0, 0

	for _, line := range content.SplitLines(patch) {
		if oldLeft > 0 || newLeft > 0 {
			switch {
			case strings.HasPrefix(line, "+"):
				newLeft--
			case strings.HasPrefix(line, "-"):
				oldLeft--
			case strings.HasPrefix(line, `\`):
			default:
				oldLeft--
				newLeft--
			}
			continue
		}

		if m := hunkHeader.FindStringSubmatch(line); m != nil {
			oldLeft, newLeft = hunkCount(m[1]), hunkCount(m[2])
			continue
		}

		var names []string
		switch {
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
			names = []string{headerName(line[4:])}
		case strings.HasPrefix(line, "diff --git "):
			names = gitDiffNames(line[len("diff --git "):])
		default:
			for _, prefix := range []string{"rename from ", "rename to ", "copy from ", "copy to "} {
				if rest, ok := strings.CutPrefix(line, prefix); ok {
					literal = append(literal, unquote(rest))
				}
			}
			continue
		}
		for _, n := range names {
			switch {
			case n == "" || n == devNull:
			case strings.HasPrefix(n, "a/") || strings.HasPrefix(n, "b/"):
				prefixed = append(prefixed, n)
			default:
				plain = append(plain, n)
			}
		}
	}

	t := &patchTargets{}
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			t.names = append(t.names, n)
		}
	}
	if len(plain) == 0 && len(prefixed) > 0 {
		t.strip = 1
		for _, n := range prefixed {
			add(n[2:])
		}
	} else {
		for _, n := range append(plain, prefixed...) {
			add(n)
		}
	}
	for _, n := range literal {
		add(n)
	}

	if len(t.names) == 0 {
		return nil, ErrNoPatchTargets
	}
	return t, nil
}

func hunkCount(s string) int {
	if s == "" {
		return 1
	}
	n, _ := strconv.Atoi(s)
	return n
}

// headerName drops the optional tab-separated timestamp of a ---/+++ line.
func headerName(s string) string {
	if i := strings.IndexByte(s, '\t'); i >= 0 {
		s = s[:i]
	}
	return unquote(strings.TrimSpace(s))
}

// gitDiffNames splits "a/x b/y". Unquoted names containing " b/" are ambiguous;
// the last separator wins.
func gitDiffNames(s string) []string {
	if strings.HasPrefix(s, `"`) {
		if end := strings.Index(s[1:], `" `); end >= 0 {
			return []string{unquote(s[:end+2]), unquote(strings.TrimSpace(s[end+3:]))}
		}
	}
	i := strings.LastIndex(s, " b/")
	if i < 0 {
		return nil
	}
	return []string{s[:i], unquote(s[i+1:])}
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}
