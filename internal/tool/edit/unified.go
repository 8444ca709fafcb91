package edit

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const devNull = "/dev/null"

// unifiedDiff renders a git-style unified diff for one file. A side that does
// not exist is labelled /dev/null.
func unifiedDiff(rel, oldContent, newContent string, oldExists, newExists bool) (diff string, added, removed int) {
	from, to := "a/"+rel, "b/"+rel
	if !oldExists {
		from = devNull
	}
	if !newExists {
		to = devNull
	}
	ud := difflib.UnifiedDiff{
		A:        splitLines(oldContent),
		B:        splitLines(newContent),
		FromFile: from,
		ToFile:   to,
		Context:  3,
	}
	diff, _ = difflib.GetUnifiedDiffString(ud)

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			added++
		} else if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
			removed++
		}
	}
	return diff, added, removed
}

// splitLines keeps line endings and yields no lines for empty content.
// A missing final newline is added so the last line compares like the others.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if last := len(lines) - 1; lines[last] == "" {
		lines = lines[:last]
	} else {
		lines[last] += "\n"
	}
	return lines
}

// describeChange fills a FileChange from the before and after states of a file.
func describeChange(rel string, old, updated []byte, oldExists, newExists bool) FileChange {
	fc := FileChange{Path: rel, OldSize: int64(len(old)), NewSize: int64(len(updated))}
	switch {
	case !oldExists && newExists:
		fc.Change = ChangeCreate
	case oldExists && !newExists:
		fc.Change = ChangeDelete
	case string(old) == string(updated):
		fc.Change = ChangeUnchanged
		return fc
	default:
		fc.Change = ChangeModify
	}
	fc.Diff, fc.AddedLines, fc.RemovedLines = unifiedDiff(rel, string(old), string(updated), oldExists, newExists)
	return fc
}
