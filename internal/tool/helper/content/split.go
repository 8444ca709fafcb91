package content

import "strings"

// SplitLines breaks s at LF or CRLF. Terminators are dropped, and a final
// terminator does not produce a trailing empty line. A lone CR is kept.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	terminated := strings.HasSuffix(s, "\n")
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, line := range lines {
		if i < len(lines)-1 || terminated {
			lines[i] = strings.TrimSuffix(line, "\r")
		}
	}
	return lines
}

// HasCRLF reports whether content uses Windows line endings anywhere.
func HasCRLF(content string) bool {
	return strings.Contains(content, "\r\n")
}

// NormalizeNewlines converts CRLF line endings to LF.
func NormalizeNewlines(content string) string {
	return strings.ReplaceAll(content, "\r\n", "\n")
}

// RestoreCRLF converts LF line endings back to CRLF.
func RestoreCRLF(content string) string {
	return strings.ReplaceAll(content, "\n", "\r\n")
}
