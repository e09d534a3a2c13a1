package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)

// NormalizeSpaces collapses runs of horizontal whitespace inside each line and
// trims every line. Line breaks survive.
func NormalizeSpaces(input string) string {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(reSpaces.ReplaceAllString(line, " "))
	}
	return strings.Join(lines, "\n")
}

// JoinSections glues non-blank text blocks with a newline.
func JoinSections(sections ...string) string {
	out := make([]string, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimRight(s, "\n"))
		}
	}
	return strings.Join(out, "\n")
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// SanitizeFileName makes a mail Message-ID safe to use inside a file name.
func SanitizeFileName(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_", "\"", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}

func HasAnySuffix(name string, suffixes ...string) bool {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
