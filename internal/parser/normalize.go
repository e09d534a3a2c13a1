package parser

import (
	"regexp"
	"strings"
)

var (
	reTimestampPrefix = regexp.MustCompile(`\[(\d{1,2}/\d{1,2},\s*\d{1,2}:\d{2})\]\s*[^:]+:`)
	reForwarded       = regexp.MustCompile(`(?i)-\s*Forwarded\s*message\s*-`)
	reSectionHeader   = regexp.MustCompile(`(?i)^\s*(PTFE|PFA|SR#\d+)\s*$`)
	reBullet          = regexp.MustCompile(`^\s*[°•\-]\s*`)
)

// Pass is a single text cleanup step.
type Pass func(string) string

var normalizePasses = []Pass{
	StripTimestamps,
	StripForwarded,
	StripSectionHeaders,
	StripBullets,
}

// Normalize removes chat noise (timestamp/sender prefixes, forwarding
// markers, section headers, bullet glyphs) while keeping line breaks.
func Normalize(raw string) string {
	out := raw
	for _, pass := range normalizePasses {
		out = pass(out)
	}
	return out
}

// StripTimestamps removes "[12/31, 09:15] Name:" prefixes anywhere in the text.
func StripTimestamps(text string) string {
	return reTimestampPrefix.ReplaceAllString(text, "")
}

func StripForwarded(text string) string {
	return reForwarded.ReplaceAllString(text, "")
}

// StripSectionHeaders blanks lines that hold only PTFE, PFA or SR#<n>.
func StripSectionHeaders(text string) string {
	return mapLines(text, func(line string) string {
		if reSectionHeader.MatchString(line) {
			return ""
		}
		return line
	})
}

// StripBullets drops one leading bullet glyph per line.
func StripBullets(text string) string {
	return mapLines(text, func(line string) string {
		return reBullet.ReplaceAllString(line, "")
	})
}

// CountTimestampPrefixes reports how many chat timestamp/sender prefixes the
// text carries.
func CountTimestampPrefixes(text string) int {
	return len(reTimestampPrefix.FindAllStringIndex(text, -1))
}

// HasSectionHeader reports whether any line is a bare section header.
func HasSectionHeader(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if reSectionHeader.MatchString(line) {
			return true
		}
	}
	return false
}

func mapLines(text string, fn func(string) string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = fn(line)
	}
	return strings.Join(lines, "\n")
}
