package parser

import (
	"regexp"
	"strings"
)

// A capitalised word at the very end of a line. There is no word boundary on
// the left, so "McDonald" closes an entry as well.
var reTrailingName = regexp.MustCompile(`[A-Z][a-z]+\s*$`)

type terminator func(line string) bool

var entryTerminators = []terminator{
	closesParenthetical,
	reTrailingName.MatchString,
	func(line string) bool { return strings.HasSuffix(line, ".") },
	func(line string) bool { return strings.HasSuffix(line, ")") },
}

// Segment groups cleaned lines into entries. Lines are trimmed, blanks are
// dropped, and lines are joined with a single space until one of them looks
// like the end of a note. Whatever is left at the end becomes the last entry.
func Segment(cleaned string) []string {
	var entries []string
	var buf []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		buf = append(buf, line)
		if endsEntry(line) {
			entries = append(entries, strings.Join(buf, " "))
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		entries = append(entries, strings.Join(buf, " "))
	}
	return entries
}

func endsEntry(line string) bool {
	for _, t := range entryTerminators {
		if t(line) {
			return true
		}
	}
	return false
}

func closesParenthetical(line string) bool {
	if !strings.Contains(line, "(") || !strings.Contains(line, ")") {
		return false
	}
	return strings.LastIndex(line, ")") == len(line)-1
}
