package parser

import (
	"regexp"
	"strings"
	"unicode"

	"maintlog/internal"
)

// SupplierArti is the one vendor name recognised verbatim.
const SupplierArti = "M/s Arti"

var (
	reLeadingEquipment = regexp.MustCompile(`^([A-Z][\w\s\-#/]+?)[,.]`)
	reProperName       = regexp.MustCompile(`^[A-Z][a-z]+( [A-Z][a-z]+)*$`)
	reTrailingWord     = regexp.MustCompile(`\b([A-Z][a-z]+)\s*$`)
)

// rule inspects the text left after equipment extraction. ok=false hands the
// text to the next rule.
type rule func(text string) (rec internal.Record, ok bool)

var technicianRules = []rule{
	nameAfterLastComma,
	trailingParenthetical,
	trailingBareName,
	fallback,
}

// Extract splits one entry into equipment, description and technician.
func Extract(entry string) internal.Record {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return internal.Record{}
	}
	if rec, ok := supplierShortcut(entry); ok {
		return rec
	}

	equipment, rest := splitEquipment(entry)
	for _, r := range technicianRules {
		if rec, ok := r(rest); ok {
			rec.Equipment = equipment
			return rec
		}
	}
	return internal.Record{Equipment: equipment}
}

func supplierShortcut(entry string) (internal.Record, bool) {
	idx := strings.Index(entry, SupplierArti)
	if idx < 0 {
		return internal.Record{}, false
	}
	return internal.Record{
		Description: strings.TrimSpace(entry[:idx]),
		Technician:  SupplierArti,
	}, true
}

// splitEquipment peels a leading "Valve-B7," style token off the entry.
func splitEquipment(entry string) (equipment, rest string) {
	m := reLeadingEquipment.FindStringSubmatch(entry)
	if m == nil {
		return "", entry
	}
	equipment = strings.TrimSpace(m[1])
	rest = strings.TrimLeftFunc(entry[len(equipment):], isSeparator)
	return equipment, rest
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '.' || r == '-'
}

func nameAfterLastComma(text string) (internal.Record, bool) {
	idx := strings.LastIndex(text, ",")
	if idx < 0 {
		return internal.Record{}, false
	}
	candidate := strings.TrimSpace(text[idx+1:])
	if !reProperName.MatchString(candidate) {
		return internal.Record{}, false
	}
	return internal.Record{
		Description: strings.TrimSpace(text[:idx]),
		Technician:  candidate,
	}, true
}

func trailingParenthetical(text string) (internal.Record, bool) {
	open := strings.LastIndex(text, "(")
	closing := strings.LastIndex(text, ")")
	if open < 0 || closing < 0 || open > closing {
		return internal.Record{}, false
	}
	return internal.Record{
		Description: strings.TrimSpace(text[:open]),
		Technician:  strings.TrimSpace(text[open+1 : closing]),
	}, true
}

func trailingBareName(text string) (internal.Record, bool) {
	loc := reTrailingWord.FindStringSubmatchIndex(text)
	if loc == nil {
		return internal.Record{}, false
	}
	return internal.Record{
		Description: strings.TrimSpace(text[:loc[0]]),
		Technician:  text[loc[2]:loc[3]],
	}, true
}

func fallback(text string) (internal.Record, bool) {
	return internal.Record{Description: strings.TrimSpace(text)}, true
}
