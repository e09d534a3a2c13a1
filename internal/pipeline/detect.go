package pipeline

import (
	"strings"

	"maintlog/internal/parser"
	"maintlog/internal/util"
)

type DetectResult struct {
	IsChatLog bool
	Score     float64
	Reason    string
}

var (
	subjectKeywords = []string{"maintenance", "work report", "service", "repair", "breakdown", "whatsapp", "chat"}
	textKeywords    = []string{"replaced", "repair", "leak", "checked", "technician", "m/s", "forwarded message"}
)

// DetectChatLog scores how likely a mail carries a maintenance chat log.
func DetectChatLog(subject, text string, attachmentNames []string, threshold float64) DetectResult {
	subject = strings.ToLower(subject)
	lower := strings.ToLower(text)

	score := 0.0
	for _, kw := range subjectKeywords {
		if strings.Contains(subject, kw) {
			score += 0.2
		}
	}
	for _, kw := range textKeywords {
		if strings.Contains(lower, kw) {
			score += 0.1
		}
	}

	stamps := parser.CountTimestampPrefixes(text)
	if stamps >= 2 {
		score += 0.4
	} else if stamps == 1 {
		score += 0.2
	}

	if parser.HasSectionHeader(text) {
		score += 0.1
	}

	for _, name := range attachmentNames {
		if util.HasAnySuffix(name, ".txt") || strings.Contains(strings.ToLower(name), "whatsapp chat") {
			score += 0.25
			break
		}
	}

	if score > 1 {
		score = 1
	}

	isLog := score >= threshold
	reason := "rules_negative"
	if isLog {
		reason = "rules_positive"
	}
	return DetectResult{IsChatLog: isLog, Score: score, Reason: reason}
}
