package aggregator

import (
	"strings"

	"github.com/xhad/brief/internal/models"
)

// ParseFAQ extracts question/answer pairs from model output in the
// prompted "Q: ... / A: ..." layout. Lines following an answer are
// folded into it until the next question starts; pairs without both
// sides are dropped.
func ParseFAQ(raw string) []models.FAQItem {
	var items []models.FAQItem

	var question string
	var answer strings.Builder

	flush := func() {
		q := strings.TrimSpace(question)
		a := strings.TrimSpace(answer.String())
		if q != "" && a != "" {
			items = append(items, models.FAQItem{Question: q, Answer: a})
		}
		question = ""
		answer.Reset()
	}

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(stripListMarker(line))

		switch {
		case hasTagPrefix(trimmed, "Q:"):
			flush()
			question = strings.TrimSpace(trimmed[2:])
		case hasTagPrefix(trimmed, "A:"):
			if answer.Len() > 0 {
				answer.WriteString(" ")
			}
			answer.WriteString(strings.TrimSpace(trimmed[2:]))
		case trimmed == "":
			// blank lines separate pairs but carry no content
		default:
			// continuation of whichever side is open
			if answer.Len() > 0 {
				answer.WriteString(" ")
				answer.WriteString(trimmed)
			} else if question != "" {
				question += " " + trimmed
			}
		}
	}
	flush()

	return items
}

// stripListMarker drops a leading "1." / "2)" style enumerator that some
// models add in front of Q: lines.
func stripListMarker(line string) string {
	trimmed := strings.TrimSpace(line)
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(trimmed) {
		return line
	}
	if trimmed[i] == '.' || trimmed[i] == ')' {
		return strings.TrimSpace(trimmed[i+1:])
	}
	return line
}

func hasTagPrefix(line, tag string) bool {
	return len(line) >= len(tag) && strings.EqualFold(line[:len(tag)], tag)
}
