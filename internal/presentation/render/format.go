package render

import (
	"fmt"
	"strings"
	"unicode"
)

// FormatDuration renders milliseconds as a human-readable duration.
func FormatDuration(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.0fms", ms)
	}
	seconds := ms / 1000
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	minutes := int(seconds) / 60
	remaining := seconds - float64(minutes*60)
	return fmt.Sprintf("%dm %.1fs", minutes, remaining)
}

// pct renders part as a percentage of total, or a dash when the total is
// unknown.
func pct(part, total float64) string {
	if total <= 0 {
		return "—"
	}
	return fmt.Sprintf("%.1f%%", part/total*100)
}

var mermaidReplacer = strings.NewReplacer(
	`"`, "'",
	"\n", " ",
	"\r", "",
	"#", "",
	";", ",",
	":", " -",
)

// sanitizeMermaid strips characters that break Mermaid labels and caps the
// label at 80 runes.
func sanitizeMermaid(text string) string {
	cleaned := mermaidReplacer.Replace(text)
	runes := []rune(cleaned)
	if len(runes) > 80 {
		return string(runes[:80])
	}
	return cleaned
}

// participantID derives a valid Mermaid node identifier from a display name.
func participantID(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "Unknown"
	}
	return b.String()
}

// truncate caps a string at limit runes, appending an ellipsis when it cuts.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
