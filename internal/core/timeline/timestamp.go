package timeline

import (
	"strings"
	"time"
)

// Timestamp layouts seen across exports: RFC3339 with offset or Z, and
// offset-less variants. Fractional seconds are normalized before parsing.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999Z07:00",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses an exported timestamp string into an instant.
// Handles .NET-style timestamps with 7+ fractional digits by truncating to
// 6. Returns false on any malformed input; callers must treat a failed
// parse as "duration unknown", never as zero duration.
func ParseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	s := truncateFraction(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// truncateFraction caps fractional seconds at 6 digits, keeping any
// trailing zone suffix intact.
func truncateFraction(s string) string {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return s
	}

	frac := dot + 1
	end := frac
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end-frac <= 6 {
		return s
	}
	return s[:frac+6] + s[end:]
}

// MsBetween returns the elapsed milliseconds between two raw timestamps,
// or 0 if either fails to parse or the pair is out of order. Zero is the
// explicit "unknown" sentinel used throughout the reconstruction.
func MsBetween(startRaw, endRaw string) float64 {
	start, okStart := ParseTimestamp(startRaw)
	end, okEnd := ParseTimestamp(endRaw)
	if !okStart || !okEnd {
		return 0.0
	}

	ms := end.Sub(start).Seconds() * 1000
	if ms < 0 {
		return 0.0
	}
	return ms
}

// EpochSecondsToISO converts epoch seconds to an ISO-8601 UTC string.
// Returns "" for non-positive input.
func EpochSecondsToISO(epoch float64) string {
	if epoch <= 0 {
		return ""
	}
	sec := int64(epoch)
	nsec := int64((epoch - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC().Format("2006-01-02T15:04:05.999999Z07:00")
}

// EpochMillisToISO converts epoch milliseconds to an ISO-8601 UTC string.
func EpochMillisToISO(epochMs float64) string {
	return EpochSecondsToISO(epochMs / 1000)
}
