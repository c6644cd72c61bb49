package jobstate

import (
	"strings"
	"time"
)

const isoLayout = "2006-01-02T15:04:05Z"

// NowISO returns the current UTC time as an ISO-8601 string with Z suffix
// and second precision. All timestamps in the state file use this format.
func NowISO() string {
	return FormatTS(time.Now())
}

// FormatTS renders t in the state file's timestamp format.
func FormatTS(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(isoLayout)
}

// ParseTS parses a state file timestamp. It accepts RFC 3339 with either a
// Z or numeric offset, plus bare date-time strings from hand-edited files.
// Returns ok=false on anything unparseable; callers treat that as "unknown"
// and fail open (reminders due, no premature closure).
func ParseTS(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}
