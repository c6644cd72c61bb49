package jobstate

import "time"

// ShouldSendReminder decides whether an open posting is due for a repeat
// notification. Pure function; the caller supplies now.
//
// A reminder is due when daily reminders are forced on, when the posting was
// never sent, when the reminder window is disabled (<= 0), when the last-sent
// timestamp cannot be parsed, or when at least reminderDays whole days have
// elapsed since the last send. Unparseable timestamps fail open toward
// sending rather than silently muting a posting.
func ShouldSendReminder(lastSentAt *string, now time.Time, reminderDays int, daily bool) bool {
	if daily {
		return true
	}
	if lastSentAt == nil || *lastSentAt == "" {
		return true
	}
	if reminderDays <= 0 {
		return true
	}
	last, ok := ParseTS(*lastSentAt)
	if !ok {
		return true
	}
	elapsed := now.Sub(last)
	if elapsed < 0 {
		return false
	}
	return int(elapsed/(24*time.Hour)) >= reminderDays
}
