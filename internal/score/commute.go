package score

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"bewerbungsagent/internal/scraper"
)

// CommuteEntry maps a normalized place keyword to commute minutes.
type CommuteEntry struct {
	Key     string
	Minutes int
}

var digitsRe = regexp.MustCompile(`\d+`)

// ParseCommuteMap parses the commute configuration string, e.g.
// "Zürich=45, Winterthur: 60". Both ":" and "=" separate place and minutes;
// when a value carries several numbers the largest wins. Entries are ordered
// longest key first so "zurich oerlikon" matches before "zurich".
func ParseCommuteMap(raw string) []CommuteEntry {
	var entries []CommuteEntry
	for _, chunk := range strings.Split(raw, ",") {
		part := strings.TrimSpace(chunk)
		if part == "" {
			continue
		}

		var name, minutesRaw string
		switch {
		case strings.Contains(part, ":"):
			name, minutesRaw, _ = strings.Cut(part, ":")
		case strings.Contains(part, "="):
			name, minutesRaw, _ = strings.Cut(part, "=")
		default:
			continue
		}

		key := Normalize(name)
		if key == "" {
			continue
		}
		minutes := 0
		found := false
		for _, num := range digitsRe.FindAllString(minutesRaw, -1) {
			if n, err := strconv.Atoi(num); err == nil {
				found = true
				if n > minutes {
					minutes = n
				}
			}
		}
		if !found {
			continue
		}
		entries = append(entries, CommuteEntry{Key: key, Minutes: minutes})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return len(entries[i].Key) > len(entries[j].Key)
	})
	return entries
}

// CommuteMinutes returns the commute estimate for a posting, matching map
// keys against location and title text. Nil when nothing matches.
func CommuteMinutes(p scraper.Posting, entries []CommuteEntry) *int {
	if len(entries) == 0 {
		return nil
	}
	texts := []string{Normalize(p.Location), Normalize(p.Title)}
	for _, entry := range entries {
		for _, text := range texts {
			if entry.Key != "" && strings.Contains(text, entry.Key) {
				minutes := entry.Minutes
				return &minutes
			}
		}
	}
	return nil
}
