package jobstate

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Score is an advisory match score. State files written by older versions
// (and hand edits) sometimes carry it as a string or leave it empty, so
// unmarshalling is tolerant: anything non-numeric counts as zero.
type Score int

func (s *Score) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			*s = 0
			return nil
		}
		raw = strings.TrimSpace(text)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*s = Score(f)
	} else {
		*s = 0
	}
	return nil
}

// Record is the persisted tracking entry for one JobUID. Records are never
// deleted; they are retired through the closed/applied/ignored statuses.
type Record struct {
	JobUID       string  `json:"job_uid"`
	Source       string  `json:"source"`
	CanonicalURL string  `json:"canonical_url"`
	Link         string  `json:"link"`
	Title        string  `json:"title"`
	Company      string  `json:"company"`
	Location     string  `json:"location"`
	FirstSeenAt  string  `json:"first_seen_at"`
	LastSeenAt   string  `json:"last_seen_at"`
	LastSentAt   *string `json:"last_sent_at"`
	Status       string  `json:"status"`
	Score        Score   `json:"score"`
	Match        string  `json:"match"`
	Date         string  `json:"date,omitempty"`
	CommuteMin   *int    `json:"commute_min"`
	MissingRuns  int     `json:"missing_runs"`
	AppliedAt    string  `json:"applied_at,omitempty"`
	LegacyKey    string  `json:"legacy_key,omitempty"`
}

// State maps JobUID to its record. The whole map is read into memory at the
// start of a run and written back once at the end.
type State map[string]*Record

// CountStatus returns how many records currently carry the given status.
func (s State) CountStatus(status string) int {
	n := 0
	for _, record := range s {
		if record.Status == status {
			n++
		}
	}
	return n
}

// notifiedRecord is the skeleton used when migrating legacy seen-jobs
// entries: anything the old cache knew about had already been sent once.
func notifiedRecord(now string) *Record {
	sent := now
	return &Record{
		FirstSeenAt: now,
		LastSeenAt:  now,
		LastSentAt:  &sent,
		Status:      StatusNotified,
	}
}
