// Package reconcile merges freshly scraped postings into the persistent
// state store and decides which postings get notified, reminded or closed.
package reconcile

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"bewerbungsagent/internal/jobstate"
	"bewerbungsagent/internal/scraper"
)

// Options are the closure thresholds. Missing-run and not-seen-days closure
// are independent knobs with OR semantics: whichever fires first closes the
// record. Either is disabled by setting it to zero or below.
type Options struct {
	CloseMissingRuns int
	CloseNotSeenDays int
}

// DefaultOptions matches the historical behavior: close after three absent
// runs or seven unseen days.
func DefaultOptions() Options {
	return Options{CloseMissingRuns: 3, CloseNotSeenDays: 7}
}

// Result summarizes one reconciliation pass.
type Result struct {
	// Seen holds every JobUID present in the fresh batch.
	Seen mapset.Set[string]
	// NewlyAdded counts records created this pass.
	NewlyAdded int
	// MarkedClosed counts records transitioned to closed this pass.
	MarkedClosed int
}

// Merge reconciles a scraped batch into state. stamp is the run timestamp
// written into the records; now is the same instant as a time for day math.
//
// Present postings are created or refreshed (non-empty scraped values win,
// prior values survive gaps in the scrape). A closed record that reappears
// reopens as notified if it was ever sent, otherwise as new. Records in
// applied/ignored are never touched. Absent open records age via
// missing_runs and close once either threshold is crossed; a record that
// reappears before that simply has its counter reset.
func Merge(batch []scraper.Posting, state jobstate.State, stamp string, now time.Time, opts Options) Result {
	seen := mapset.NewSet[string]()
	result := Result{Seen: seen}

	for _, posting := range batch {
		uid, canonicalURL := jobstate.BuildJobUID(posting.Fields())
		seen.Add(uid)

		record, exists := state[uid]
		if !exists {
			state[uid] = newRecord(uid, canonicalURL, posting, stamp)
			result.NewlyAdded++
			continue
		}
		refreshRecord(record, canonicalURL, posting, stamp)
	}

	for uid, record := range state {
		if seen.Contains(uid) || jobstate.IsTerminal(record.Status) {
			continue
		}
		record.MissingRuns++

		daysMissing := 0
		if lastSeen, ok := jobstate.ParseTS(record.LastSeenAt); ok {
			daysMissing = int(now.Sub(lastSeen) / (24 * time.Hour))
		}
		if (opts.CloseMissingRuns > 0 && record.MissingRuns >= opts.CloseMissingRuns) ||
			(opts.CloseNotSeenDays > 0 && daysMissing >= opts.CloseNotSeenDays) {
			record.Status = jobstate.StatusClosed
			result.MarkedClosed++
		}
	}

	return result
}

func newRecord(uid, canonicalURL string, p scraper.Posting, stamp string) *jobstate.Record {
	if canonicalURL == "" {
		canonicalURL = p.Link
	}
	return &jobstate.Record{
		JobUID:       uid,
		Source:       p.Source,
		CanonicalURL: canonicalURL,
		Link:         p.Link,
		Title:        p.Title,
		Company:      p.Company,
		Location:     p.Location,
		FirstSeenAt:  stamp,
		LastSeenAt:   stamp,
		Status:       jobstate.StatusNew,
		Score:        jobstate.Score(p.Score),
		Match:        p.Match,
		Date:         p.Date,
		CommuteMin:   p.CommuteMin,
	}
}

// refreshRecord updates mutable metadata. Text fields only move to a
// non-empty scraped value; the score is recomputed on every scrape and
// overwrites unconditionally, including down to zero. first_seen_at is
// never touched.
func refreshRecord(record *jobstate.Record, canonicalURL string, p scraper.Posting, stamp string) {
	if p.Source != "" {
		record.Source = p.Source
	}
	if canonicalURL != "" {
		record.CanonicalURL = canonicalURL
	} else if record.CanonicalURL == "" {
		record.CanonicalURL = p.Link
	}
	if p.Link != "" {
		record.Link = p.Link
	}
	if p.Title != "" {
		record.Title = p.Title
	}
	if p.Company != "" {
		record.Company = p.Company
	}
	if p.Location != "" {
		record.Location = p.Location
	}
	record.Score = jobstate.Score(p.Score)
	if p.Match != "" {
		record.Match = p.Match
	}
	if p.Date != "" {
		record.Date = p.Date
	}
	if p.CommuteMin != nil {
		record.CommuteMin = p.CommuteMin
	}
	record.LastSeenAt = stamp
	record.MissingRuns = 0

	if jobstate.IsUserTerminal(record.Status) {
		return
	}
	if record.Status == jobstate.StatusClosed {
		if record.LastSentAt != nil && *record.LastSentAt != "" {
			record.Status = jobstate.StatusNotified
		} else {
			record.Status = jobstate.StatusNew
		}
	}
}
