package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bewerbungsagent/internal/jobstate"
	"bewerbungsagent/internal/scraper"
)

func samplePosting(title, link string) scraper.Posting {
	return scraper.Posting{
		Title:   title,
		Company: "Acme AG",
		Link:    link,
		Source:  "jobs.ch",
		Score:   10,
		Match:   "good",
	}
}

func uidOf(p scraper.Posting) string {
	uid, _ := jobstate.BuildJobUID(p.Fields())
	return uid
}

func TestMergeCreatesNewRecords(t *testing.T) {
	state := jobstate.State{}
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	stamp := jobstate.FormatTS(now)

	batch := []scraper.Posting{
		samplePosting("Engineer A", "https://jobs.ch/a"),
		samplePosting("Engineer B", "https://jobs.ch/b"),
		samplePosting("Engineer C", "https://jobs.ch/c"),
	}
	result := Merge(batch, state, stamp, now, DefaultOptions())

	assert.Equal(t, 3, result.NewlyAdded)
	assert.Equal(t, 0, result.MarkedClosed)
	require.Len(t, state, 3)

	record := state[uidOf(batch[0])]
	require.NotNil(t, record)
	assert.Equal(t, jobstate.StatusNew, record.Status)
	assert.Equal(t, stamp, record.FirstSeenAt)
	assert.Equal(t, stamp, record.LastSeenAt)
	assert.Nil(t, record.LastSentAt)
	assert.Equal(t, 0, record.MissingRuns)
}

func TestMergeIsIdempotent(t *testing.T) {
	state := jobstate.State{}
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	stamp := jobstate.FormatTS(now)
	batch := []scraper.Posting{samplePosting("Engineer", "https://jobs.ch/a")}

	first := Merge(batch, state, stamp, now, DefaultOptions())
	second := Merge(batch, state, stamp, now, DefaultOptions())

	assert.Equal(t, 1, first.NewlyAdded)
	assert.Equal(t, 0, second.NewlyAdded)

	record := state[uidOf(batch[0])]
	assert.Equal(t, stamp, record.FirstSeenAt, "first_seen_at is immutable")
	assert.Equal(t, 0, record.MissingRuns)
}

func TestMergeRefreshPreservesNonEmptyFields(t *testing.T) {
	state := jobstate.State{}
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	full := samplePosting("Engineer", "https://jobs.ch/a")
	full.Location = "Zürich"
	Merge([]scraper.Posting{full}, state, jobstate.FormatTS(now), now, DefaultOptions())

	// Second scrape lost the location and company.
	sparse := samplePosting("Engineer", "https://jobs.ch/a")
	sparse.Location = ""
	sparse.Company = ""
	later := now.Add(time.Hour)
	Merge([]scraper.Posting{sparse}, state, jobstate.FormatTS(later), later, DefaultOptions())

	record := state[uidOf(full)]
	assert.Equal(t, "Zürich", record.Location, "empty scraped value keeps prior")
	assert.Equal(t, "Acme AG", record.Company)
	assert.Equal(t, jobstate.FormatTS(later), record.LastSeenAt)
}

func TestMergeStickyTerminalStatuses(t *testing.T) {
	for _, status := range []string{jobstate.StatusApplied, jobstate.StatusIgnored} {
		t.Run(status, func(t *testing.T) {
			state := jobstate.State{}
			now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
			posting := samplePosting("Engineer", "https://jobs.ch/a")
			Merge([]scraper.Posting{posting}, state, jobstate.FormatTS(now), now, DefaultOptions())

			uid := uidOf(posting)
			state[uid].Status = status

			// Present again: status untouched.
			later := now.Add(24 * time.Hour)
			Merge([]scraper.Posting{posting}, state, jobstate.FormatTS(later), later, DefaultOptions())
			assert.Equal(t, status, state[uid].Status)

			// Absent for many runs: still untouched.
			opts := Options{CloseMissingRuns: 1, CloseNotSeenDays: 1}
			for i := 0; i < 5; i++ {
				later = later.Add(24 * time.Hour)
				Merge(nil, state, jobstate.FormatTS(later), later, opts)
			}
			assert.Equal(t, status, state[uid].Status)
			assert.Equal(t, 0, state[uid].MissingRuns, "terminal records do not age")
		})
	}
}

func TestMergeClosureByMissingRuns(t *testing.T) {
	state := jobstate.State{}
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	posting := samplePosting("Engineer", "https://jobs.ch/a")
	Merge([]scraper.Posting{posting}, state, jobstate.FormatTS(now), now, DefaultOptions())
	uid := uidOf(posting)

	opts := Options{CloseMissingRuns: 3, CloseNotSeenDays: 0}

	// Two absent passes: not yet closed.
	for i := 1; i <= 2; i++ {
		now = now.Add(time.Hour)
		result := Merge(nil, state, jobstate.FormatTS(now), now, opts)
		assert.Equal(t, 0, result.MarkedClosed)
		assert.Equal(t, i, state[uid].MissingRuns)
	}
	assert.NotEqual(t, jobstate.StatusClosed, state[uid].Status)

	// Third absent pass crosses the threshold.
	now = now.Add(time.Hour)
	result := Merge(nil, state, jobstate.FormatTS(now), now, opts)
	assert.Equal(t, 1, result.MarkedClosed)
	assert.Equal(t, jobstate.StatusClosed, state[uid].Status)
}

func TestMergeClosureByDaysMissing(t *testing.T) {
	state := jobstate.State{}
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	posting := samplePosting("Engineer", "https://jobs.ch/a")
	Merge([]scraper.Posting{posting}, state, jobstate.FormatTS(now), now, DefaultOptions())
	uid := uidOf(posting)

	// One absent pass, but eight days later.
	opts := Options{CloseMissingRuns: 0, CloseNotSeenDays: 7}
	later := now.Add(8 * 24 * time.Hour)
	result := Merge(nil, state, jobstate.FormatTS(later), later, opts)

	assert.Equal(t, 1, result.MarkedClosed)
	assert.Equal(t, jobstate.StatusClosed, state[uid].Status)
}

func TestMergeTransientAbsenceResetsCounter(t *testing.T) {
	state := jobstate.State{}
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	posting := samplePosting("Engineer", "https://jobs.ch/a")
	Merge([]scraper.Posting{posting}, state, jobstate.FormatTS(now), now, DefaultOptions())
	uid := uidOf(posting)

	opts := Options{CloseMissingRuns: 3, CloseNotSeenDays: 0}
	now = now.Add(time.Hour)
	Merge(nil, state, jobstate.FormatTS(now), now, opts)
	assert.Equal(t, 1, state[uid].MissingRuns)

	// Reappears before the threshold: counter resets, no penalty.
	now = now.Add(time.Hour)
	Merge([]scraper.Posting{posting}, state, jobstate.FormatTS(now), now, opts)
	assert.Equal(t, 0, state[uid].MissingRuns)
	assert.NotEqual(t, jobstate.StatusClosed, state[uid].Status)
}

func TestMergeReopensClosedRecords(t *testing.T) {
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	posting := samplePosting("Engineer", "https://jobs.ch/a")
	uid := uidOf(posting)

	t.Run("never sent reopens as new", func(t *testing.T) {
		state := jobstate.State{}
		Merge([]scraper.Posting{posting}, state, jobstate.FormatTS(now), now, DefaultOptions())
		state[uid].Status = jobstate.StatusClosed

		later := now.Add(time.Hour)
		Merge([]scraper.Posting{posting}, state, jobstate.FormatTS(later), later, DefaultOptions())
		assert.Equal(t, jobstate.StatusNew, state[uid].Status)
	})

	t.Run("previously sent reopens as notified", func(t *testing.T) {
		state := jobstate.State{}
		Merge([]scraper.Posting{posting}, state, jobstate.FormatTS(now), now, DefaultOptions())
		sent := jobstate.FormatTS(now)
		state[uid].LastSentAt = &sent
		state[uid].Status = jobstate.StatusClosed

		later := now.Add(time.Hour)
		Merge([]scraper.Posting{posting}, state, jobstate.FormatTS(later), later, DefaultOptions())
		assert.Equal(t, jobstate.StatusNotified, state[uid].Status)
	})
}

func TestMergeRescoreDropsToZero(t *testing.T) {
	state := jobstate.State{}
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)

	posting := samplePosting("Engineer", "https://jobs.ch/a")
	posting.Score = 12
	Merge([]scraper.Posting{posting}, state, jobstate.FormatTS(now), now, DefaultOptions())
	require.Equal(t, jobstate.Score(12), state[uidOf(posting)].Score)

	// The keyword list changed and the same posting no longer matches.
	later := now.Add(time.Hour)
	posting.Score = 0
	posting.Match = ""
	Merge([]scraper.Posting{posting}, state, jobstate.FormatTS(later), later, DefaultOptions())
	assert.Equal(t, jobstate.Score(0), state[uidOf(posting)].Score)
}
