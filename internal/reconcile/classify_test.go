package reconcile

import (
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bewerbungsagent/internal/jobstate"
	"bewerbungsagent/internal/scraper"
)

func seenSet(uids ...string) mapset.Set[string] {
	set := mapset.NewSet[string]()
	for _, uid := range uids {
		set.Add(uid)
	}
	return set
}

func TestClassifyGroups(t *testing.T) {
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	old := jobstate.FormatTS(now.Add(-5 * 24 * time.Hour))
	fresh := jobstate.FormatTS(now)

	state := jobstate.State{
		"new1":      {JobUID: "new1", Status: jobstate.StatusNew, Score: 5},
		"new2":      {JobUID: "new2", Status: jobstate.StatusNew, Score: 30},
		"remindme":  {JobUID: "remindme", Status: jobstate.StatusNotified, LastSentAt: &old, Score: 10},
		"justsent":  {JobUID: "justsent", Status: jobstate.StatusNotified, LastSentAt: &fresh, Score: 20},
		"applied":   {JobUID: "applied", Status: jobstate.StatusApplied},
		"closed":    {JobUID: "closed", Status: jobstate.StatusClosed},
		"notinseen": {JobUID: "notinseen", Status: jobstate.StatusNew},
	}
	seen := seenSet("new1", "new2", "remindme", "justsent", "applied", "closed")

	groups := Classify(state, seen, now, 2, false)

	require.Len(t, groups.New, 2)
	assert.Equal(t, "new2", groups.New[0].JobUID, "sorted by score desc")
	assert.Equal(t, "new1", groups.New[1].JobUID)

	require.Len(t, groups.Reminder, 1)
	assert.Equal(t, "remindme", groups.Reminder[0].JobUID)

	// Open covers every non-terminal seen record with an open status.
	require.Len(t, groups.Open, 4)
	assert.Equal(t, "new2", groups.Open[0].JobUID)
}

func TestClassifyDailyRemindersIncludeJustSent(t *testing.T) {
	now := time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	fresh := jobstate.FormatTS(now)
	state := jobstate.State{
		"sent": {JobUID: "sent", Status: jobstate.StatusNotified, LastSentAt: &fresh},
	}

	groups := Classify(state, seenSet("sent"), now, 2, true)
	require.Len(t, groups.Reminder, 1)
}

func TestMarkNotified(t *testing.T) {
	records := []*jobstate.Record{
		{JobUID: "a", Status: jobstate.StatusNew},
		{JobUID: "b", Status: jobstate.StatusNotified},
	}
	stamp := "2026-08-29T09:00:00Z"

	MarkNotified(records, stamp)

	for _, record := range records {
		assert.Equal(t, jobstate.StatusNotified, record.Status)
		require.NotNil(t, record.LastSentAt)
		assert.Equal(t, stamp, *record.LastSentAt)
	}
}

func TestCloseAggregators(t *testing.T) {
	state := jobstate.State{
		"agg":     {JobUID: "agg", Source: "Careerjet", Status: jobstate.StatusNotified},
		"aggdone": {JobUID: "aggdone", Source: "jooble", Status: jobstate.StatusApplied},
		"direct":  {JobUID: "direct", Source: "jobs.ch", Status: jobstate.StatusNotified},
	}

	closed := CloseAggregators(state, []string{"careerjet", "jobrapido", "jooble"})

	assert.Equal(t, 1, closed)
	assert.Equal(t, jobstate.StatusClosed, state["agg"].Status)
	assert.Equal(t, jobstate.StatusApplied, state["aggdone"].Status, "terminal stays")
	assert.Equal(t, jobstate.StatusNotified, state["direct"].Status)
}

// Full lifecycle across three runs: discovery, send, partial disappearance.
func TestReconcileEndToEnd(t *testing.T) {
	state := jobstate.State{}
	now := time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC)
	batch := []scraper.Posting{
		samplePosting("Engineer A", "https://jobs.ch/a"),
		samplePosting("Engineer B", "https://jobs.ch/b"),
		samplePosting("Engineer C", "https://jobs.ch/c"),
	}

	// Run 1: everything is new.
	result := Merge(batch, state, jobstate.FormatTS(now), now, DefaultOptions())
	assert.Equal(t, 3, result.NewlyAdded)
	groups := Classify(state, result.Seen, now, 2, false)
	assert.Len(t, groups.New, 3)
	assert.Empty(t, groups.Reminder)

	// Send succeeds: all three become notified.
	MarkNotified(groups.New, jobstate.FormatTS(now))
	for _, record := range state {
		assert.Equal(t, jobstate.StatusNotified, record.Status)
		require.NotNil(t, record.LastSentAt)
	}

	// Run 2 three days later: same batch, reminder window elapsed.
	now = now.Add(3 * 24 * time.Hour)
	result = Merge(batch, state, jobstate.FormatTS(now), now, DefaultOptions())
	assert.Equal(t, 0, result.NewlyAdded)
	groups = Classify(state, result.Seen, now, 2, false)
	assert.Empty(t, groups.New)
	assert.Len(t, groups.Reminder, 3)
	MarkNotified(groups.Reminder, jobstate.FormatTS(now))

	// Run 3: posting C vanishes with an aggressive closure threshold.
	now = now.Add(24 * time.Hour)
	shrunk := batch[:2]
	result = Merge(shrunk, state, jobstate.FormatTS(now), now, Options{CloseMissingRuns: 1})
	assert.Equal(t, 1, result.MarkedClosed)

	gone := state[uidOf(batch[2])]
	assert.Equal(t, jobstate.StatusClosed, gone.Status)
	assert.Equal(t, 1, gone.MissingRuns)
	for _, p := range shrunk {
		assert.Equal(t, jobstate.StatusNotified, state[uidOf(p)].Status)
	}
}
