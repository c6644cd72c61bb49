package tracker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bewerbungsagent/internal/jobstate"
)

const stamp = "2025-03-01T08:00:00Z"

func sampleState() jobstate.State {
	sent := "2025-02-27T08:00:00Z"
	return jobstate.State{
		"aaaa000000000001": {
			JobUID: "aaaa000000000001", Source: "jobs.ch", Title: "Gärtner EFZ",
			Company: "Grünwerk AG", Location: "Zürich", Link: "https://jobs.ch/a",
			FirstSeenAt: "2025-02-20T08:00:00Z", LastSeenAt: "2025-03-01T08:00:00Z",
			Status: jobstate.StatusNotified, LastSentAt: &sent, Score: 12, Match: "exact",
		},
		"aaaa000000000002": {
			JobUID: "aaaa000000000002", Source: "jobup.ch", Title: "Landschaftsgärtner",
			Company: "Hof AG", Location: "Winterthur", Link: "https://jobup.ch/b",
			FirstSeenAt: "2025-02-25T08:00:00Z", LastSeenAt: "2025-02-26T08:00:00Z",
			Status: jobstate.StatusNew,
		},
		"aaaa000000000003": {
			JobUID: "aaaa000000000003", Source: "jobs.ch", Title: "Alte Stelle",
			Company: "Weg AG", LastSeenAt: "2025-02-01T08:00:00Z",
			Status: jobstate.StatusClosed,
		},
	}
}

func TestApplyMarksActionTokens(t *testing.T) {
	state := sampleState()
	rows := Rows{
		"aaaa000000000001": {"job_uid": "aaaa000000000001", "aktion": "Bewerbung"},
		"aaaa000000000002": {"job_uid": "aaaa000000000002", "aktion": "nein"},
	}

	updates := ApplyMarks(state, rows, stamp)

	assert.Equal(t, 2, updates)
	assert.Equal(t, jobstate.StatusApplied, state["aaaa000000000001"].Status)
	assert.Equal(t, stamp, state["aaaa000000000001"].AppliedAt)
	assert.Equal(t, jobstate.StatusIgnored, state["aaaa000000000002"].Status)
	assert.Empty(t, state["aaaa000000000002"].AppliedAt)
}

func TestApplyMarksCheckbox(t *testing.T) {
	state := sampleState()
	rows := Rows{
		"aaaa000000000002": {"job_uid": "aaaa000000000002", "erledigt": CheckboxDone},
	}

	assert.Equal(t, 1, ApplyMarks(state, rows, stamp))
	assert.Equal(t, jobstate.StatusApplied, state["aaaa000000000002"].Status)

	// Spreadsheet tools often coerce the glyph; plain truthy text counts too.
	state = sampleState()
	rows["aaaa000000000002"]["erledigt"] = "x"
	assert.Equal(t, 1, ApplyMarks(state, rows, stamp))
	assert.Equal(t, jobstate.StatusApplied, state["aaaa000000000002"].Status)
}

func TestApplyMarksActionBeatsCheckbox(t *testing.T) {
	state := sampleState()
	rows := Rows{
		"aaaa000000000002": {"job_uid": "aaaa000000000002", "aktion": "skip", "erledigt": CheckboxDone},
	}

	ApplyMarks(state, rows, stamp)
	assert.Equal(t, jobstate.StatusIgnored, state["aaaa000000000002"].Status)
}

func TestApplyMarksNeverCreatesRecords(t *testing.T) {
	state := sampleState()
	rows := Rows{
		"ffff000000000000": {"job_uid": "ffff000000000000", "aktion": "applied"},
	}

	assert.Equal(t, 0, ApplyMarks(state, rows, stamp))
	assert.Len(t, state, 3)
}

func TestApplyMarksIdempotent(t *testing.T) {
	state := sampleState()
	rows := Rows{
		"aaaa000000000001": {"job_uid": "aaaa000000000001", "aktion": "applied"},
	}

	assert.Equal(t, 1, ApplyMarks(state, rows, stamp))
	assert.Equal(t, 0, ApplyMarks(state, rows, stamp))
}

func TestBuildRowsPreservesManualColumns(t *testing.T) {
	state := sampleState()
	existing := Rows{
		"aaaa000000000002": {"job_uid": "aaaa000000000002", "notes": "Rückruf Montag", "aktion": "apply"},
	}

	rows := BuildRows(state, existing, false)

	require.Len(t, rows, 2) // closed record skipped
	// Sorted by last_seen_at descending.
	assert.Equal(t, "aaaa000000000001", rows[0]["job_uid"])

	var second Row
	for _, row := range rows {
		if row["job_uid"] == "aaaa000000000002" {
			second = row
		}
	}
	require.NotNil(t, second)
	assert.Equal(t, "Rückruf Montag", second["notes"])
	assert.Equal(t, "apply", second["aktion"])
	assert.Equal(t, CheckboxEmpty, second["erledigt"])
}

func TestBuildRowsDerivesMarksFromStatus(t *testing.T) {
	state := sampleState()
	state["aaaa000000000001"].Status = jobstate.StatusApplied
	state["aaaa000000000002"].Status = jobstate.StatusIgnored

	rows := BuildRows(state, nil, false)

	byUID := map[string]Row{}
	for _, row := range rows {
		byUID[row["job_uid"]] = row
	}
	assert.Equal(t, CheckboxDone, byUID["aaaa000000000001"]["erledigt"])
	assert.Equal(t, "applied", byUID["aaaa000000000001"]["aktion"])
	assert.Equal(t, CheckboxDone, byUID["aaaa000000000002"]["erledigt"])
	assert.Equal(t, "ignored", byUID["aaaa000000000002"]["aktion"])
}

func TestBuildRowsIncludeClosed(t *testing.T) {
	rows := BuildRows(sampleState(), nil, true)
	assert.Len(t, rows, 3)
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_tracker.csv")
	state := sampleState()

	require.NoError(t, Write(state, path, nil, false))

	rows, err := Load(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Gärtner EFZ", rows["aaaa000000000001"]["title"])
	assert.Equal(t, "12", rows["aaaa000000000001"]["score"])
	assert.Equal(t, CheckboxEmpty, rows["aaaa000000000001"]["erledigt"])
}

func TestXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job_tracker.xlsx")
	state := sampleState()
	existing := Rows{
		"aaaa000000000001": {"job_uid": "aaaa000000000001", "notes": "Portal-Login nötig"},
	}

	require.NoError(t, Write(state, path, existing, false))

	rows, err := Load(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Portal-Login nötig", rows["aaaa000000000001"]["notes"])
	assert.Equal(t, CheckboxEmpty, rows["aaaa000000000001"]["erledigt"])
}

func TestLoadXLSXFallsBackToCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "job_tracker.csv")
	require.NoError(t, Write(sampleState(), csvPath, nil, false))

	rows, err := Load(filepath.Join(dir, "job_tracker.xlsx"))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLoadMissingAndHeaderless(t *testing.T) {
	dir := t.TempDir()

	rows, err := Load(filepath.Join(dir, "nope.csv"))
	require.NoError(t, err)
	assert.Empty(t, rows)

	// A CSV without a job_uid column is not a tracker.
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("foo,bar\n1,2\n"), 0o644))
	rows, err = Load(bad)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
