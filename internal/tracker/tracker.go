// Package tracker bridges the job state to a human-editable worksheet.
// The agent owns every column except erledigt, aktion and notes; those
// belong to the user and survive rewrites verbatim. Marks the user makes
// there flow back into the state on the next run.
package tracker

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"bewerbungsagent/internal/jobstate"
)

// Headers defines the worksheet column order.
var Headers = []string{
	"job_uid",
	"status",
	"applied_at",
	"erledigt",
	"aktion",
	"title",
	"company",
	"location",
	"source",
	"link",
	"first_seen_at",
	"last_seen_at",
	"last_sent_at",
	"score",
	"match",
	"notes",
}

// Checkbox glyphs shown in the erledigt column.
const (
	CheckboxEmpty = "☐" // ☐
	CheckboxDone  = "☑" // ☑
)

var manualColumns = mapset.NewSet("erledigt", "aktion", "notes")

var truthy = mapset.NewSet("1", "true", "t", "yes", "y", "ja", "j", "x", CheckboxDone)

// Action tokens the user may type into the aktion column.
var (
	appliedActions = mapset.NewSet("applied", "apply", "done", "sent", "bewerbung", "gesendet")
	ignoredActions = mapset.NewSet("ignored", "ignore", "skip", "no", "nein")
)

// Row is one worksheet line keyed by column name.
type Row map[string]string

// Rows maps job UID to its worksheet line.
type Rows map[string]Row

func clean(value string) string {
	return strings.TrimSpace(value)
}

func isXLSX(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xlsx")
}

// normalizeErledigt folds the many ways users tick a box onto the two
// checkbox glyphs. Unrecognized text passes through untouched.
func normalizeErledigt(value string) string {
	raw := clean(value)
	if raw == "" {
		return CheckboxEmpty
	}
	if raw == CheckboxEmpty || raw == CheckboxDone {
		return raw
	}
	lowered := strings.ToLower(raw)
	if truthy.Contains(lowered) {
		return CheckboxDone
	}
	switch lowered {
	case "0", "false", "no", "nein":
		return CheckboxEmpty
	}
	return raw
}

// Load reads the tracker file. A missing .xlsx falls back to a sibling
// .csv so upgrades from the CSV-only format keep the user's marks. A
// missing file is an empty tracker, not an error.
func Load(path string) (Rows, error) {
	if _, err := os.Stat(path); err != nil {
		if isXLSX(path) {
			legacy := strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
			if _, err := os.Stat(legacy); err == nil {
				return loadCSV(legacy)
			}
		}
		return Rows{}, nil
	}
	if isXLSX(path) {
		return loadXLSX(path)
	}
	return loadCSV(path)
}

func loadCSV(path string) (Rows, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening tracker %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading tracker %s: %w", path, err)
	}
	if len(records) == 0 {
		return Rows{}, nil
	}
	return rowsFromTable(records[0], records[1:]), nil
}

// rowsFromTable turns a header line plus data lines into keyed rows.
// Tables without a job_uid column are treated as empty.
func rowsFromTable(header []string, lines [][]string) Rows {
	columns := make([]string, len(header))
	hasUID := false
	for i, h := range header {
		columns[i] = clean(h)
		if columns[i] == "job_uid" {
			hasUID = true
		}
	}
	if !hasUID {
		return Rows{}
	}

	rows := Rows{}
	for _, line := range lines {
		row := Row{}
		for i, col := range columns {
			if col == "" {
				continue
			}
			if i < len(line) {
				row[col] = clean(line[i])
			} else {
				row[col] = ""
			}
		}
		uid := row["job_uid"]
		if uid == "" {
			continue
		}
		rows[uid] = row
	}
	return rows
}

// ApplyMarks folds the user's worksheet edits back into the state. An
// aktion token wins over the checkbox; a ticked box alone means applied.
// Rows for unknown UIDs are ignored, the tracker never creates records.
// Returns the number of records changed.
func ApplyMarks(state jobstate.State, rows Rows, stamp string) int {
	updates := 0
	for uid, row := range rows {
		record, ok := state[uid]
		if !ok {
			continue
		}
		action := strings.ToLower(clean(row["aktion"]))
		done := normalizeErledigt(row["erledigt"])

		desired := ""
		switch {
		case appliedActions.Contains(action):
			desired = jobstate.StatusApplied
		case ignoredActions.Contains(action):
			desired = jobstate.StatusIgnored
		case done == CheckboxDone:
			desired = jobstate.StatusApplied
		}
		if desired == "" || record.Status == desired {
			continue
		}
		record.Status = desired
		if desired == jobstate.StatusApplied {
			record.AppliedAt = stamp
		} else {
			record.AppliedAt = ""
		}
		updates++
	}
	return updates
}

// BuildRows renders the state as worksheet lines, newest last_seen_at
// first. Closed records are skipped unless includeClosed; manual column
// values from existing rows carry over verbatim.
func BuildRows(state jobstate.State, existing Rows, includeClosed bool) []Row {
	var rows []Row
	for uid, record := range state {
		if record.Status == jobstate.StatusClosed && !includeClosed {
			continue
		}

		row := Row{}
		for _, col := range Headers {
			row[col] = ""
		}
		row["job_uid"] = uid
		row["status"] = record.Status
		row["applied_at"] = record.AppliedAt
		row["erledigt"] = CheckboxEmpty
		row["title"] = record.Title
		row["company"] = record.Company
		row["location"] = record.Location
		row["source"] = record.Source
		row["link"] = record.Link
		if row["link"] == "" {
			row["link"] = record.CanonicalURL
		}
		row["first_seen_at"] = record.FirstSeenAt
		row["last_seen_at"] = record.LastSeenAt
		if record.LastSentAt != nil {
			row["last_sent_at"] = *record.LastSentAt
		}
		if record.Score != 0 {
			row["score"] = strconv.Itoa(int(record.Score))
		}
		row["match"] = record.Match

		if prev, ok := existing[uid]; ok {
			for col := range prev {
				if !manualColumns.Contains(col) || clean(prev[col]) == "" {
					continue
				}
				if col == "erledigt" {
					row[col] = normalizeErledigt(prev[col])
				} else {
					row[col] = prev[col]
				}
			}
		}

		if record.Status == jobstate.StatusApplied || record.Status == jobstate.StatusIgnored {
			row["erledigt"] = CheckboxDone
			if row["aktion"] == "" {
				if record.Status == jobstate.StatusApplied {
					row["aktion"] = "applied"
				} else {
					row["aktion"] = "ignored"
				}
			}
		}

		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ti, iOK := jobstate.ParseTS(rows[i]["last_seen_at"])
		tj, jOK := jobstate.ParseTS(rows[j]["last_seen_at"])
		switch {
		case iOK && jOK:
			return ti.After(tj)
		case iOK:
			return true
		default:
			return false
		}
	})
	return rows
}

// Write renders the state into the tracker file, preserving the user's
// manual columns from existing. The format follows the file extension.
func Write(state jobstate.State, path string, existing Rows, includeClosed bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating tracker directory: %w", err)
	}
	rows := BuildRows(state, existing, includeClosed)
	if isXLSX(path) {
		return writeXLSX(path, rows)
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating tracker %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Headers); err != nil {
		return err
	}
	for _, row := range rows {
		line := make([]string, len(Headers))
		for i, col := range Headers {
			line[i] = row[col]
		}
		if err := w.Write(line); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
