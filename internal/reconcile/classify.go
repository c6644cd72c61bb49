package reconcile

import (
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"bewerbungsagent/internal/jobstate"
)

// Groups are the notification buckets of one run. New and Reminder together
// form the regular digest; Open is the alternate "send everything still
// open" mode. New and Reminder are disjoint; Open overlaps both.
type Groups struct {
	New      []*jobstate.Record
	Reminder []*jobstate.Record
	Open     []*jobstate.Record
}

// Classify buckets every record seen this run that is not terminal. A record
// lands in Reminder only when its reminder window has elapsed and it was not
// already counted as New.
func Classify(state jobstate.State, seen mapset.Set[string], now time.Time, reminderDays int, daily bool) Groups {
	var groups Groups
	newUIDs := mapset.NewSet[string]()

	for uid := range seen.Iter() {
		record := state[uid]
		if record == nil || jobstate.IsTerminal(record.Status) {
			continue
		}
		if record.Status == jobstate.StatusNew {
			groups.New = append(groups.New, record)
			newUIDs.Add(uid)
		}
	}

	for uid := range seen.Iter() {
		record := state[uid]
		if record == nil || jobstate.IsTerminal(record.Status) {
			continue
		}
		if jobstate.IsOpen(record.Status) &&
			jobstate.ShouldSendReminder(record.LastSentAt, now, reminderDays, daily) &&
			!newUIDs.Contains(uid) {
			groups.Reminder = append(groups.Reminder, record)
		}
		if jobstate.IsOpen(record.Status) {
			groups.Open = append(groups.Open, record)
		}
	}

	sortByScore(groups.New)
	sortByScore(groups.Reminder)
	sortByScore(groups.Open)
	return groups
}

func sortByScore(records []*jobstate.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
}

// MarkNotified transitions dispatched records to notified with the run
// stamp. Callers invoke this only after the sender confirmed delivery; a
// failed or dry-run send leaves the records untouched so the next run
// retries the same set.
func MarkNotified(records []*jobstate.Record, stamp string) {
	for _, record := range records {
		record.Status = jobstate.StatusNotified
		sent := stamp
		record.LastSentAt = &sent
	}
}

// CloseAggregators force-closes every non-terminal record whose source is an
// aggregator portal. Aggregator links rot quickly, so their records are not
// worth reminding about.
func CloseAggregators(state jobstate.State, sources []string) int {
	aggregators := mapset.NewSet[string]()
	for _, source := range sources {
		aggregators.Add(jobstate.NormalizeText(source))
	}

	closed := 0
	for _, record := range state {
		if jobstate.IsTerminal(record.Status) {
			continue
		}
		if aggregators.Contains(jobstate.NormalizeText(record.Source)) {
			record.Status = jobstate.StatusClosed
			closed++
		}
	}
	return closed
}
