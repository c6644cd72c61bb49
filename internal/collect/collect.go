// Package collect runs the portal adapters, scores and filters the results
// and produces the deduplicated batch the reconciler consumes.
package collect

import (
	"context"
	"sort"
	"sync"

	"github.com/phuslu/log"

	"bewerbungsagent/internal/score"
	"bewerbungsagent/internal/scraper"
)

// Params bundles everything one collection pass needs.
type Params struct {
	Scrapers  []scraper.Scraper
	Keywords  []string
	Locations []string
	Profile   score.Profile
	Commute   []score.CommuteEntry
	// Workers bounds the parallel portal searches. Results funnel back into
	// a single slice; only the fetching is concurrent.
	Workers int
	// Cache skips query/location pairs that recently returned nothing.
	Cache *EmptySearchCache
}

type task struct {
	s        scraper.Scraper
	query    string
	location string
}

// Run executes every (portal, keyword, location) search, then scores,
// filters and dedupes the combined result. Adapter errors are logged and
// skipped; one flaky portal must not sink the run.
func Run(ctx context.Context, p Params) []scraper.Posting {
	var tasks []task
	for _, s := range p.Scrapers {
		for _, query := range p.Keywords {
			locations := p.Locations
			if len(locations) == 0 {
				locations = []string{""}
			}
			for _, loc := range locations {
				tasks = append(tasks, task{s: s, query: query, location: loc})
			}
		}
	}

	workers := p.Workers
	if workers <= 0 {
		workers = 2
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	taskCh := make(chan task)
	var mu sync.Mutex
	var rows []scraper.Posting
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range taskCh {
				if ctx.Err() != nil {
					return
				}
				key := cacheKey(t.s.Name(), t.query, t.location)
				if p.Cache != nil && p.Cache.RecentlyEmpty(key) {
					log.Debug().Str("source", t.s.Name()).Str("query", t.query).Str("location", t.location).
						Msg("skipping recently empty search")
					continue
				}

				found, err := t.s.Search(ctx, t.query, t.location)
				if err != nil {
					log.Warn().Str("source", t.s.Name()).Str("query", t.query).Err(err).Msg("search failed")
					continue
				}
				if len(found) == 0 {
					if p.Cache != nil {
						p.Cache.MarkEmpty(key)
					}
					continue
				}
				mu.Lock()
				rows = append(rows, found...)
				mu.Unlock()
			}
		}()
	}

	for _, t := range tasks {
		select {
		case taskCh <- t:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(taskCh)
	wg.Wait()

	return scoreAndDedupe(rows, p)
}

// scoreAndDedupe applies the title heuristic, keyword gates, location boost
// and commute annotation, then collapses batch-internal duplicates keeping
// the higher-scoring row.
func scoreAndDedupe(rows []scraper.Posting, p Params) []scraper.Posting {
	byKey := map[string]scraper.Posting{}
	var order []string

	for _, row := range rows {
		if score.HasBlockedKeywords(row, p.Profile.Blocked) {
			continue
		}
		if !score.HasRequiredKeywords(row, p.Profile.Required) {
			continue
		}

		total, match := score.TitleScore(row.Title, p.Profile)
		total += score.LocationBoost(row.Location, p.Profile.Locations)
		row.Score = total
		row.Match = match
		row.CommuteMin = score.CommuteMinutes(row, p.Commute)

		key := row.DedupeKey()
		existing, seen := byKey[key]
		if !seen {
			byKey[key] = row
			order = append(order, key)
			continue
		}
		if row.Score > existing.Score {
			byKey[key] = row
		}
	}

	out := make([]scraper.Posting, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// PayloadFilter keeps rows at or above minScore. When nothing clears the
// bar the top ten rows go through anyway, so a miscalibrated threshold
// still notifies something.
func PayloadFilter(rows []scraper.Posting, minScore int) []scraper.Posting {
	var filtered []scraper.Posting
	for _, row := range rows {
		if row.Score >= minScore {
			filtered = append(filtered, row)
		}
	}
	if len(filtered) > 0 {
		return filtered
	}
	if len(rows) > 10 {
		return rows[:10]
	}
	return rows
}
