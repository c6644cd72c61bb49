package scraper

import (
	"context"
	"fmt"
	"net/url"

	"github.com/phuslu/log"
)

// PagedSearch drives the shared pagination loop of the JSON-LD portals:
// fetch page 1..maxPages, prefer JSON-LD extraction, fall back to DOM detail
// links, stop on the first empty page, dedupe by canonical link and cap at
// limit. Individual page failures are logged and skipped; the portal being
// flaky must not kill the whole run.
func PagedSearch(ctx context.Context, client *Client, source, baseURL, query, location string, maxPages, limit int) ([]Posting, error) {
	if maxPages <= 0 {
		maxPages = 1
	}

	params := url.Values{"term": {query}}
	if location != "" {
		params.Set("location", location)
	}

	var rows []Posting
	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			return dedupeByLink(rows, limit), ctx.Err()
		}

		params.Set("page", fmt.Sprint(page))
		pageURL := baseURL + "?" + params.Encode()
		body, err := client.Get(ctx, pageURL)
		if err != nil {
			log.Warn().Str("source", source).Str("url", pageURL).Err(err).Msg("page fetch failed")
			continue
		}

		pageRows := ParseJSONLD(body, source)
		if len(pageRows) == 0 {
			pageRows = ExtractDetailLinks(body, source, baseURL)
		}
		if len(pageRows) == 0 {
			break
		}
		rows = append(rows, pageRows...)
	}

	return dedupeByLink(rows, limit), nil
}

func dedupeByLink(rows []Posting, limit int) []Posting {
	seen := map[string]bool{}
	var out []Posting
	for _, row := range rows {
		key := row.DedupeKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
