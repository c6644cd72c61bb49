// Package jobsch scrapes jobs.ch search results.
package jobsch

import (
	"context"

	"bewerbungsagent/internal/scraper"
)

const (
	sourceName = "jobs.ch"
	baseURL    = "https://www.jobs.ch/de/stellenangebote/"
)

type Scraper struct {
	client   *scraper.Client
	maxPages int
	limit    int
}

func New(client *scraper.Client, maxPages, limit int) *Scraper {
	return &Scraper{client: client, maxPages: maxPages, limit: limit}
}

func (s *Scraper) Name() string {
	return sourceName
}

// Search pulls paginated results. jobs.ch embeds its result list as
// schema.org JobPosting JSON-LD, so no selector scraping is needed on the
// happy path.
func (s *Scraper) Search(ctx context.Context, query, location string) ([]scraper.Posting, error) {
	return scraper.PagedSearch(ctx, s.client, sourceName, baseURL, query, location, s.maxPages, s.limit)
}
