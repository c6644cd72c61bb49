// Package jobup scrapes jobup.ch search results.
package jobup

import (
	"context"

	"bewerbungsagent/internal/scraper"
)

const (
	sourceName = "jobup.ch"
	baseURL    = "https://www.jobup.ch/de/jobs/"
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

func (s *Scraper) Search(ctx context.Context, query, location string) ([]scraper.Posting, error) {
	return scraper.PagedSearch(ctx, s.client, sourceName, baseURL, query, location, s.maxPages, s.limit)
}
