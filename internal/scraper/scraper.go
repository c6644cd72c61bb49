package scraper

import "context"

// Scraper is the interface every portal adapter implements. Adapters own
// their transport (plain HTTP or a browser session) and return postings
// already mapped into the canonical record.
type Scraper interface {
	// Search runs one query/location search against the portal.
	Search(ctx context.Context, query, location string) ([]Posting, error)

	// Name is the portal identifier, used as the posting source and in logs.
	Name() string
}
