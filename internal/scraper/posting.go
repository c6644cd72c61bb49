// Package scraper defines the portal adapter contract and the canonical
// posting record every adapter funnels into.
package scraper

import (
	"fmt"
	"strings"

	"bewerbungsagent/internal/jobstate"
)

// Posting is one scraped job advertisement, already normalized out of
// whatever schema the portal used. Score and Match are filled in by the
// scoring pass, CommuteMin by the commute annotation.
type Posting struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Link        string `json:"link"`
	Source      string `json:"source"`
	Date        string `json:"date,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
	Description string `json:"description,omitempty"`
	Score       int    `json:"score"`
	Match       string `json:"match,omitempty"`
	CommuteMin  *int   `json:"commute_min,omitempty"`
}

// Fields projects the posting into the identity builder's flat view.
func (p Posting) Fields() jobstate.Fields {
	return jobstate.Fields{
		"source":      p.Source,
		"link":        p.Link,
		"external_id": p.ExternalID,
		"title":       p.Title,
		"company":     p.Company,
		"location":    p.Location,
	}
}

// DedupeKey collapses near-identical rows inside a single scrape batch.
// This is batch-internal only; cross-run identity is the JobUID.
func (p Posting) DedupeKey() string {
	return fmt.Sprintf("%s|%s|%s",
		jobstate.NormalizeText(p.Title),
		jobstate.NormalizeText(p.Company),
		strings.ToLower(jobstate.CanonicalizeURL(p.Link)),
	)
}
