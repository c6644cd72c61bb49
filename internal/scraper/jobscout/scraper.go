// Package jobscout scrapes jobscout24.ch, which renders its result list
// client-side and therefore needs a real browser session.
package jobscout

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/phuslu/log"
	"github.com/playwright-community/playwright-go"

	"bewerbungsagent/internal/browser"
	"bewerbungsagent/internal/scraper"
)

const (
	sourceName = "jobscout24"
	baseURL    = "https://www.jobscout24.ch"
)

type Scraper struct {
	bctx  playwright.BrowserContext
	limit int
}

// New wraps an existing browser context; the caller owns its lifecycle.
func New(bctx playwright.BrowserContext, limit int) *Scraper {
	return &Scraper{bctx: bctx, limit: limit}
}

func (s *Scraper) Name() string {
	return sourceName
}

func (s *Scraper) Search(ctx context.Context, query, location string) ([]scraper.Posting, error) {
	page, err := s.bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	defer page.Close()

	params := url.Values{"keywords": {query}}
	if location != "" {
		params.Set("location", location)
	}
	searchURL := baseURL + "/de/jobs/?" + params.Encode()

	if _, err := page.Goto(searchURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return nil, fmt.Errorf("goto %s: %w", searchURL, err)
	}

	if blocked(page) {
		log.Warn().Str("source", sourceName).Msg("bot challenge detected, skipping search")
		return nil, nil
	}

	// Dismiss the cookie banner if present; failure is harmless.
	if consent := page.Locator("#onetrust-accept-btn-handler"); consent != nil {
		if visible, _ := consent.IsVisible(); visible {
			_ = consent.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(2000)})
		}
	}

	browser.RandomDelay(800, 1500)
	browser.MouseJiggle(page)
	browser.SmoothScroll(page)

	if _, err := page.WaitForSelector("article.job-list-item, div.job-result",
		playwright.PageWaitForSelectorOptions{Timeout: playwright.Float(8000)}); err != nil {
		// No cards rendered; treat as empty result rather than an error.
		return nil, nil
	}

	cards, err := page.Locator("article.job-list-item, div.job-result").All()
	if err != nil {
		return nil, fmt.Errorf("query job cards: %w", err)
	}

	var postings []scraper.Posting
	for _, card := range cards {
		if ctx.Err() != nil {
			return postings, ctx.Err()
		}
		if s.limit > 0 && len(postings) >= s.limit {
			break
		}
		posting, ok := cardToPosting(card)
		if !ok {
			continue
		}
		postings = append(postings, posting)
	}

	log.Debug().Str("source", sourceName).Int("cards", len(cards)).Int("kept", len(postings)).Msg("search done")
	return postings, nil
}

func cardToPosting(card playwright.Locator) (scraper.Posting, bool) {
	link, _ := card.Locator("a[href]").First().GetAttribute("href")
	link = strings.TrimSpace(link)
	if strings.HasPrefix(link, "/") {
		link = baseURL + link
	}
	if !scraper.IsDetailLink(link) {
		return scraper.Posting{}, false
	}

	title := textOf(card, "h2, h3, .job-title")
	if title == "" {
		return scraper.Posting{}, false
	}

	return scraper.Posting{
		Title:    title,
		Company:  textOf(card, ".company, .job-company"),
		Location: textOf(card, ".location, .job-location"),
		Date:     textOf(card, "time, .job-date"),
		Link:     link,
		Source:   sourceName,
	}, true
}

func textOf(card playwright.Locator, selector string) string {
	loc := card.Locator(selector).First()
	if count, err := loc.Count(); err != nil || count == 0 {
		return ""
	}
	text, err := loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(1500)})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func blocked(page playwright.Page) bool {
	title, _ := page.Title()
	for _, marker := range []string{"Attention Required", "Just a moment", "Cloudflare"} {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return false
}
