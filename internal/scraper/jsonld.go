package scraper

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	guidRe      = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	numericIDRe = regexp.MustCompile(`/\d{6,}(/|$)`)
)

// IsDetailLink guesses whether a link points at an individual posting rather
// than a listing or category page.
func IsDetailLink(link string) bool {
	if link == "" {
		return false
	}
	u := strings.ToLower(link)
	if strings.Contains(u, "/detail/") || strings.Contains(u, "/job/") || strings.Contains(u, "/jobad/") {
		return true
	}
	return guidRe.MatchString(u) || numericIDRe.MatchString(u)
}

// ParseJSONLD extracts schema.org JobPosting objects from a result page and
// maps them to postings tagged with source. Swiss portals embed their result
// lists as JSON-LD, which is far more stable than their CSS selectors.
func ParseJSONLD(html []byte, source string) []Posting {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}

	var out []Posting
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return
		}
		for _, obj := range flattenJSONLD(data) {
			if p, ok := jobPostingToRow(obj, source); ok {
				out = append(out, p)
			}
		}
	})
	return out
}

// flattenJSONLD walks top-level arrays and @graph containers and returns the
// JobPosting objects found anywhere in them.
func flattenJSONLD(data any) []map[string]any {
	var postings []map[string]any
	stack := []any{data}
	for len(stack) > 0 {
		item := stack[0]
		stack = stack[1:]
		switch v := item.(type) {
		case []any:
			stack = append(stack, v...)
		case map[string]any:
			if graph, ok := v["@graph"].([]any); ok {
				stack = append(stack, graph...)
				continue
			}
			if isJobPostingType(v["@type"]) {
				postings = append(postings, v)
			}
		}
	}
	return postings
}

func isJobPostingType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []any:
		for _, entry := range v {
			if s, ok := entry.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

func jobPostingToRow(obj map[string]any, source string) (Posting, bool) {
	str := func(v any) string {
		s, _ := v.(string)
		return strings.TrimSpace(s)
	}

	p := Posting{
		Title:  str(obj["title"]),
		Date:   str(obj["datePosted"]),
		Link:   str(obj["url"]),
		Source: source,
	}

	switch org := obj["hiringOrganization"].(type) {
	case map[string]any:
		p.Company = str(org["name"])
		if p.Link == "" {
			p.Link = str(org["sameAs"])
		}
	case string:
		p.Company = strings.TrimSpace(org)
	}

	p.Location = jobLocationText(obj["jobLocation"])

	if p.Title == "" || p.Link == "" || !IsDetailLink(p.Link) {
		return Posting{}, false
	}
	return p, true
}

func jobLocationText(v any) string {
	loc, ok := v.(map[string]any)
	if !ok {
		if list, isList := v.([]any); isList && len(list) > 0 {
			loc, ok = list[0].(map[string]any)
		}
		if !ok {
			return ""
		}
	}
	addr, _ := loc["address"].(map[string]any)
	var parts []string
	for _, key := range []string{"addressLocality", "addressRegion", "addressCountry"} {
		if s, _ := addr[key].(string); strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	return strings.Join(parts, ", ")
}

// ExtractDetailLinks is the DOM fallback when a portal ships no JSON-LD: it
// collects anchors that look like posting detail pages.
func ExtractDetailLinks(html []byte, source, baseURL string) []Posting {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var out []Posting
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if strings.HasPrefix(href, "/") {
			href = strings.TrimRight(baseURL, "/") + href
		}
		if !IsDetailLink(href) || seen[href] {
			return
		}
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return
		}
		seen[href] = true
		out = append(out, Posting{Title: title, Link: href, Source: source})
	})
	return out
}
