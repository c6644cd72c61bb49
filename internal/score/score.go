// Package score rates scraped postings against the candidate profile. The
// heuristic is deliberately simple: keyword hits on the title, a location
// boost, hard keyword gates. The reconciler treats the result as opaque.
package score

import (
	"strings"

	"bewerbungsagent/internal/jobstate"
	"bewerbungsagent/internal/scraper"
)

// Match labels attached to a title score.
const (
	MatchExact = "exact"
	MatchGood  = "good"
	MatchWeak  = "weak"
)

// Profile collects the keyword lists a run scores against.
type Profile struct {
	Positives []string // search keywords plus title variants, any language
	Negatives []string
	Blocked   []string
	Required  []string
	Remote    []string
	Locations []string
}

// Normalize folds German umlauts to their two-letter forms before the
// generic diacritic strip, so "Zürich" matches both "zurich" and "zuerich"
// profile entries.
func Normalize(value string) string {
	replacer := strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")
	return jobstate.NormalizeText(replacer.Replace(strings.ToLower(value)))
}

// TitleScore rates a title: +10 per positive keyword hit, -20 per negative.
// Two clean positive hits make an exact match, one makes a good match,
// anything else is weak.
func TitleScore(title string, p Profile) (int, string) {
	t := strings.ToLower(title)

	positiveHits := 0
	for _, keyword := range dedupeLower(p.Positives) {
		if keyword != "" && strings.Contains(t, keyword) {
			positiveHits++
		}
	}
	negativeHits := 0
	for _, keyword := range dedupeLower(p.Negatives) {
		if keyword != "" && strings.Contains(t, keyword) {
			negativeHits++
		}
	}

	total := positiveHits*10 - negativeHits*20

	switch {
	case positiveHits >= 2 && negativeHits == 0:
		return total, MatchExact
	case positiveHits >= 1 && negativeHits == 0:
		return total, MatchGood
	default:
		return total, MatchWeak
	}
}

// ComputeFit is the apply/decide gate: strong matches above the threshold
// are an automatic "OK", everything else needs a human decision.
func ComputeFit(match string, total, minScoreApply int) string {
	m := strings.ToLower(match)
	if (m == MatchExact || m == MatchGood) && total >= minScoreApply {
		return "OK"
	}
	return "DECISION"
}

// LocationBoost adds one point when the posting location mentions any of the
// configured search locations.
func LocationBoost(jobLocation string, locations []string) int {
	normalized := Normalize(jobLocation)
	if normalized == "" {
		return 0
	}
	for _, loc := range locations {
		if key := Normalize(loc); key != "" && strings.Contains(normalized, key) {
			return 1
		}
	}
	return 0
}

// IsRemote reports whether the posting text flags remote work.
func IsRemote(p scraper.Posting, remoteKeywords []string) bool {
	if len(remoteKeywords) == 0 {
		return false
	}
	blob := Normalize(p.Location + " " + p.Title)
	for _, keyword := range remoteKeywords {
		if key := Normalize(keyword); key != "" && strings.Contains(blob, key) {
			return true
		}
	}
	return false
}

// HasBlockedKeywords gates on title and location text.
func HasBlockedKeywords(p scraper.Posting, blocked []string) bool {
	if len(blocked) == 0 {
		return false
	}
	return containsTerms(Normalize(p.Title+" "+p.Location), blocked)
}

// HasRequiredKeywords returns true when any required term appears in the
// posting text. Very short terms (<= 2 chars, typically abbreviations like
// "ml") must match a whole token to avoid accidental substring hits.
func HasRequiredKeywords(p scraper.Posting, required []string) bool {
	if len(required) == 0 {
		return true
	}
	normalized := Normalize(p.Title + " " + p.Company + " " + p.Location)
	if normalized == "" {
		return false
	}
	tokens := map[string]bool{}
	for _, tok := range strings.Fields(normalized) {
		tokens[tok] = true
	}
	for _, term := range required {
		key := Normalize(term)
		if key == "" {
			continue
		}
		if len(key) <= 2 {
			if tokens[key] {
				return true
			}
		} else if strings.Contains(normalized, key) {
			return true
		}
	}
	return false
}

// containsTerms matches a term either as a direct substring or, for
// multi-word terms, as tokens appearing in order anywhere in the text.
func containsTerms(normalized string, terms []string) bool {
	if normalized == "" {
		return false
	}
	tokens := strings.Fields(normalized)
	for _, term := range terms {
		key := Normalize(term)
		if key == "" {
			continue
		}
		if strings.Contains(normalized, key) {
			return true
		}
		if strings.Contains(key, " ") && tokensInOrder(tokens, strings.Fields(key)) {
			return true
		}
	}
	return false
}

func tokensInOrder(tokens, terms []string) bool {
	if len(tokens) == 0 || len(terms) == 0 {
		return false
	}
	idx := 0
	for _, tok := range tokens {
		if tok == terms[idx] {
			idx++
			if idx == len(terms) {
				return true
			}
		}
	}
	return false
}

func dedupeLower(items []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
