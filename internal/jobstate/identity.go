package jobstate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fields is the flat, source-schema view of a posting as it arrives from a
// portal adapter or a legacy file. Portals disagree on field names, so the
// identity builder resolves aliases here instead of forcing every adapter
// into one schema up front.
type Fields map[string]string

// First returns the first non-empty value among the given keys, trimmed.
func (f Fields) First(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(f[k]); v != "" {
			return v
		}
	}
	return ""
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// stripMarks removes diacritical marks after canonical decomposition, so
// "Zürich" and "Zurich" normalize to the same token.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText lowercases, strips diacritics and collapses everything that
// is not a-z0-9 into single spaces. Used for the fallback identity tier and
// for keyword matching.
func NormalizeText(value string) string {
	text := strings.ToLower(value)
	if out, _, err := transform.String(stripMarks, text); err == nil {
		text = out
	}
	text = nonAlnum.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CanonicalizeURL normalizes a posting link for deduplication: scheme and
// host are lowercased, query and fragment are dropped, and a trailing slash
// is stripped from the path (the bare root path "/" survives). Anything that
// does not parse as an absolute URL is returned as-is.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return raw
	}
	path := parsed.EscapedPath()
	if strings.HasSuffix(path, "/") && path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host) + path
}

// BuildJobUID derives the stable 16-hex-character identity of a posting plus
// its canonical URL. The basis string construction is a compatibility
// contract with existing state files: changing it invalidates every stored
// UID.
//
// Priority: canonical link, then external ID, then normalized
// title/company/location/link text. The source always participates so that
// identical postings on different portals stay distinct.
func BuildJobUID(f Fields) (uid, canonicalURL string) {
	source := f.First("source", "portal", "origin", "site")
	if source == "" {
		source = "unknown"
	}

	link := f.First("link", "url", "apply_url", "applyLink")
	canonicalURL = CanonicalizeURL(link)

	var base string
	switch {
	case canonicalURL != "":
		base = fmt.Sprintf("url|%s|%s", source, canonicalURL)
	case f.First("external_id", "job_id", "id") != "":
		base = fmt.Sprintf("id|%s|%s", source, f.First("external_id", "job_id", "id"))
	default:
		title := NormalizeText(f.First("title", "job_title", "position"))
		company := NormalizeText(f.First("company", "employer"))
		location := NormalizeText(f.First("location", "city"))
		base = fmt.Sprintf("fallback|%s|%s|%s|%s|%s", source, title, company, location, NormalizeText(link))
	}

	return digest16(base), canonicalURL
}

// LegacyUID hashes a bare identity string from the old seen-jobs format.
func LegacyUID(key string) string {
	return digest16("legacy|" + key)
}

func digest16(base string) string {
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:])[:16]
}
