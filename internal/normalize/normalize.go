// Package normalize provides title/location normalization and the identity
// key used to deduplicate and track postings across scans.
package normalize

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	genderParenRe = regexp.MustCompile(`\s*\([mwfdx/]+\)\s*`)
	genderTailRe  = regexp.MustCompile(`\s+[mwfdx]/[mwfdx](/[mwfdx])?\s*$`)
	spaceRe       = regexp.MustCompile(`\s+`)

	// Suffixes job boards append to titles that are not part of the title.
	titleSuffixRes = []*regexp.Regexp{
		regexp.MustCompile(`[\s\-|:]*job\s*advert\s*$`),
		regexp.MustCompile(`[\s\-|:]*job\s*posting\s*$`),
		regexp.MustCompile(`[\s\-|:]*stellenanzeige\s*$`),
		regexp.MustCompile(`[\s\-|:]*job\s*offer\s*$`),
		regexp.MustCompile(`[\s\-|:]*vacancy\s*$`),
		regexp.MustCompile(`[\s\-|:]*apply\s*now\s*$`),
	}

	// Country suffixes that cause "Berlin, Germany" vs "Berlin" mismatches.
	countrySuffixRes = []*regexp.Regexp{
		regexp.MustCompile(`,?\s*deutschland\s*$`),
		regexp.MustCompile(`,?\s*germany\s*$`),
		regexp.MustCompile(`,?\s*österreich\s*$`),
		regexp.MustCompile(`,?\s*austria\s*$`),
		regexp.MustCompile(`,?\s*schweiz\s*$`),
		regexp.MustCompile(`,?\s*switzerland\s*$`),
		regexp.MustCompile(`,?\s*united\s*kingdom\s*$`),
		regexp.MustCompile(`,?\s*uk\s*$`),
		regexp.MustCompile(`,?\s*usa\s*$`),
		regexp.MustCompile(`,?\s*united\s*states\s*$`),
		regexp.MustCompile(`,?\s*netherlands\s*$`),
		regexp.MustCompile(`,?\s*france\s*$`),
	}
)

// Title normalizes a job title for comparison: lowercase, board suffixes and
// gender notation removed, whitespace collapsed.
func Title(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	for _, re := range titleSuffixRes {
		result = re.ReplaceAllString(result, "")
	}
	result = genderParenRe.ReplaceAllString(result, " ")
	result = genderTailRe.ReplaceAllString(result, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(result, " "))
}

// Location normalizes a location for comparison: lowercase, country suffixes
// removed, whitespace collapsed.
func Location(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	for _, re := range countrySuffixRes {
		result = re.ReplaceAllString(result, "")
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(result, " "))
}

// Key is the identity key for a posting: its URL when present and usable,
// otherwise the normalized (title, location) pair. basePage is the listing
// page URL; links pointing back at the listing itself carry no identity and
// are treated as absent.
func Key(title, location, jobURL, basePage string) string {
	u := CleanJobURL(jobURL, basePage)
	if u != "" {
		return "url:" + u
	}
	return "tl:" + Title(title) + "|" + Location(location)
}

// CleanJobURL returns the posting URL, or "" when the URL is missing,
// a junk placeholder, or a self-reference to the listing page.
func CleanJobURL(jobURL, basePage string) string {
	u := strings.TrimSpace(jobURL)
	if u == "" || u == "None" || u == "null" || u == "#" {
		return ""
	}

	base := strings.TrimRight(basePage, "/")
	trimmed := strings.TrimRight(strings.TrimSuffix(u, "#"), "/")
	if trimmed == base {
		return ""
	}
	return u
}

// CleanCareerURL canonicalizes a career page URL before it is persisted:
// query string and fragment dropped, trailing slash trimmed. Duplicate
// career URLs differing only in tracking params collapse to one row.
func CleanCareerURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil {
		return strings.TrimRight(trimmed, "/")
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/")
}
