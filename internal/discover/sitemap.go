package discover

import (
	"context"
	"encoding/xml"
	"net/url"
	"strings"
)

// sitemapDoc decodes both <urlset> and <sitemapindex> documents.
type sitemapDoc struct {
	Sitemaps []sitemapLoc `xml:"sitemap"`
	URLs     []sitemapLoc `xml:"url"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// Nested sitemaps fetched from an index, at most. Large sites split their
// sitemap into dozens of files; career pages live in the first few that
// mention pages or careers at all.
const maxNestedSitemaps = 5

// fromSitemap collects page URLs from the site's sitemap and picks the best
// career-looking one.
func (d *Discoverer) fromSitemap(ctx context.Context, baseURL string) string {
	var all []string

	for _, path := range []string{"/sitemap.xml", "/sitemap_index.xml", "/sitemap-index.xml"} {
		if ctx.Err() != nil {
			return ""
		}
		doc, ok := d.fetchSitemap(ctx, baseURL+path)
		if !ok {
			continue
		}

		// An index lists nested sitemaps: load career-related ones first,
		// then page sitemaps, and skip the rest.
		var nested []string
		for _, sm := range doc.Sitemaps {
			lower := strings.ToLower(sm.Loc)
			switch {
			case matchesCareerPath(sm.Loc) ||
				strings.Contains(lower, "career") ||
				strings.Contains(lower, "karriere") ||
				strings.Contains(lower, "job") ||
				strings.Contains(lower, "stellen"):
				nested = append([]string{sm.Loc}, nested...)
			case strings.Contains(lower, "page"):
				nested = append(nested, sm.Loc)
			}
		}
		if len(nested) > maxNestedSitemaps {
			nested = nested[:maxNestedSitemaps]
		}
		for _, loc := range nested {
			if child, ok := d.fetchSitemap(ctx, loc); ok {
				for _, u := range child.URLs {
					all = append(all, u.Loc)
				}
			}
		}

		for _, u := range doc.URLs {
			all = append(all, u.Loc)
		}
	}

	var matching []string
	for _, pageURL := range all {
		if matchesCareerPath(pageURL) {
			matching = append(matching, pageURL)
		}
	}
	if len(matching) == 0 {
		return ""
	}
	return selectBestCareerURL(matching)
}

// fetchSitemap fetches and decodes one sitemap file. HTML 404 pages served
// with a 200 are rejected before XML parsing.
func (d *Discoverer) fetchSitemap(ctx context.Context, sitemapURL string) (sitemapDoc, bool) {
	page, err := d.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return sitemapDoc{}, false
	}
	body := strings.TrimSpace(page.HTML)
	if !strings.HasPrefix(body, "<?xml") &&
		!strings.HasPrefix(body, "<urlset") &&
		!strings.HasPrefix(body, "<sitemapindex") {
		return sitemapDoc{}, false
	}

	var doc sitemapDoc
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		d.logger.Debug("sitemap parse failed", "url", sitemapURL, "error", err)
		return sitemapDoc{}, false
	}
	return doc, true
}

// Endings of actual job listing pages, most specific first.
var jobListingEndings = []string{
	"/jobs", "/job", "/vacancies", "/vacancy", "/openings", "/opening",
	"/careers", "/stellenangebote", "/offene-stellen", "/stellen", "/вакансии",
}

// Endings of general careers sections, the parent pages of listings.
var generalCareerEndings = []string{
	"/career", "/karriere", "/people-jobs", "/people-and-jobs", "/карьера", "/работа",
}

// urlScore orders candidates: lower compares as better, field by field.
type urlScore struct {
	priority int // 0 listing ending, 1 careers ending, 2 short slug, 3 long slug
	endIdx   int // position in the ending list, more specific first
	depth    int // path segments
	length   int
}

func (s urlScore) better(than urlScore) bool {
	if s.priority != than.priority {
		return s.priority < than.priority
	}
	if s.endIdx != than.endIdx {
		return s.endIdx < than.endIdx
	}
	if s.depth != than.depth {
		return s.depth < than.depth
	}
	return s.length < than.length
}

// selectBestCareerURL picks the most listing-like URL: job listing endings
// beat general careers sections, which beat short slugs, which beat deep
// job-detail pages.
func selectBestCareerURL(urls []string) string {
	best := urls[0]
	bestScore := scoreCareerURL(best)
	for _, u := range urls[1:] {
		if s := scoreCareerURL(u); s.better(bestScore) {
			best, bestScore = u, s
		}
	}
	return best
}

func scoreCareerURL(rawURL string) urlScore {
	path := ""
	if u, err := url.Parse(rawURL); err == nil {
		path = strings.TrimRight(u.Path, "/")
	}
	normalized := strings.ToLower(strings.TrimSuffix(path, ".html"))
	segments := strings.FieldsFunc(normalized, func(r rune) bool { return r == '/' })

	for idx, ending := range jobListingEndings {
		if strings.HasSuffix(normalized, ending) {
			return urlScore{priority: 0, endIdx: idx, depth: len(segments), length: len(rawURL)}
		}
	}
	for idx, ending := range generalCareerEndings {
		if strings.HasSuffix(normalized, ending) {
			return urlScore{priority: 1, endIdx: idx, depth: len(segments), length: len(rawURL)}
		}
	}

	last := ""
	if len(segments) > 0 {
		last = segments[len(segments)-1]
	}
	if len(last) < 30 {
		return urlScore{priority: 2, depth: len(segments), length: len(rawURL)}
	}
	return urlScore{priority: 3, depth: len(segments), length: len(rawURL)}
}
