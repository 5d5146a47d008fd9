// Package discover locates a site's career page when none is known: career
// subdomains first, then sitemap entries, links on the home page, and common
// career paths. Results are cached; discovery is fetch-heavy.
package discover

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/saint-net/open-jobs-searcher/internal/cache"
	"github.com/saint-net/open-jobs-searcher/internal/model"
)

// Subdomains companies commonly host their job portal on.
var careerSubdomains = []string{
	"jobs", "careers", "karriere", "career", "stellen", "join", "work", "hiring",
}

// Path patterns that mark a URL as career-related. English, German, Russian.
var careerPathRes = compilePatterns(
	`/career[s]?`,
	`/job[s]?`,
	`/vacanc(?:y|ies)`,
	`/opening[s]?`,
	`/work[-_]?with[-_]?us`,
	`/join[-_]?us`,
	`/join[-_]?our[-_]?team`,
	`/hiring`,
	`/positions`,
	`/people[-_]?(?:and[-_]?)?jobs`,
	`/karriere`,
	`/stellen`,
	`/stellenangebote`,
	`/jobangebote`,
	`/arbeiten`,
	`/bewerben`,
	`/offene[-_]?stellen`,
	`/вакансии`,
	`/карьера`,
	`/работа`,
)

// Link texts that mark an anchor as career-related.
var careerLinkTexts = []string{
	"career", "careers", "jobs", "vacancies", "openings",
	"join us", "work with us", "we're hiring",
	"karriere", "stellen", "stellenangebote", "jobangebote",
	"offene stellen", "arbeiten bei uns", "jetzt bewerben",
	"вакансии", "карьера", "работа у нас",
}

// Common career paths, probed last. Ordered most- to least-likely.
var commonCareerPaths = []string{
	"/careers", "/jobs", "/karriere", "/career", "/stellen",
	"/stellenangebote", "/offene-stellen", "/jobs-karriere",
	"/careers.html", "/karriere.html",
	"/join", "/team",
	"/about/careers", "/company/careers",
	"/en/careers", "/de/karriere", "/unternehmen/karriere",
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(`(?i)` + p)
	}
	return res
}

// Discoverer finds career page URLs for tracked sites.
type Discoverer struct {
	fetcher   model.PageFetcher
	responses *cache.ResponseCache
	logger    *slog.Logger
}

// New wires a discoverer over a page fetcher and response cache.
func New(fetcher model.PageFetcher, responses *cache.ResponseCache, logger *slog.Logger) *Discoverer {
	return &Discoverer{fetcher: fetcher, responses: responses, logger: logger}
}

// Discover returns the best career page URL for a site's base URL, running
// the strategies in order until one yields a page. Hits are cached for days;
// a site's career page location moves far more slowly than its listings.
func (d *Discoverer) Discover(ctx context.Context, baseURL string) (string, error) {
	key := strings.TrimRight(baseURL, "/")
	if v, ok := d.responses.Get(ctx, cache.NSURLDiscovery, key); ok {
		return string(v), nil
	}

	found := d.run(ctx, key)
	if found == "" {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no career page found for %s", baseURL)
	}

	d.responses.Set(ctx, cache.NSURLDiscovery, key, []byte(found), 0)
	return found, nil
}

func (d *Discoverer) run(ctx context.Context, baseURL string) string {
	if u := d.fromSubdomain(ctx, baseURL); u != "" {
		d.logger.Debug("career page on subdomain", "url", u)
		return u
	}
	if u := d.fromSitemap(ctx, baseURL); u != "" {
		d.logger.Debug("career page from sitemap", "url", u)
		return u
	}
	if u := d.fromHomePage(ctx, baseURL); u != "" {
		d.logger.Debug("career page from home page link", "url", u)
		return u
	}
	if u := d.fromCommonPaths(ctx, baseURL); u != "" {
		d.logger.Debug("career page at common path", "url", u)
		return u
	}
	return ""
}

// fromSubdomain probes jobs.example.com, careers.example.com and friends.
func (d *Discoverer) fromSubdomain(ctx context.Context, baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	for _, sub := range careerSubdomains {
		if ctx.Err() != nil {
			return ""
		}
		candidate := scheme + "://" + sub + "." + host
		page, err := d.fetcher.Fetch(ctx, candidate)
		if err != nil {
			continue
		}
		if page.FinalURL != "" {
			return page.FinalURL
		}
		return candidate
	}
	return ""
}

// fromHomePage fetches the base page and scans its links, matching the href
// against career path patterns and the link text against career keywords.
func (d *Discoverer) fromHomePage(ctx context.Context, baseURL string) string {
	page, err := d.fetcher.Fetch(ctx, baseURL)
	if err != nil {
		return ""
	}
	base := page.FinalURL
	if base == "" {
		base = baseURL
	}
	return FindCareerLink(page.HTML, base)
}

// fromCommonPaths probes well-known career paths under the base URL.
func (d *Discoverer) fromCommonPaths(ctx context.Context, baseURL string) string {
	for _, path := range commonCareerPaths {
		if ctx.Err() != nil {
			return ""
		}
		candidate := baseURL + path
		if page, err := d.fetcher.Fetch(ctx, candidate); err == nil {
			if page.FinalURL != "" {
				return page.FinalURL
			}
			return candidate
		}
	}
	return ""
}

func matchesCareerPath(s string) bool {
	for _, re := range careerPathRes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
