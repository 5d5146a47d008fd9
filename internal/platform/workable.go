package platform

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

// WorkableParser extracts postings from Workable-hosted career pages.
// Posting links use /j/<shortcode> paths.
type WorkableParser struct{}

func NewWorkableParser() *WorkableParser { return &WorkableParser{} }

func (p *WorkableParser) Platform() string { return "workable" }

func (p *WorkableParser) Parse(html, baseURL string) []model.JobCandidate {
	return parseLinkList(html, baseURL, p.Platform(), func(href string) bool {
		return strings.Contains(href, "/j/")
	})
}

// parseLinkList is the shared HTML fallback for board pages whose postings
// are plain anchor lists: every link matching the predicate becomes one
// candidate with the link text as title. Location, when present, follows the
// title after a separator the boards commonly use.
func parseLinkList(html, baseURL, source string, match func(href string) bool) []model.JobCandidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var candidates []model.JobCandidate
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !match(href) {
			return
		}

		jobURL := resolveURL(href, baseURL)
		if seen[jobURL] {
			return
		}
		seen[jobURL] = true

		text := strings.Join(strings.Fields(link.Text()), " ")
		if text == "" {
			return
		}

		title, location := text, "Unknown"
		for _, sep := range []string{" · ", " — ", " | "} {
			if idx := strings.Index(text, sep); idx > 0 {
				title = strings.TrimSpace(text[:idx])
				location = strings.TrimSpace(strings.SplitN(text[idx+len(sep):], sep, 2)[0])
				break
			}
		}

		candidates = append(candidates, model.JobCandidate{
			Title:    title,
			Location: orUnknown(location),
			URL:      jobURL,
			Source:   source,
		})
	})

	return candidates
}

// resolveURL builds an absolute URL from an href and the page's base URL.
func resolveURL(href, baseURL string) string {
	if href == "" {
		return baseURL
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
