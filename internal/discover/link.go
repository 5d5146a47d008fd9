package discover

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FindCareerLink scans page HTML for an anchor pointing at a careers page,
// first by href pattern and then by link text. Returns the resolved absolute
// URL, or "" when no link qualifies.
func FindCareerLink(html, baseURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	found := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") {
			return true
		}

		if matchesCareerPath(href) {
			found = resolveLink(href, baseURL)
			return found == ""
		}

		text := strings.ToLower(strings.Join(strings.Fields(link.Text()), " "))
		for _, keyword := range careerLinkTexts {
			if strings.Contains(text, keyword) {
				found = resolveLink(href, baseURL)
				return found == ""
			}
		}
		return true
	})
	return found
}

func resolveLink(href, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
