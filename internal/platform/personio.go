package platform

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

// Personio link text runs title, employment type, and locations together:
// "Title (all)Permanent employee, Full-time·Berlin·Munich".
// Checked in order; a match at position 0 means the pattern is part of the
// title itself ("Working Student Marketing") and the next pattern is tried.
var (
	personioTypeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(Permanent employee|Intern / Student|Working student|Freelancer)`),
		regexp.MustCompile(`(?i)(Full-time|Part-time|Teilzeit|Vollzeit)`),
	}
	personioAllRe = regexp.MustCompile(`(?i)\s*\(all\)\s*$`)
)

// PersonioParser extracts postings from Personio-hosted career pages.
type PersonioParser struct{}

func NewPersonioParser() *PersonioParser { return &PersonioParser{} }

func (p *PersonioParser) Platform() string { return "personio" }

// Parse walks all /job/<id> links, splitting title from the employment-type
// and location segments Personio concatenates into the link text.
func (p *PersonioParser) Parse(html, baseURL string) []model.JobCandidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var candidates []model.JobCandidate
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !strings.Contains(href, "/job/") {
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

		title := text
		location := "Unknown"

		for _, re := range personioTypeRes {
			loc := re.FindStringIndex(text)
			if loc == nil || loc[0] == 0 {
				continue
			}
			title = strings.TrimSpace(text[:loc[0]])
			// Locations follow the employment type, separated by middle dots.
			if idx := strings.Index(text[loc[0]:], "·"); idx >= 0 {
				rest := text[loc[0]+idx:]
				parts := strings.Split(strings.Trim(rest, "· "), "·")
				if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
					location = strings.TrimSpace(parts[0])
				}
			}
			break
		}

		title = strings.TrimSpace(personioAllRe.ReplaceAllString(title, ""))
		if title == "" {
			return
		}

		candidates = append(candidates, model.JobCandidate{
			Title:    title,
			Location: location,
			URL:      jobURL,
			Source:   p.Platform(),
		})
	})

	return candidates
}
