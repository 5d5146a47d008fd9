package platform

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

// RecruiteeParser handles Recruitee career sites. The pages are a SPA, so
// listings come from the offers API at <company>.recruitee.com/api/offers/.
type RecruiteeParser struct{}

func NewRecruiteeParser() *RecruiteeParser { return &RecruiteeParser{} }

func (p *RecruiteeParser) Platform() string { return "recruitee" }

// BuildAPIURL derives the offers API URL from any page on the company's
// Recruitee site.
func (p *RecruiteeParser) BuildAPIURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse recruitee url: %w", err)
	}
	if !strings.HasSuffix(u.Host, ".recruitee.com") {
		return "", fmt.Errorf("not a recruitee host: %q", u.Host)
	}
	return fmt.Sprintf("https://%s/api/offers/", u.Host), nil
}

// recruiteeOffer is a single offer in the Recruitee API response.
type recruiteeOffer struct {
	Title      string `json:"title"`
	Location   string `json:"location"`
	City       string `json:"city"`
	CareersURL string `json:"careers_url"`
	Department string `json:"department"`
	Status     string `json:"status"`
}

type recruiteeResponse struct {
	Offers []recruiteeOffer `json:"offers"`
}

// ParseAPIResponse decodes the offers API response into candidates.
// A malformed body yields zero candidates.
func (p *RecruiteeParser) ParseAPIResponse(body []byte, baseURL string) []model.JobCandidate {
	var resp recruiteeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil
	}

	candidates := make([]model.JobCandidate, 0, len(resp.Offers))
	for _, offer := range resp.Offers {
		if offer.Title == "" {
			continue
		}
		if offer.Status != "" && offer.Status != "published" {
			continue
		}

		location := offer.Location
		if location == "" {
			location = offer.City
		}

		candidates = append(candidates, model.JobCandidate{
			Title:      offer.Title,
			Location:   orUnknown(location),
			URL:        offer.CareersURL,
			Department: offer.Department,
			Source:     p.Platform(),
		})
	}
	return candidates
}

// Parse extracts what it can from server-rendered Recruitee pages; most
// sites render client-side and go through the API path instead.
func (p *RecruiteeParser) Parse(html, baseURL string) []model.JobCandidate {
	return parseLinkList(html, baseURL, p.Platform(), func(href string) bool {
		return strings.Contains(href, "/o/")
	})
}
