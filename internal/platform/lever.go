package platform

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

const leverAPIBase = "https://api.lever.co/v0/postings"

// LeverParser handles Lever boards via the public postings API.
type LeverParser struct{}

func NewLeverParser() *LeverParser { return &LeverParser{} }

func (p *LeverParser) Platform() string { return "lever" }

// BuildAPIURL derives the postings API URL from a Lever board page URL like
// https://jobs.lever.co/<company> or https://jobs.eu.lever.co/<company>/....
func (p *LeverParser) BuildAPIURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse lever url: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", fmt.Errorf("no company slug in lever url %q", pageURL)
	}

	return fmt.Sprintf("%s/%s?mode=json", leverAPIBase, parts[0]), nil
}

// leverCategories is the categories object in a Lever posting.
type leverCategories struct {
	Location     string   `json:"location"`
	AllLocations []string `json:"allLocations"`
	Department   string   `json:"department"`
}

// leverJob is a single posting in the Lever API response.
type leverJob struct {
	ID         string          `json:"id"`
	Text       string          `json:"text"`
	Categories leverCategories `json:"categories"`
	HostedURL  string          `json:"hostedUrl"`
}

// ParseAPIResponse decodes the postings API response into candidates.
// A malformed body yields zero candidates.
func (p *LeverParser) ParseAPIResponse(body []byte, baseURL string) []model.JobCandidate {
	var postings []leverJob
	if err := json.Unmarshal(body, &postings); err != nil {
		return nil
	}

	candidates := make([]model.JobCandidate, 0, len(postings))
	for _, lj := range postings {
		if lj.Text == "" {
			continue
		}

		// Prefer allLocations when present, fall back to location.
		location := lj.Categories.Location
		if len(lj.Categories.AllLocations) > 0 {
			location = strings.Join(lj.Categories.AllLocations, ", ")
		}

		candidates = append(candidates, model.JobCandidate{
			Title:      lj.Text,
			Location:   orUnknown(location),
			URL:        lj.HostedURL,
			Department: lj.Categories.Department,
			Source:     p.Platform(),
		})
	}
	return candidates
}

var leverPostingRe = regexp.MustCompile(`jobs(?:\.eu)?\.lever\.co/[^/]+/[0-9a-f-]{8,}`)

// Parse extracts postings from a rendered Lever board page.
func (p *LeverParser) Parse(html, baseURL string) []model.JobCandidate {
	return parseLinkList(html, baseURL, p.Platform(), leverPostingRe.MatchString)
}
