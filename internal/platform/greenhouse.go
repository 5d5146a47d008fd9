package platform

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

const greenhouseAPIBase = "https://boards-api.greenhouse.io/v1/boards"

// GreenhouseParser handles Greenhouse boards via the public boards API.
type GreenhouseParser struct{}

func NewGreenhouseParser() *GreenhouseParser { return &GreenhouseParser{} }

func (p *GreenhouseParser) Platform() string { return "greenhouse" }

// BuildAPIURL derives the boards API URL from a Greenhouse page URL.
// Board pages look like https://boards.greenhouse.io/<token>/... or
// https://job-boards.greenhouse.io/<token>.
func (p *GreenhouseParser) BuildAPIURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse greenhouse url: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", fmt.Errorf("no board token in greenhouse url %q", pageURL)
	}
	token := parts[0]
	if token == "embed" && len(parts) > 1 {
		// Embedded boards carry the token in ?for=.
		if forToken := u.Query().Get("for"); forToken != "" {
			token = forToken
		}
	}

	return fmt.Sprintf("%s/%s/jobs", greenhouseAPIBase, token), nil
}

// greenhouseJob is a single job in the boards API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// ParseAPIResponse decodes the boards API response into candidates.
// A malformed body yields zero candidates.
func (p *GreenhouseParser) ParseAPIResponse(body []byte, baseURL string) []model.JobCandidate {
	var resp greenhouseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil
	}

	candidates := make([]model.JobCandidate, 0, len(resp.Jobs))
	for _, gj := range resp.Jobs {
		if gj.Title == "" {
			continue
		}
		candidates = append(candidates, model.JobCandidate{
			Title:    gj.Title,
			Location: orUnknown(gj.Location.Name),
			URL:      gj.AbsoluteURL,
			Source:   p.Platform(),
		})
	}
	return candidates
}

// Parse extracts postings from a rendered Greenhouse board page. The API is
// preferred; this covers pages saved or proxied as HTML.
func (p *GreenhouseParser) Parse(html, baseURL string) []model.JobCandidate {
	return parseLinkList(html, baseURL, p.Platform(), func(href string) bool {
		return strings.Contains(href, "/jobs/")
	})
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}
