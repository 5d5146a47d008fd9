// Package extract turns fetched career pages into validated job candidates:
// structured-data extraction, candidate scoring, the strategy cascade, and
// the pagination loop.
package extract

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

// SourceSchemaOrg tags candidates extracted from embedded JobPosting markup.
const SourceSchemaOrg = "schema_org"

// StructuredData extracts candidates from schema.org JobPosting markup:
// JSON-LD script tags (object, array, and @graph forms) plus microdata.
// Near-certain precision; one hit short-circuits the rest of the cascade.
type StructuredData struct{}

// jsonLDNode is the subset of a JSON-LD node we read. Fields we only probe
// are decoded as raw messages because sites nest them inconsistently.
type jsonLDNode struct {
	Type               json.RawMessage   `json:"@type"`
	Graph              []json.RawMessage `json:"@graph"`
	Title              string            `json:"title"`
	URL                string            `json:"url"`
	Industry           string            `json:"industry"`
	JobLocation        json.RawMessage   `json:"jobLocation"`
	HiringOrganization json.RawMessage   `json:"hiringOrganization"`
}

// Extract returns all JobPosting candidates found in the page markup.
func (s StructuredData) Extract(html, pageURL string) []model.JobCandidate {
	var candidates []model.JobCandidate

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	doc.Find(`script[type="application/ld+json"], script[type="application/json"]`).Each(func(_ int, script *goquery.Selection) {
		raw := strings.TrimSpace(script.Text())
		if raw == "" {
			return
		}
		candidates = append(candidates, parseJSONLD([]byte(raw), pageURL)...)
	})

	doc.Find(`[itemtype*="JobPosting"]`).Each(func(_ int, item *goquery.Selection) {
		if c, ok := parseMicrodata(item, pageURL); ok {
			candidates = append(candidates, c)
		}
	})

	return candidates
}

// parseJSONLD handles a raw JSON-LD payload: a single node, an array of
// nodes, or a node with an @graph list.
func parseJSONLD(raw []byte, pageURL string) []model.JobCandidate {
	var nodes []json.RawMessage

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &nodes); err != nil {
			return nil
		}
	} else {
		nodes = []json.RawMessage{raw}
	}

	var candidates []model.JobCandidate
	for _, rawNode := range nodes {
		var node jsonLDNode
		if err := json.Unmarshal(rawNode, &node); err != nil {
			continue
		}

		if nodeType(node.Type) == "JobPosting" {
			if c, ok := candidateFromNode(node, pageURL); ok {
				candidates = append(candidates, c)
			}
			continue
		}

		for _, rawGraph := range node.Graph {
			var graphNode jsonLDNode
			if err := json.Unmarshal(rawGraph, &graphNode); err != nil {
				continue
			}
			if nodeType(graphNode.Type) != "JobPosting" {
				continue
			}
			if c, ok := candidateFromNode(graphNode, pageURL); ok {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates
}

// nodeType reads @type, which may be a string or an array of strings.
func nodeType(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var multi []string
	if err := json.Unmarshal(raw, &multi); err == nil {
		for _, t := range multi {
			if t == "JobPosting" {
				return "JobPosting"
			}
		}
		if len(multi) > 0 {
			return multi[0]
		}
	}
	return ""
}

func candidateFromNode(node jsonLDNode, pageURL string) (model.JobCandidate, bool) {
	title := strings.TrimSpace(node.Title)
	if title == "" {
		return model.JobCandidate{}, false
	}

	jobURL := node.URL
	if jobURL != "" && !strings.HasPrefix(jobURL, "http") {
		jobURL = resolveRelative(jobURL, pageURL)
	}

	return model.JobCandidate{
		Title:      title,
		Location:   schemaLocation(node.JobLocation),
		URL:        jobURL,
		Department: node.Industry,
		Source:     SourceSchemaOrg,
		Signals: model.Signals{
			HasURL:      jobURL != "",
			HasLocation: schemaLocation(node.JobLocation) != "Unknown",
		},
	}, true
}

// schemaLocation digs addressLocality out of jobLocation, which sites emit
// as an object, an array, or a bare string.
func schemaLocation(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "Unknown"
	}

	type address struct {
		AddressLocality string `json:"addressLocality"`
	}
	type jobLocation struct {
		Address json.RawMessage `json:"address"`
	}

	extractOne := func(raw json.RawMessage) string {
		var loc jobLocation
		if err := json.Unmarshal(raw, &loc); err != nil || len(loc.Address) == 0 {
			return ""
		}
		var addr address
		if err := json.Unmarshal(loc.Address, &addr); err == nil && addr.AddressLocality != "" {
			return addr.AddressLocality
		}
		var plain string
		if err := json.Unmarshal(loc.Address, &plain); err == nil {
			return plain
		}
		return ""
	}

	if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err == nil {
			for _, item := range list {
				if got := extractOne(item); got != "" {
					return got
				}
			}
		}
		return "Unknown"
	}

	if got := extractOne(raw); got != "" {
		return got
	}
	return "Unknown"
}

func parseMicrodata(item *goquery.Selection, pageURL string) (model.JobCandidate, bool) {
	titleElem := item.Find(`[itemprop="title"], [itemprop="name"]`).First()
	title := strings.TrimSpace(titleElem.Text())
	if title == "" {
		return model.JobCandidate{}, false
	}

	jobURL, _ := item.Find(`[itemprop="url"]`).First().Attr("href")
	if jobURL != "" && !strings.HasPrefix(jobURL, "http") {
		jobURL = resolveRelative(jobURL, pageURL)
	}

	location := strings.TrimSpace(item.Find(`[itemprop="jobLocation"] [itemprop="addressLocality"]`).First().Text())
	if location == "" {
		location = "Unknown"
	}

	return model.JobCandidate{
		Title:    title,
		Location: location,
		URL:      jobURL,
		Source:   SourceSchemaOrg,
		Signals: model.Signals{
			HasURL:      jobURL != "",
			HasLocation: location != "Unknown",
		},
	}, true
}

func resolveRelative(href, base string) string {
	baseU, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseU.ResolveReference(ref).String()
}
