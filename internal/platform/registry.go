// Package platform detects known job-board platforms and parses their pages
// into job candidates. Parsers are pure, deterministic transformations and
// never invoke the model service.
package platform

import (
	"regexp"
	"strings"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

// Generic is the platform tag for pages no registered parser claims.
const Generic = "generic"

// Parser extracts job candidates from a platform's listing HTML.
type Parser interface {
	Platform() string
	Parse(html, baseURL string) []model.JobCandidate
}

// APIParser is implemented by platforms whose listings are fetched from a
// JSON API instead of parsed out of HTML.
type APIParser interface {
	Parser
	BuildAPIURL(pageURL string) (string, error)
	ParseAPIResponse(body []byte, baseURL string) []model.JobCandidate
}

// signature is one detection rule. URL patterns are checked first (cheap,
// deterministic); markers are substrings looked up in page content only when
// URL detection is inconclusive.
type signature struct {
	platform   string
	urlPattern *regexp.Regexp
	markers    []string
}

// Registry maps detected platform tags to parsers. Signatures are mutually
// exclusive by construction: each matches a distinct board host or embed
// marker, so the first match is the only match.
type Registry struct {
	parsers    map[string]Parser
	signatures []signature
}

// NewRegistry returns a registry with all built-in platforms registered.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}

	r.register(NewGreenhouseParser(), `boards(?:-eu)?\.greenhouse\.io|job-boards\.greenhouse\.io`,
		"boards.greenhouse.io/embed", "grnhse_app")
	r.register(NewLeverParser(), `jobs(?:\.eu)?\.lever\.co`,
		"lever-jobs-embed")
	r.register(NewPersonioParser(), `\.jobs\.personio\.(?:de|com)`,
		"personio-position", "jobs.personio.de/widget")
	r.register(NewWorkableParser(), `apply\.workable\.com|\.workable\.com/j/`,
		"whr-embed", "workable-application")
	r.register(NewRecruiteeParser(), `\.recruitee\.com`,
		"RecruiteeCareersSite", "recruitee-careers-widget")

	// Detection-only tags: recognized so the career URL is labeled, parsed
	// by the generic cascade for now.
	r.signatures = append(r.signatures,
		signature{platform: "smartrecruiters", urlPattern: regexp.MustCompile(`\.smartrecruiters\.com`)},
		signature{platform: "ashby", urlPattern: regexp.MustCompile(`\.ashbyhq\.com`)},
		signature{platform: "bamboohr", urlPattern: regexp.MustCompile(`\.bamboohr\.com/jobs`)},
	)

	return r
}

func (r *Registry) register(p Parser, urlPattern string, markers ...string) {
	r.parsers[p.Platform()] = p
	r.signatures = append(r.signatures, signature{
		platform:   p.Platform(),
		urlPattern: regexp.MustCompile(`(?i)` + urlPattern),
		markers:    markers,
	})
}

// Detect returns the platform tag for a page, or Generic. URL host/path
// patterns win; content markers are consulted only when no URL matches.
func (r *Registry) Detect(url, html string) string {
	for _, sig := range r.signatures {
		if sig.urlPattern.MatchString(url) {
			return sig.platform
		}
	}
	if html != "" {
		for _, sig := range r.signatures {
			for _, marker := range sig.markers {
				if strings.Contains(html, marker) {
					return sig.platform
				}
			}
		}
	}
	return Generic
}

// Parser returns the parser registered for the platform tag, or nil. A tag
// without a parser (detection-only) falls through to the generic cascade.
func (r *Registry) Parser(platform string) Parser {
	return r.parsers[platform]
}

// APIParser returns the platform's API parser when its listings come from a
// JSON API rather than the page HTML.
func (r *Registry) APIParser(platform string) (APIParser, bool) {
	p, ok := r.parsers[platform].(APIParser)
	return p, ok
}

// Parse dispatches HTML to the platform's parser. Unknown platforms and
// parser failures yield zero candidates; detection mismatches are expected.
func (r *Registry) Parse(platform, html, baseURL string) []model.JobCandidate {
	p := r.parsers[platform]
	if p == nil {
		return nil
	}
	return p.Parse(html, baseURL)
}
