package extract

import (
	"regexp"
	"strings"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

// Validator is a pure predicate deciding whether a candidate is a real
// posting. Rules are independent of the extraction source and pluggable per
// locale. A rejected candidate is dropped silently, never an error.
type Validator interface {
	Valid(c model.JobCandidate) bool
}

// Patterns for entries that are applications-welcome placeholders or page
// furniture rather than actual postings. English and German locales.
var nonJobEntryRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)initiativ\s*bewerbung`),
	regexp.MustCompile(`(?i)spontanbewerbung`),
	regexp.MustCompile(`(?i)blindbewerbung`),
	regexp.MustCompile(`(?i)open\s*application`),
	regexp.MustCompile(`(?i)unsolicited\s*application`),
	regexp.MustCompile(`(?i)speculative\s*application`),
	regexp.MustCompile(`(?i)general\s*application`),
	regexp.MustCompile(`(?i)^type:\s*`),
	regexp.MustCompile(`(?i)^maximum storage`),
	regexp.MustCompile(`©`),
	regexp.MustCompile(`(?i)^[a-z0-9.-]+\.[a-z]{2,4}$`), // bare domain names
	regexp.MustCompile(`(?i)^(html\s+)?local\s+storage$`),
	regexp.MustCompile(`(?i)^\d+\s*(year|month|day)s?$`),
	regexp.MustCompile(`(?i)^session$`),
}

// NonJobValidator rejects structural boilerplate and unsolicited-application
// placeholders by title pattern.
type NonJobValidator struct{}

func NewNonJobValidator() NonJobValidator { return NonJobValidator{} }

func (NonJobValidator) Valid(c model.JobCandidate) bool {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return false
	}
	for _, re := range nonJobEntryRes {
		if re.MatchString(title) {
			return false
		}
	}
	return true
}

// ValidatorSet combines validators; a candidate must pass all of them.
type ValidatorSet []Validator

func (vs ValidatorSet) Valid(c model.JobCandidate) bool {
	for _, v := range vs {
		if !v.Valid(c) {
			return false
		}
	}
	return true
}
