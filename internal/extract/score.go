package extract

import (
	"regexp"
	"strings"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

// AcceptThreshold is the minimum score a candidate needs to reach the sync
// engine. Structured-data results are sanity-filtered, not gated.
const AcceptThreshold = 0.4

// Base scores per extraction source, before signal adjustments.
var sourceBase = map[string]float64{
	SourceSchemaOrg: 0.95,
	"llm":           0.70,
	"personio":      0.85,
	"greenhouse":    0.85,
	"lever":         0.85,
	"workable":      0.85,
	"recruitee":     0.85,
}

// Job-title keywords, English and German. Presence is a positive signal.
var titleKeywords = map[string]bool{
	"manager": true, "developer": true, "engineer": true, "consultant": true,
	"analyst": true, "designer": true, "director": true, "specialist": true,
	"coordinator": true, "assistant": true, "administrator": true,
	"architect": true, "lead": true, "senior": true, "junior": true,
	"intern": true, "trainee": true, "head": true, "chief": true, "officer": true,
	"leiter": true, "leiterin": true, "berater": true, "entwickler": true,
	"ingenieur": true, "fachkraft": true, "mitarbeiter": true, "mitarbeiterin": true,
	"werkstudent": true, "praktikant": true, "referent": true,
	"techniker": true, "sachbearbeiter": true, "kaufmann": true, "kauffrau": true,
}

// Vocabulary that marks navigation, footer, and consent artifacts.
var nonJobWords = []string{
	"impressum", "datenschutz", "privacy", "cookie", "agb", "terms",
	"copyright", "all rights reserved", "alle rechte vorbehalten",
	"kontakt", "contact", "über uns", "about", "home", "startseite",
	"login", "register", "anmelden", "registrieren", "newsletter",
	"blog", "presse", "press", "mehr erfahren", "learn more", "read more",
	"weiterlesen", "zurück", "filter", "consent", "storage duration",
	"pixel tracker", "local storage", "tracking",
}

var genderNotationRe = regexp.MustCompile(`\([mwfdx/]+\)|[mwfdx]/[mwfdx](/[mwfdx])?`)

// Score computes the confidence score for a candidate from its source base
// plus signal bonuses and penalties. Pure; clamped to [0, 1].
func Score(c model.JobCandidate) float64 {
	base, ok := sourceBase[c.Source]
	if !ok {
		base = 0.5
	}

	var bonus float64
	s := c.Signals
	if s.GenderNotation {
		bonus += 0.15
	}
	if s.HasURL {
		bonus += 0.10
	}
	if s.HasLocation {
		bonus += 0.05
	}
	if s.TitleKeyword {
		bonus += 0.10
	}
	if s.ProperLength {
		bonus += 0.05
	}
	if s.TooLong {
		bonus -= 0.20
	}
	if s.TooShort {
		bonus -= 0.15
	}
	if s.LooksLikeNav {
		bonus -= 0.30
	}
	if s.NonJobWords {
		bonus -= 0.25
	}

	score := base + bonus
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// AssignSignals fills in the scoring signals for a candidate from its own
// fields. Signals already set by the extractor are preserved.
func AssignSignals(c model.JobCandidate) model.JobCandidate {
	title := strings.TrimSpace(c.Title)
	lower := strings.ToLower(title)

	s := &c.Signals
	s.HasURL = s.HasURL || strings.TrimSpace(c.URL) != ""
	s.HasLocation = s.HasLocation || (c.Location != "" && c.Location != "Unknown")
	s.GenderNotation = s.GenderNotation || genderNotationRe.MatchString(lower)
	s.TooShort = len(title) < 5
	s.TooLong = len(title) > 150
	s.ProperLength = len(title) > 15 && len(title) < 100

	for word := range titleKeywords {
		if strings.Contains(lower, word) {
			s.TitleKeyword = true
			break
		}
	}

	for _, word := range nonJobWords {
		if strings.Contains(lower, word) {
			s.NonJobWords = true
			break
		}
	}

	// Short all-caps or single-word entries with separators smell like menus.
	if !s.TitleKeyword && len(title) < 20 &&
		(strings.Count(title, "|") > 0 || title == strings.ToUpper(title) && strings.Count(title, " ") == 0) {
		s.LooksLikeNav = true
	}

	return c
}
