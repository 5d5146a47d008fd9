package extract

import (
	"testing"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

func TestAssignSignals(t *testing.T) {
	c := AssignSignals(model.JobCandidate{
		Title:    "Senior Software Engineer (m/w/d)",
		Location: "Berlin",
		URL:      "https://example.com/jobs/1",
		Source:   "llm",
	})

	s := c.Signals
	if !s.HasURL || !s.HasLocation || !s.GenderNotation || !s.TitleKeyword || !s.ProperLength {
		t.Errorf("positive signals missing: %+v", s)
	}
	if s.TooShort || s.TooLong || s.NonJobWords || s.LooksLikeNav {
		t.Errorf("unexpected negative signals: %+v", s)
	}
}

func TestAssignSignals_Negative(t *testing.T) {
	c := AssignSignals(model.JobCandidate{Title: "Datenschutz", Source: "llm"})
	if !c.Signals.NonJobWords {
		t.Error("privacy-page title should flag NonJobWords")
	}

	c = AssignSignals(model.JobCandidate{Title: "Jobs", Source: "llm"})
	if !c.Signals.TooShort {
		t.Error("4-char title should flag TooShort")
	}
}

func TestScore_GateBehavior(t *testing.T) {
	good := AssignSignals(model.JobCandidate{
		Title:    "Backend Developer (m/w/d)",
		Location: "Berlin",
		URL:      "https://example.com/jobs/1",
		Source:   "llm",
	})
	if got := Score(good); got < AcceptThreshold {
		t.Errorf("plausible posting scored %v, below threshold", got)
	}

	bad := AssignSignals(model.JobCandidate{
		Title:  "AGB",
		Source: "llm",
	})
	if got := Score(bad); got >= AcceptThreshold {
		t.Errorf("footer link scored %v, should be below threshold", got)
	}
}

func TestScore_Clamped(t *testing.T) {
	c := model.JobCandidate{
		Source: SourceSchemaOrg,
		Signals: model.Signals{
			HasURL: true, HasLocation: true, GenderNotation: true,
			TitleKeyword: true, ProperLength: true,
		},
	}
	if got := Score(c); got != 1 {
		t.Errorf("score should clamp at 1, got %v", got)
	}
}
