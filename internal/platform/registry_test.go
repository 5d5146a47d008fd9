package platform

import "testing"

func TestDetect_URLPatterns(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		url  string
		want string
	}{
		{"https://boards.greenhouse.io/acme", "greenhouse"},
		{"https://job-boards.greenhouse.io/acme/jobs/123", "greenhouse"},
		{"https://jobs.lever.co/acme", "lever"},
		{"https://jobs.eu.lever.co/acme", "lever"},
		{"https://acme.jobs.personio.de/", "personio"},
		{"https://acme.jobs.personio.com/job/42", "personio"},
		{"https://apply.workable.com/acme/", "workable"},
		{"https://acme.recruitee.com/", "recruitee"},
		{"https://jobs.smartrecruiters.com/acme", "smartrecruiters"},
		{"https://acme.ashbyhq.com/", "ashby"},
		{"https://example.com/careers", Generic},
		{"https://example.com/jobs", Generic},
	}

	for _, tt := range tests {
		if got := r.Detect(tt.url, ""); got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestDetect_ContentSignatures(t *testing.T) {
	r := NewRegistry()

	html := `<html><body><div id="grnhse_app"></div></body></html>`
	if got := r.Detect("https://example.com/careers", html); got != "greenhouse" {
		t.Errorf("embedded greenhouse board: got %q", got)
	}

	// URL detection wins over content markers.
	if got := r.Detect("https://jobs.lever.co/acme", html); got != "lever" {
		t.Errorf("url should take precedence: got %q", got)
	}
}

func TestParse_UnknownPlatformYieldsNothing(t *testing.T) {
	r := NewRegistry()
	if got := r.Parse("nonexistent", "<html></html>", "https://example.com"); len(got) != 0 {
		t.Errorf("expected zero candidates, got %d", len(got))
	}
}

func TestAPIParser_Lookup(t *testing.T) {
	r := NewRegistry()

	for _, platform := range []string{"greenhouse", "lever", "recruitee"} {
		if _, ok := r.APIParser(platform); !ok {
			t.Errorf("%s should expose an API parser", platform)
		}
	}
	if _, ok := r.APIParser("personio"); ok {
		t.Error("personio is HTML-parsed, not API-based")
	}
}
