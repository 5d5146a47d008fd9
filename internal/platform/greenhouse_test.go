package platform

import "testing"

func TestGreenhouse_BuildAPIURL(t *testing.T) {
	p := NewGreenhouseParser()

	tests := []struct {
		pageURL string
		want    string
	}{
		{"https://boards.greenhouse.io/acme", "https://boards-api.greenhouse.io/v1/boards/acme/jobs"},
		{"https://boards.greenhouse.io/acme/jobs/123", "https://boards-api.greenhouse.io/v1/boards/acme/jobs"},
		{"https://job-boards.greenhouse.io/acme", "https://boards-api.greenhouse.io/v1/boards/acme/jobs"},
	}

	for _, tt := range tests {
		got, err := p.BuildAPIURL(tt.pageURL)
		if err != nil {
			t.Errorf("BuildAPIURL(%q): %v", tt.pageURL, err)
			continue
		}
		if got != tt.want {
			t.Errorf("BuildAPIURL(%q) = %q, want %q", tt.pageURL, got, tt.want)
		}
	}

	if _, err := p.BuildAPIURL("https://boards.greenhouse.io/"); err == nil {
		t.Error("expected error for URL without board token")
	}
}

func TestGreenhouse_ParseAPIResponse(t *testing.T) {
	p := NewGreenhouseParser()

	body := []byte(`{
		"jobs": [
			{"id": 1, "title": "Backend Engineer", "location": {"name": "Berlin"}, "absolute_url": "https://boards.greenhouse.io/acme/jobs/1"},
			{"id": 2, "title": "SRE", "location": {"name": ""}, "absolute_url": "https://boards.greenhouse.io/acme/jobs/2"},
			{"id": 3, "title": "", "location": {"name": "Munich"}, "absolute_url": ""}
		]
	}`)

	got := p.ParseAPIResponse(body, "https://boards.greenhouse.io/acme")
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates (empty title dropped), got %d", len(got))
	}

	if got[0].Title != "Backend Engineer" || got[0].Location != "Berlin" {
		t.Errorf("first candidate: %+v", got[0])
	}
	if got[0].URL != "https://boards.greenhouse.io/acme/jobs/1" {
		t.Errorf("first candidate URL: %q", got[0].URL)
	}
	if got[0].Source != "greenhouse" {
		t.Errorf("source tag: %q", got[0].Source)
	}
	if got[1].Location != "Unknown" {
		t.Errorf("empty location should become Unknown, got %q", got[1].Location)
	}
}

func TestGreenhouse_ParseAPIResponse_Malformed(t *testing.T) {
	p := NewGreenhouseParser()
	if got := p.ParseAPIResponse([]byte("not json"), ""); got != nil {
		t.Errorf("malformed body should yield zero candidates, got %d", len(got))
	}
}
