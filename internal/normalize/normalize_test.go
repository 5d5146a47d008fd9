package normalize

import "testing"

func TestTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Software Engineer (m/w/d)", "software engineer"},
		{"Software Engineer m/w/d", "software engineer"},
		{"  Senior   Developer  ", "senior developer"},
		{"Backend Developer Job Advert", "backend developer"},
		{"Projektleiter (m/w/d) Stellenanzeige", "projektleiter"},
		{"Accountant Vacancy", "accountant"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Title(tt.in); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLocation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Berlin, Germany", "berlin"},
		{"Berlin, Deutschland", "berlin"},
		{"Berlin", "berlin"},
		{"Remote, United States", "remote"},
		{"Zürich, Schweiz", "zürich"},
		{"London UK", "london"},
	}

	for _, tt := range tests {
		if got := Location(tt.in); got != tt.want {
			t.Errorf("Location(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKey_URLTakesPrecedence(t *testing.T) {
	base := "https://example.com/careers"

	k1 := Key("Engineer (m/w/d)", "Berlin", "https://example.com/jobs/1", base)
	k2 := Key("Totally Different Title", "Munich", "https://example.com/jobs/1", base)
	if k1 != k2 {
		t.Errorf("same URL should yield same key: %q vs %q", k1, k2)
	}
}

func TestKey_FallsBackToTitleLocation(t *testing.T) {
	base := "https://example.com/careers"

	k1 := Key("Engineer (m/w/d)", "Berlin, Germany", "", base)
	k2 := Key("Engineer", "Berlin", "", base)
	if k1 != k2 {
		t.Errorf("normalized title+location should match: %q vs %q", k1, k2)
	}

	k3 := Key("Engineer", "Munich", "", base)
	if k1 == k3 {
		t.Error("different locations must produce different keys")
	}
}

func TestCleanJobURL_SelfReferences(t *testing.T) {
	base := "https://example.com/careers"

	for _, u := range []string{
		"", "None", "null", "#",
		"https://example.com/careers",
		"https://example.com/careers/",
		"https://example.com/careers#",
	} {
		if got := CleanJobURL(u, base); got != "" {
			t.Errorf("CleanJobURL(%q) = %q, want empty", u, got)
		}
	}

	if got := CleanJobURL("https://example.com/careers/123", base); got == "" {
		t.Error("real posting URL should be kept")
	}
}

func TestCleanCareerURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/careers", "https://example.com/careers"},
		{"https://example.com/careers/", "https://example.com/careers"},
		{"https://example.com/careers?utm_source=li&ref=x", "https://example.com/careers"},
		{"https://example.com/careers#openings", "https://example.com/careers"},
		{"  https://example.com/jobs/?page=2  ", "https://example.com/jobs"},
	}
	for _, tt := range tests {
		if got := CleanCareerURL(tt.in); got != tt.want {
			t.Errorf("CleanCareerURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
