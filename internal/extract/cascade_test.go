package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/saint-net/open-jobs-searcher/internal/model"
	"github.com/saint-net/open-jobs-searcher/internal/platform"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFallback records whether the model fallback was invoked.
type fakeFallback struct {
	called bool
	result Result
}

func (f *fakeFallback) ExtractWithPagination(_ context.Context, _, _ string) Result {
	f.called = true
	return f.result
}

// fakeAPI serves canned platform API responses and records the last URL it
// was asked to fetch.
type fakeAPI struct {
	body []byte
	err  error
	url  string
}

func (f *fakeAPI) FetchAPI(_ context.Context, url string) ([]byte, error) {
	f.url = url
	return f.body, f.err
}

func newTestCascade(fallback Fallback, api APIFetcher) *Cascade {
	return NewCascade(platform.NewRegistry(), fallback, api, NewNonJobValidator(), testLogger())
}

const schemaPage = `<script type="application/ld+json">
{"@type": "JobPosting", "title": "Backend Engineer", "url": "/jobs/1",
 "jobLocation": {"address": {"addressLocality": "Berlin"}}}
</script>`

func TestCascade_StructuredDataShortCircuits(t *testing.T) {
	fallback := &fakeFallback{}
	c := newTestCascade(fallback, &fakeAPI{})

	got := c.ExtractPage(context.Background(), model.Page{
		HTML:     schemaPage,
		FinalURL: "https://example.com/careers",
	})

	if len(got.Jobs) != 1 || got.Jobs[0].Title != "Backend Engineer" {
		t.Fatalf("expected structured result, got %+v", got.Jobs)
	}
	if fallback.called {
		t.Error("model fallback must not run when structured data matched")
	}
}

func TestCascade_StructuredDataShortCircuitsWhenAllRejected(t *testing.T) {
	// A page whose only JobPosting is a speculative-application placeholder
	// has declared "no real openings": the cascade must stop there with an
	// empty result instead of asking later strategies to invent candidates.
	fallback := &fakeFallback{result: Result{Jobs: []model.JobCandidate{
		{Title: "Phantom Engineer", Location: "Berlin", URL: "https://example.com/jobs/x", Source: "llm"},
	}}}
	c := newTestCascade(fallback, &fakeAPI{})

	html := `<script type="application/ld+json">
{"@type": "JobPosting", "title": "Initiativbewerbung", "url": "/jobs/initiativ",
 "jobLocation": {"address": {"addressLocality": "Berlin"}}}
</script>`

	got := c.ExtractPage(context.Background(), model.Page{
		HTML:     html,
		FinalURL: "https://example.com/careers",
	})

	if len(got.Jobs) != 0 {
		t.Fatalf("expected empty result after validation, got %+v", got.Jobs)
	}
	if fallback.called {
		t.Error("model fallback must not run when structured data produced candidates")
	}
}

func TestCascade_PlatformParserBeforeFallback(t *testing.T) {
	fallback := &fakeFallback{}
	api := &fakeAPI{body: []byte(`{"jobs": [{"id": 1, "title": "SRE", "location": {"name": "Berlin"}, "absolute_url": "https://boards.greenhouse.io/acme/jobs/1"}]}`)}
	c := newTestCascade(fallback, api)

	got := c.ExtractPage(context.Background(), model.Page{
		HTML:     "<html><body>rendered board</body></html>",
		FinalURL: "https://boards.greenhouse.io/acme",
	})

	if len(got.Jobs) != 1 || got.Jobs[0].Source != "greenhouse" {
		t.Fatalf("expected greenhouse API result, got %+v", got.Jobs)
	}
	if fallback.called {
		t.Error("model fallback must not run when platform parser yielded candidates")
	}
}

func TestCascade_EmbeddedBoardUsesBoardToken(t *testing.T) {
	// A company career page embedding a Greenhouse board: the API URL must
	// come from the embed's board token, never from the page's own path.
	fallback := &fakeFallback{}
	api := &fakeAPI{body: []byte(`{"jobs": [{"id": 7, "title": "Data Engineer", "location": {"name": "Munich"}, "absolute_url": "https://boards.greenhouse.io/acme/jobs/7"}]}`)}
	c := newTestCascade(fallback, api)

	html := `<html><body><div id="grnhse_app"></div>
<script src="https://boards.greenhouse.io/embed/job_board/js?for=acme"></script></body></html>`

	got := c.ExtractPage(context.Background(), model.Page{
		HTML:     html,
		FinalURL: "https://company.example.com/careers",
	})

	if want := "https://boards-api.greenhouse.io/v1/boards/acme/jobs"; api.url != want {
		t.Fatalf("API URL = %q, want %q", api.url, want)
	}
	if len(got.Jobs) != 1 || got.Jobs[0].Title != "Data Engineer" {
		t.Fatalf("expected board API result, got %+v", got.Jobs)
	}
	if fallback.called {
		t.Error("model fallback must not run when the embedded board parsed")
	}
}

func TestCascade_EmbedMarkerWithoutBoardURLFallsBackToGeneric(t *testing.T) {
	fallback := &fakeFallback{}
	c := newTestCascade(fallback, &fakeAPI{})

	// Marker present but no board URL anywhere in the markup.
	c.ExtractPage(context.Background(), model.Page{
		HTML:     `<html><body><div id="grnhse_app"></div></body></html>`,
		FinalURL: "https://company.example.com/careers",
	})

	if !fallback.called {
		t.Error("without a board URL the page is generic and the fallback should run")
	}
}

func TestCascade_FallbackWhenNothingElseMatches(t *testing.T) {
	fallback := &fakeFallback{result: Result{
		Jobs: []model.JobCandidate{
			{Title: "Platform Engineer (m/w/d)", Location: "Berlin", URL: "https://example.com/jobs/9", Source: "llm"},
		},
		NextPageURL: "https://example.com/careers?page=2",
	}}
	c := newTestCascade(fallback, &fakeAPI{})

	got := c.ExtractPage(context.Background(), model.Page{
		HTML:     "<html><body><a href='/jobs/9'>Platform Engineer (m/w/d)</a></body></html>",
		FinalURL: "https://example.com/careers",
	})

	if !fallback.called {
		t.Fatal("fallback should run for generic pages without structured data")
	}
	if len(got.Jobs) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got.Jobs))
	}
	if got.NextPageURL != "https://example.com/careers?page=2" {
		t.Errorf("pagination url should pass through: %q", got.NextPageURL)
	}
}

func TestCascade_PlatformAPIFailureFallsThrough(t *testing.T) {
	fallback := &fakeFallback{}
	c := newTestCascade(fallback, &fakeAPI{err: errors.New("boom")})

	c.ExtractPage(context.Background(), model.Page{
		HTML:     "<html></html>",
		FinalURL: "https://boards.greenhouse.io/acme",
	})

	if !fallback.called {
		t.Error("API failure should fall through to the model fallback, not abort")
	}
}

func TestCascade_ValidationRemovesNonJobs(t *testing.T) {
	fallback := &fakeFallback{result: Result{Jobs: []model.JobCandidate{
		{Title: "Initiativbewerbung", Source: "llm"},
		{Title: "Backend Engineer (m/w/d)", Location: "Berlin", URL: "https://example.com/jobs/1", Source: "llm"},
	}}}
	c := newTestCascade(fallback, &fakeAPI{})

	got := c.ExtractPage(context.Background(), model.Page{
		HTML:     "<html></html>",
		FinalURL: "https://example.com/careers",
	})

	if len(got.Jobs) != 1 || got.Jobs[0].Title != "Backend Engineer (m/w/d)" {
		t.Errorf("placeholder should be dropped silently, got %+v", got.Jobs)
	}
}
