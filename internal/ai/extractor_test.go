package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/saint-net/open-jobs-searcher/internal/cache"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mapStore is an in-memory cache.Store for tests.
type mapStore struct {
	mu      sync.Mutex
	entries map[string]cache.Entry
}

func newMapStore() *mapStore {
	return &mapStore{entries: make(map[string]cache.Entry)}
}

func (s *mapStore) GetEntry(_ context.Context, key string) (cache.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *mapStore) SetEntry(_ context.Context, key string, e cache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = e
	return nil
}

func (s *mapStore) DeleteEntry(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// scriptedProvider returns canned responses in order.
type scriptedProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (p *scriptedProvider) Complete(_ context.Context, _ string) (string, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

func newTestExtractor(provider LLMProvider) (*ModelFallbackExtractor, *cache.ResponseCache) {
	responses := cache.New(newMapStore(), "test-model", testLogger())
	return NewModelFallbackExtractor(provider, responses, testLogger()), responses
}

const listingHTML = `<html><body><a href="/jobs/1">Backend Engineer (m/w/d)</a></body></html>`

const validResponse = `{"jobs": [{"title": "Backend Engineer (m/w/d)", "location": "Berlin", "url": "https://example.com/jobs/1", "department": null}], "next_page_url": null}`

func TestExtractWithPagination_ParsesJobs(t *testing.T) {
	provider := &scriptedProvider{responses: []string{validResponse}}
	extractor, _ := newTestExtractor(provider)

	got := extractor.ExtractWithPagination(context.Background(), listingHTML, "https://example.com/careers")

	if len(got.Jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(got.Jobs))
	}
	job := got.Jobs[0]
	if job.Title != "Backend Engineer (m/w/d)" || job.Location != "Berlin" || job.Source != "llm" {
		t.Errorf("unexpected candidate: %+v", job)
	}
	if got.NextPageURL != "" {
		t.Errorf("null next_page_url should map to empty, got %q", got.NextPageURL)
	}
}

func TestExtractWithPagination_StripsCodeFences(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"Here are the jobs:\n```json\n" + validResponse + "\n```",
	}}
	extractor, _ := newTestExtractor(provider)

	got := extractor.ExtractWithPagination(context.Background(), listingHTML, "https://example.com/careers")
	if len(got.Jobs) != 1 {
		t.Fatalf("fenced JSON must parse, got %d jobs", len(got.Jobs))
	}
}

func TestExtractWithPagination_RetriesOnEmptyThenSucceeds(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"I could not find any jobs on this page.",
		`{"jobs": [], "next_page_url": null}`,
		validResponse,
	}}
	extractor, _ := newTestExtractor(provider)

	got := extractor.ExtractWithPagination(context.Background(), listingHTML, "https://example.com/careers")
	if len(got.Jobs) != 1 {
		t.Fatalf("expected success on third attempt, got %d jobs", len(got.Jobs))
	}
	if provider.calls != 3 {
		t.Errorf("expected 3 completions, got %d", provider.calls)
	}
}

func TestExtractWithPagination_GivesUpAfterMaxAttempts(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"nope", "nope", "nope", "nope"}}
	extractor, _ := newTestExtractor(provider)

	got := extractor.ExtractWithPagination(context.Background(), listingHTML, "https://example.com/careers")
	if len(got.Jobs) != 0 {
		t.Errorf("expected empty result, got %d jobs", len(got.Jobs))
	}
	if provider.calls != maxExtractAttempts {
		t.Errorf("expected %d attempts, got %d", maxExtractAttempts, provider.calls)
	}
}

func TestExtractWithPagination_ProviderErrorYieldsEmpty(t *testing.T) {
	provider := &scriptedProvider{errs: []error{errors.New("connection refused")}}
	extractor, _ := newTestExtractor(provider)

	got := extractor.ExtractWithPagination(context.Background(), listingHTML, "https://example.com/careers")
	if len(got.Jobs) != 0 {
		t.Errorf("provider errors must degrade to empty, got %d jobs", len(got.Jobs))
	}
	if provider.calls != 1 {
		t.Errorf("transport errors are not retried here, got %d calls", provider.calls)
	}
}

func TestExtractWithPagination_SecondCallHitsCache(t *testing.T) {
	provider := &scriptedProvider{responses: []string{validResponse}}
	extractor, responses := newTestExtractor(provider)

	first := extractor.ExtractWithPagination(context.Background(), listingHTML, "https://example.com/careers")
	second := extractor.ExtractWithPagination(context.Background(), listingHTML, "https://example.com/careers")

	if provider.calls != 1 {
		t.Fatalf("second extraction must come from cache, got %d provider calls", provider.calls)
	}
	if len(first.Jobs) != 1 || len(second.Jobs) != 1 {
		t.Errorf("cached result differs: %d vs %d jobs", len(first.Jobs), len(second.Jobs))
	}
	if stats := responses.Stats(); stats.Hits != 1 {
		t.Errorf("expected 1 cache hit, got %d", stats.Hits)
	}
}

func TestExtractWithPagination_PaginationURLSurvives(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"jobs": [{"title": "SRE (m/w/d)", "location": "Munich", "url": "https://example.com/jobs/2"}], "next_page_url": "https://example.com/careers?page=2"}`,
	}}
	extractor, _ := newTestExtractor(provider)

	got := extractor.ExtractWithPagination(context.Background(), listingHTML, "https://example.com/careers")
	if got.NextPageURL != "https://example.com/careers?page=2" {
		t.Errorf("next page url = %q", got.NextPageURL)
	}
}

func TestExtractWithPagination_EmptyTitleAndLocationDefaults(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"jobs": [{"title": "", "url": "https://example.com/x"}, {"title": "Data Engineer", "url": "https://example.com/jobs/3"}], "next_page_url": null}`,
	}}
	extractor, _ := newTestExtractor(provider)

	got := extractor.ExtractWithPagination(context.Background(), listingHTML, "https://example.com/careers")
	if len(got.Jobs) != 1 {
		t.Fatalf("untitled entries must drop, got %d jobs", len(got.Jobs))
	}
	if got.Jobs[0].Location != "Unknown" {
		t.Errorf("missing location should default to Unknown, got %q", got.Jobs[0].Location)
	}
}
