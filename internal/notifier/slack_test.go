package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSite() model.Site {
	return model.Site{ID: 1, Domain: "acme.example", Name: "Acme"}
}

func sampleJob(title, location string) model.PersistedJob {
	return model.PersistedJob{
		ID:          123,
		SiteID:      1,
		Title:       title,
		Location:    location,
		URL:         "https://acme.example/jobs/123",
		IsActive:    true,
		FirstSeenAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		LastSeenAt:  time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestSlackNotifier_NoChanges(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())

	result := model.SyncResult{TotalJobs: 12}
	if err := n.Notify(sampleSite(), result); err != nil {
		t.Errorf("Notify() = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls for unchanged result, got %d", c)
	}
}

func TestSlackNotifier_Digest(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())

	result := model.SyncResult{
		TotalJobs: 5,
		Added:     []model.PersistedJob{sampleJob("Backend Engineer", "Berlin")},
		Removed:   []model.PersistedJob{sampleJob("Sales Lead", "Munich")},
	}
	if err := n.Notify(sampleSite(), result); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	header := payload.Blocks[0]
	if header.Text.Text != "💼 Acme: 1 new" {
		t.Errorf("header text = %q, want site name with new count", header.Text.Text)
	}

	changes := payload.Blocks[1].Fields[1]
	if !strings.Contains(changes.Text, "+1 / -1 / ↻0") {
		t.Errorf("changes field = %q, want +1 / -1 / ↻0", changes.Text)
	}

	var sawAdded, sawRemoved bool
	for _, b := range payload.Blocks {
		if b.Text == nil {
			continue
		}
		if strings.Contains(b.Text.Text, "Backend Engineer") && strings.Contains(b.Text.Text, "Berlin") {
			sawAdded = true
		}
		if strings.Contains(b.Text.Text, "~Sales Lead~") {
			sawRemoved = true
		}
	}
	if !sawAdded {
		t.Error("digest missing added posting line")
	}
	if !sawRemoved {
		t.Error("digest missing struck-through removed posting line")
	}
}

func TestSlackNotifier_TranslatedTitlePreferred(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())

	job := sampleJob("Softwareentwickler (m/w/d)", "Berlin")
	job.TitleEN = "Software Developer"
	result := model.SyncResult{TotalJobs: 1, Added: []model.PersistedJob{job}}
	if err := n.Notify(sampleSite(), result); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	if !strings.Contains(string(body), "Software Developer") {
		t.Error("digest should use the translated title")
	}
	if strings.Contains(string(body), "Softwareentwickler") {
		t.Error("digest should not fall back to the original title when a translation exists")
	}
}

func TestSlackNotifier_FirstScanHeader(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())

	result := model.SyncResult{
		TotalJobs:   2,
		Added:       []model.PersistedJob{sampleJob("A", "Berlin"), sampleJob("B", "Berlin")},
		IsFirstScan: true,
	}
	if err := n.Notify(sampleSite(), result); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}
	if !strings.Contains(string(body), "first scan, 2 jobs") {
		t.Errorf("header should flag the first scan, body = %s", body)
	}
}

func TestSlackNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())

	result := model.SyncResult{Added: []model.PersistedJob{sampleJob("X", "Berlin")}}
	if err := n.Notify(sampleSite(), result); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestSlackNotifier_RateLimitedRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())

	result := model.SyncResult{Added: []model.PersistedJob{sampleJob("X", "Berlin")}}
	if err := n.Notify(sampleSite(), result); err != nil {
		t.Fatalf("Notify() = %v, want nil after retry", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls, got %d", c)
	}
}

func TestSendTestMessage(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := SendTestMessage(n); err != nil {
		t.Fatalf("SendTestMessage() = %v, want nil", err)
	}
	if !strings.Contains(string(body), "Integration Verified") {
		t.Error("test message payload missing marker text")
	}
}
