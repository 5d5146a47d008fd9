package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockFetcher calls a function on each invocation, tracking call count.
type mockFetcher struct {
	calls int
	fn    func(attempt int) (model.Page, error)
}

func (m *mockFetcher) Fetch(_ context.Context, _ string) (model.Page, error) {
	m.calls++
	return m.fn(m.calls)
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	page := model.Page{HTML: "<html></html>", FinalURL: "https://example.com/careers"}
	mock := &mockFetcher{fn: func(_ int) (model.Page, error) {
		return page, nil
	}}

	rf := NewFetcher(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rf.Fetch(context.Background(), "https://example.com/careers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FinalURL != page.FinalURL {
		t.Fatalf("unexpected page: %+v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	page := model.Page{HTML: "ok"}
	mock := &mockFetcher{fn: func(attempt int) (model.Page, error) {
		if attempt == 1 {
			return model.Page{}, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return page, nil
	}}

	rf := NewFetcher(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rf.Fetch(context.Background(), "https://example.com/careers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.HTML != "ok" {
		t.Fatalf("unexpected page: %+v", got)
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn404(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) (model.Page, error) {
		return model.Page{}, &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}
	}}

	rf := NewFetcher(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rf.Fetch(context.Background(), "https://example.com/gone")
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 1 {
		t.Fatalf("4xx must not retry, got %d calls", mock.calls)
	}
}

func TestRetry_ExhaustsRetriesAndReturnsLastError(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) (model.Page, error) {
		return model.Page{}, &model.HTTPError{StatusCode: 500, Err: errors.New("boom")}
	}}

	rf := NewFetcher(mock, 2, time.Millisecond, discardLogger())
	_, err := rf.Fetch(context.Background(), "https://example.com/careers")

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 500 {
		t.Fatalf("expected the last HTTPError, got %v", err)
	}
	if mock.calls != 3 {
		t.Fatalf("expected initial + 2 retries, got %d calls", mock.calls)
	}
}

func TestRetry_HonorsRetryAfter(t *testing.T) {
	mock := &mockFetcher{fn: func(attempt int) (model.Page, error) {
		if attempt == 1 {
			return model.Page{}, &model.HTTPError{
				StatusCode: 429,
				RetryAfter: 20 * time.Millisecond,
				Err:        errors.New("rate limited"),
			}
		}
		return model.Page{HTML: "ok"}, nil
	}}

	rf := NewFetcher(mock, 2, time.Hour, discardLogger())
	start := time.Now()
	_, err := rf.Fetch(context.Background(), "https://example.com/careers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Retry-After overrides the (here absurd) base delay.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Retry-After not honored, waited %v", elapsed)
	}
}

func TestRetry_ContextCancelStopsWaiting(t *testing.T) {
	mock := &mockFetcher{fn: func(_ int) (model.Page, error) {
		return model.Page{}, &model.HTTPError{StatusCode: 503, Err: errors.New("down")}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	rf := NewFetcher(mock, 2, time.Hour, discardLogger())

	done := make(chan error, 1)
	go func() {
		_, err := rf.Fetch(ctx, "https://example.com/careers")
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("fetch did not return after cancellation")
	}
}
