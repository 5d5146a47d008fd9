package model

import (
	"context"
	"time"
)

// Site is a company domain we track jobs for.
type Site struct {
	ID            int64
	Domain        string // "example.com", no scheme, no www
	Name          string // display name, best-effort from domain
	Description   string // short company blurb, model-extracted
	LastScannedAt *time.Time
}

// CareerURL is a URL believed to list jobs for a Site.
type CareerURL struct {
	ID         int64
	SiteID     int64
	URL        string
	Platform   string // detected platform tag, or "generic"
	IsActive   bool
	FailCount  int
	LastFailAt *time.Time
}

// MaxURLFailures is the consecutive-failure count at which a CareerURL
// is deactivated and excluded from future scans.
const MaxURLFailures = 3

// Signals are the named scoring flags assigned to a raw extracted item.
// They are combined by scorer rules, not by a weighted model.
type Signals struct {
	HasURL         bool
	HasLocation    bool
	GenderNotation bool // (m/w/d) style marker, strong positive in DACH locales
	TitleKeyword   bool
	ProperLength   bool
	TooShort       bool
	TooLong        bool
	LooksLikeNav   bool
	NonJobWords    bool
}

// JobCandidate is an unpersisted extraction result pending validation and
// reconciliation. Produced per page, consumed by the sync engine.
type JobCandidate struct {
	Title      string
	Location   string
	URL        string // per-posting link, may be empty
	Department string
	Source     string // extraction source tag: "schema_org", "personio", "llm", ...
	Signals    Signals
}

// PersistedJob is the durable record for a posting.
type PersistedJob struct {
	ID          int64
	SiteID      int64
	Title       string
	TitleEN     string // translated title, may be empty
	Location    string
	URL         string
	IsActive    bool
	FirstSeenAt time.Time
	LastSeenAt  time.Time
}

// History event types. Events are append-only and never mutated.
const (
	EventAdded       = "added"
	EventRemoved     = "removed"
	EventReactivated = "reactivated"
)

// HistoryEvent is one lifecycle transition of a PersistedJob.
type HistoryEvent struct {
	ID        int64
	JobID     int64
	Event     string
	Detail    string
	CreatedAt time.Time
}

// SyncResult summarizes one reconciliation pass for a site.
type SyncResult struct {
	TotalJobs   int
	Added       []PersistedJob
	Removed     []PersistedJob
	Reactivated []PersistedJob
	IsFirstScan bool
}

// HasChanges reports whether the scan produced any lifecycle events.
func (r SyncResult) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Reactivated) > 0
}

// Page is a fetched career page.
type Page struct {
	HTML     string
	FinalURL string // after redirects; may differ from the requested URL
}

// PageFetcher retrieves a career page. Implementations must return
// ErrUnreachable (wrapped) when the host cannot be reached at all, so
// callers can distinguish dead sites from transient failures.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Notifier reports sync results for a site to an external channel.
type Notifier interface {
	Notify(site Site, result SyncResult) error
}
