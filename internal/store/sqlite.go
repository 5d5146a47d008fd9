// Package store persists sites, career URLs, jobs, history, and cached
// model responses in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/saint-net/open-jobs-searcher/internal/cache"
	"github.com/saint-net/open-jobs-searcher/internal/model"
	"github.com/saint-net/open-jobs-searcher/internal/syncer"
)

const schema = `
CREATE TABLE IF NOT EXISTS sites (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	domain          TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	last_scanned_at DATETIME
);

CREATE TABLE IF NOT EXISTS career_urls (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id      INTEGER NOT NULL REFERENCES sites(id),
	url          TEXT NOT NULL,
	platform     TEXT NOT NULL DEFAULT 'generic',
	is_active    INTEGER NOT NULL DEFAULT 1,
	fail_count   INTEGER NOT NULL DEFAULT 0,
	last_fail_at DATETIME,
	UNIQUE(site_id, url)
);

CREATE TABLE IF NOT EXISTS jobs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id       INTEGER NOT NULL REFERENCES sites(id),
	identity_key  TEXT NOT NULL,
	title         TEXT NOT NULL,
	title_en      TEXT NOT NULL DEFAULT '',
	location      TEXT NOT NULL DEFAULT '',
	url           TEXT NOT NULL DEFAULT '',
	department    TEXT NOT NULL DEFAULT '',
	is_active     INTEGER NOT NULL DEFAULT 1,
	first_seen_at DATETIME NOT NULL,
	last_seen_at  DATETIME NOT NULL
);

-- One active record per identity key per site. Reconciliation relies on it.
CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_active_key
	ON jobs(site_id, identity_key) WHERE is_active = 1;

CREATE TABLE IF NOT EXISTS job_history (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id     INTEGER NOT NULL REFERENCES jobs(id),
	event      TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS response_cache (
	key          TEXT PRIMARY KEY,
	value        BLOB NOT NULL,
	tokens_saved INTEGER NOT NULL DEFAULT 0,
	expires_at   DATETIME NOT NULL
);
`

// Repository is the SQLite-backed store. It also implements cache.Store,
// so the default deployment needs no second datastore.
type Repository struct {
	db *sql.DB
}

// NewRepository opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// ErrNotFound marks a lookup that matched nothing.
var ErrNotFound = errors.New("not found")

// --- sites ---

// UpsertSite returns the site for domain, creating it when absent.
func (r *Repository) UpsertSite(ctx context.Context, domain, name string) (model.Site, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sites (domain, name) VALUES (?, ?)
		 ON CONFLICT(domain) DO NOTHING`, domain, name)
	if err != nil {
		return model.Site{}, fmt.Errorf("upserting site %s: %w", domain, err)
	}
	return r.GetSiteByDomain(ctx, domain)
}

// GetSiteByDomain returns the site for domain, or ErrNotFound.
func (r *Repository) GetSiteByDomain(ctx context.Context, domain string) (model.Site, error) {
	var site model.Site
	err := r.db.QueryRowContext(ctx,
		`SELECT id, domain, name, description, last_scanned_at
		 FROM sites WHERE domain = ?`, domain).
		Scan(&site.ID, &site.Domain, &site.Name, &site.Description, &site.LastScannedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Site{}, fmt.Errorf("site %s: %w", domain, ErrNotFound)
	}
	if err != nil {
		return model.Site{}, fmt.Errorf("loading site %s: %w", domain, err)
	}
	return site, nil
}

// ListSites returns all sites ordered by domain.
func (r *Repository) ListSites(ctx context.Context) ([]model.Site, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, domain, name, description, last_scanned_at
		 FROM sites ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("listing sites: %w", err)
	}
	defer rows.Close()

	var sites []model.Site
	for rows.Next() {
		var site model.Site
		if err := rows.Scan(&site.ID, &site.Domain, &site.Name, &site.Description, &site.LastScannedAt); err != nil {
			return nil, fmt.Errorf("scanning site row: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// UpdateSiteDescription stores the model-extracted company blurb.
func (r *Repository) UpdateSiteDescription(ctx context.Context, siteID int64, description string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sites SET description = ? WHERE id = ?`, description, siteID)
	if err != nil {
		return fmt.Errorf("updating description for site %d: %w", siteID, err)
	}
	return nil
}

// TouchSiteScanned records a completed scan.
func (r *Repository) TouchSiteScanned(ctx context.Context, siteID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sites SET last_scanned_at = ? WHERE id = ?`, at.UTC(), siteID)
	if err != nil {
		return fmt.Errorf("touching site %d: %w", siteID, err)
	}
	return nil
}

// --- career urls ---

// AddCareerURL registers a career URL for a site. Re-adding an existing URL
// is a no-op.
func (r *Repository) AddCareerURL(ctx context.Context, siteID int64, url, platform string) (model.CareerURL, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO career_urls (site_id, url, platform) VALUES (?, ?, ?)
		 ON CONFLICT(site_id, url) DO NOTHING`, siteID, url, platform)
	if err != nil {
		return model.CareerURL{}, fmt.Errorf("adding career url %s: %w", url, err)
	}

	var cu model.CareerURL
	err = r.db.QueryRowContext(ctx,
		`SELECT id, site_id, url, platform, is_active, fail_count, last_fail_at
		 FROM career_urls WHERE site_id = ? AND url = ?`, siteID, url).
		Scan(&cu.ID, &cu.SiteID, &cu.URL, &cu.Platform, &cu.IsActive, &cu.FailCount, &cu.LastFailAt)
	if err != nil {
		return model.CareerURL{}, fmt.Errorf("loading career url %s: %w", url, err)
	}
	return cu, nil
}

// CareerURLs returns a site's career URLs, active ones first.
func (r *Repository) CareerURLs(ctx context.Context, siteID int64, activeOnly bool) ([]model.CareerURL, error) {
	query := `SELECT id, site_id, url, platform, is_active, fail_count, last_fail_at
		 FROM career_urls WHERE site_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY is_active DESC, id`

	rows, err := r.db.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("listing career urls for site %d: %w", siteID, err)
	}
	defer rows.Close()

	var urls []model.CareerURL
	for rows.Next() {
		var cu model.CareerURL
		if err := rows.Scan(&cu.ID, &cu.SiteID, &cu.URL, &cu.Platform, &cu.IsActive, &cu.FailCount, &cu.LastFailAt); err != nil {
			return nil, fmt.Errorf("scanning career url row: %w", err)
		}
		urls = append(urls, cu)
	}
	return urls, rows.Err()
}

// IncrementFailCount bumps a URL's consecutive-failure count, deactivating
// it at model.MaxURLFailures. Returns true when the URL was deactivated.
func (r *Repository) IncrementFailCount(ctx context.Context, urlID int64) (bool, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE career_urls
		 SET fail_count = fail_count + 1,
		     last_fail_at = ?,
		     is_active = CASE WHEN fail_count + 1 >= ? THEN 0 ELSE is_active END
		 WHERE id = ?`,
		time.Now().UTC(), model.MaxURLFailures, urlID)
	if err != nil {
		return false, fmt.Errorf("incrementing fail count for url %d: %w", urlID, err)
	}

	var active bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT is_active FROM career_urls WHERE id = ?`, urlID).Scan(&active); err != nil {
		return false, fmt.Errorf("reading url %d state: %w", urlID, err)
	}
	return !active, nil
}

// ResetFailCount clears the failure streak after a successful fetch.
func (r *Repository) ResetFailCount(ctx context.Context, urlID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE career_urls SET fail_count = 0, last_fail_at = NULL WHERE id = ?`, urlID)
	if err != nil {
		return fmt.Errorf("resetting fail count for url %d: %w", urlID, err)
	}
	return nil
}

// ReactivateCareerURL is the manual reset for a deactivated URL.
func (r *Repository) ReactivateCareerURL(ctx context.Context, urlID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE career_urls SET is_active = 1, fail_count = 0, last_fail_at = NULL WHERE id = ?`, urlID)
	if err != nil {
		return fmt.Errorf("reactivating url %d: %w", urlID, err)
	}
	return nil
}

// UpdateCareerURLPlatform records the detected platform tag.
func (r *Repository) UpdateCareerURLPlatform(ctx context.Context, urlID int64, platform string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE career_urls SET platform = ? WHERE id = ?`, platform, urlID)
	if err != nil {
		return fmt.Errorf("updating platform for url %d: %w", urlID, err)
	}
	return nil
}

// --- jobs ---

// JobsForSite returns every job record for a site, active and inactive.
// The reconciler needs both: inactive records are reactivation candidates.
func (r *Repository) JobsForSite(ctx context.Context, siteID int64) ([]model.PersistedJob, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, site_id, title, title_en, location, url, is_active, first_seen_at, last_seen_at
		 FROM jobs WHERE site_id = ? ORDER BY id`, siteID)
	if err != nil {
		return nil, fmt.Errorf("listing jobs for site %d: %w", siteID, err)
	}
	defer rows.Close()

	var jobs []model.PersistedJob
	for rows.Next() {
		var job model.PersistedJob
		if err := rows.Scan(&job.ID, &job.SiteID, &job.Title, &job.TitleEN, &job.Location,
			&job.URL, &job.IsActive, &job.FirstSeenAt, &job.LastSeenAt); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// SyncJobs applies a reconciliation plan in one transaction: inserts adds,
// reactivates returners, refreshes survivors, deactivates removals, and
// appends one history event per lifecycle change.
func (r *Repository) SyncJobs(ctx context.Context, siteID int64, plan syncer.Plan) (model.SyncResult, error) {
	now := time.Now().UTC()
	result := model.SyncResult{IsFirstScan: plan.IsFirstScan}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("beginning sync transaction: %w", err)
	}
	defer tx.Rollback()

	for _, candidate := range plan.Add {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO jobs (site_id, identity_key, title, location, url, department, is_active, first_seen_at, last_seen_at)
			 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			siteID, syncer.CandidateKey(candidate), candidate.Title, candidate.Location,
			candidate.URL, candidate.Department, now, now)
		if err != nil {
			return result, fmt.Errorf("inserting job %q: %w", candidate.Title, err)
		}
		jobID, err := res.LastInsertId()
		if err != nil {
			return result, fmt.Errorf("job id for %q: %w", candidate.Title, err)
		}
		if err := appendHistory(ctx, tx, jobID, model.EventAdded, candidate.Location, now); err != nil {
			return result, err
		}
		result.Added = append(result.Added, model.PersistedJob{
			ID:          jobID,
			SiteID:      siteID,
			Title:       candidate.Title,
			Location:    candidate.Location,
			URL:         candidate.URL,
			IsActive:    true,
			FirstSeenAt: now,
			LastSeenAt:  now,
		})
	}

	for _, job := range plan.Reactivate {
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET is_active = 1, last_seen_at = ? WHERE id = ?`, now, job.ID); err != nil {
			return result, fmt.Errorf("reactivating job %d: %w", job.ID, err)
		}
		if err := appendHistory(ctx, tx, job.ID, model.EventReactivated, job.Location, now); err != nil {
			return result, err
		}
		job.IsActive = true
		job.LastSeenAt = now
		result.Reactivated = append(result.Reactivated, job)
	}

	for _, job := range plan.Refresh {
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET last_seen_at = ? WHERE id = ?`, now, job.ID); err != nil {
			return result, fmt.Errorf("refreshing job %d: %w", job.ID, err)
		}
	}

	for _, job := range plan.Remove {
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET is_active = 0 WHERE id = ?`, job.ID); err != nil {
			return result, fmt.Errorf("deactivating job %d: %w", job.ID, err)
		}
		if err := appendHistory(ctx, tx, job.ID, model.EventRemoved, job.Location, now); err != nil {
			return result, err
		}
		result.Removed = append(result.Removed, job)
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs WHERE site_id = ? AND is_active = 1`, siteID).
		Scan(&result.TotalJobs); err != nil {
		return result, fmt.Errorf("counting active jobs for site %d: %w", siteID, err)
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("committing sync for site %d: %w", siteID, err)
	}
	return result, nil
}

func appendHistory(ctx context.Context, tx *sql.Tx, jobID int64, event, detail string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO job_history (job_id, event, detail, created_at) VALUES (?, ?, ?, ?)`,
		jobID, event, detail, at)
	if err != nil {
		return fmt.Errorf("recording %s event for job %d: %w", event, jobID, err)
	}
	return nil
}

// UpdateJobTranslation stores the English title for a job.
func (r *Repository) UpdateJobTranslation(ctx context.Context, jobID int64, titleEN string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET title_en = ? WHERE id = ?`, titleEN, jobID)
	if err != nil {
		return fmt.Errorf("updating translation for job %d: %w", jobID, err)
	}
	return nil
}

// HistoryEntry is one history event joined with its job and site, for display.
type HistoryEntry struct {
	Event     string
	JobTitle  string
	Location  string
	Domain    string
	CreatedAt time.Time
}

// History returns the most recent lifecycle events, newest first.
// domain filters to one site when non-empty.
func (r *Repository) History(ctx context.Context, domain string, limit int) ([]HistoryEntry, error) {
	query := `SELECT h.event, j.title, j.location, s.domain, h.created_at
		 FROM job_history h
		 JOIN jobs j ON j.id = h.job_id
		 JOIN sites s ON s.id = j.site_id`
	args := []any{}
	if domain != "" {
		query += ` WHERE s.domain = ?`
		args = append(args, domain)
	}
	query += ` ORDER BY h.created_at DESC, h.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Event, &e.JobTitle, &e.Location, &e.Domain, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ActiveJobCount returns the number of active jobs for a site.
func (r *Repository) ActiveJobCount(ctx context.Context, siteID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs WHERE site_id = ? AND is_active = 1`, siteID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting jobs for site %d: %w", siteID, err)
	}
	return count, nil
}

// --- response cache (implements cache.Store) ---

// GetEntry returns the cached entry for key.
func (r *Repository) GetEntry(ctx context.Context, key string) (cache.Entry, bool, error) {
	var e cache.Entry
	err := r.db.QueryRowContext(ctx,
		`SELECT value, tokens_saved, expires_at FROM response_cache WHERE key = ?`, key).
		Scan(&e.Value, &e.TokensSaved, &e.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("reading cache entry: %w", err)
	}
	return e, true, nil
}

// SetEntry writes a cache entry, replacing any previous value.
func (r *Repository) SetEntry(ctx context.Context, key string, e cache.Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO response_cache (key, value, tokens_saved, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value,
		     tokens_saved = excluded.tokens_saved, expires_at = excluded.expires_at`,
		key, e.Value, e.TokensSaved, e.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// DeleteEntry removes a cache entry. Missing keys are not an error.
func (r *Repository) DeleteEntry(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM response_cache WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// CacheStorageStats reports what the persisted cache currently holds.
func (r *Repository) CacheStorageStats(ctx context.Context) (entries int, tokensSaved int64, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(tokens_saved), 0) FROM response_cache`).
		Scan(&entries, &tokensSaved)
	if err != nil {
		return 0, 0, fmt.Errorf("reading cache stats: %w", err)
	}
	return entries, tokensSaved, nil
}

// PurgeExpiredCache drops entries past their expiry.
func (r *Repository) PurgeExpiredCache(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM response_cache WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purging expired cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged entries: %w", err)
	}
	return n, nil
}
