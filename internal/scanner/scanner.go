// Package scanner owns the full scan pipeline for tracked sites:
// fetch career URLs → extract → reconcile → persist → enrich → notify.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saint-net/open-jobs-searcher/internal/model"
	"github.com/saint-net/open-jobs-searcher/internal/normalize"
	"github.com/saint-net/open-jobs-searcher/internal/platform"
	"github.com/saint-net/open-jobs-searcher/internal/syncer"
)

// Store is the persistence surface the scanner needs. *store.Repository
// implements it.
type Store interface {
	ListSites(ctx context.Context) ([]model.Site, error)
	CareerURLs(ctx context.Context, siteID int64, activeOnly bool) ([]model.CareerURL, error)
	IncrementFailCount(ctx context.Context, urlID int64) (bool, error)
	ResetFailCount(ctx context.Context, urlID int64) error
	UpdateCareerURLPlatform(ctx context.Context, urlID int64, platform string) error
	AddCareerURL(ctx context.Context, siteID int64, url, platform string) (model.CareerURL, error)
	ReactivateCareerURL(ctx context.Context, urlID int64) error
	JobsForSite(ctx context.Context, siteID int64) ([]model.PersistedJob, error)
	SyncJobs(ctx context.Context, siteID int64, plan syncer.Plan) (model.SyncResult, error)
	TouchSiteScanned(ctx context.Context, siteID int64, at time.Time) error
	UpdateJobTranslation(ctx context.Context, jobID int64, titleEN string) error
	UpdateSiteDescription(ctx context.Context, siteID int64, description string) error
}

// Extractor walks one career URL through its listing pages.
// *extract.Paginator implements it.
type Extractor interface {
	Run(ctx context.Context, startURL string) ([]model.JobCandidate, error)
}

// Enricher runs the cosmetic model tasks. *ai.Enricher implements it;
// nil disables enrichment.
type Enricher interface {
	TranslateTitles(ctx context.Context, titles []string) []string
	CompanyDescription(ctx context.Context, html, url string) (string, error)
}

// Discoverer locates a career page for a site whose configured URLs have
// all gone inactive. *discover.Discoverer implements it; nil disables
// rediscovery.
type Discoverer interface {
	Discover(ctx context.Context, baseURL string) (string, error)
}

// SiteScanner scans sites one at a time; Scanner fans it out.
type SiteScanner struct {
	store      Store
	extractor  Extractor
	fetcher    model.PageFetcher
	registry   *platform.Registry
	discoverer Discoverer
	enricher   Enricher
	notifier   model.Notifier
	logger     *slog.Logger
}

// NewSiteScanner creates a scanner wired with all its dependencies.
// discoverer, enricher and notifier may be nil.
func NewSiteScanner(
	store Store,
	extractor Extractor,
	fetcher model.PageFetcher,
	registry *platform.Registry,
	discoverer Discoverer,
	enricher Enricher,
	notifier model.Notifier,
	logger *slog.Logger,
) *SiteScanner {
	return &SiteScanner{
		store:      store,
		extractor:  extractor,
		fetcher:    fetcher,
		registry:   registry,
		discoverer: discoverer,
		enricher:   enricher,
		notifier:   notifier,
		logger:     logger,
	}
}

// ScanSite runs one full scan for a site: every active career URL is walked,
// candidates are merged and deduplicated, and the result is committed in one
// sync. A career URL that fails to fetch raises its failure streak; the other
// URLs still scan.
func (s *SiteScanner) ScanSite(ctx context.Context, site model.Site) (model.SyncResult, error) {
	urls, err := s.store.CareerURLs(ctx, site.ID, true)
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("scanning %s: %w", site.Domain, err)
	}
	if len(urls) == 0 {
		urls = s.rediscover(ctx, site)
		if len(urls) == 0 {
			s.logger.Warn("site has no active career urls", "site", site.Domain)
			return model.SyncResult{}, nil
		}
	}

	var merged []model.JobCandidate
	seen := make(map[string]bool)
	scannedAny := false

	for _, cu := range urls {
		candidates, err := s.extractor.Run(ctx, cu.URL)
		if err != nil {
			if ctx.Err() != nil {
				return model.SyncResult{}, ctx.Err()
			}
			deactivated, ferr := s.store.IncrementFailCount(ctx, cu.ID)
			if ferr != nil {
				return model.SyncResult{}, fmt.Errorf("scanning %s: %w", site.Domain, ferr)
			}
			s.logger.Warn("career url failed",
				"site", site.Domain,
				"url", cu.URL,
				"deactivated", deactivated,
				"error", err,
			)
			continue
		}
		scannedAny = true
		if err := s.store.ResetFailCount(ctx, cu.ID); err != nil {
			return model.SyncResult{}, fmt.Errorf("scanning %s: %w", site.Domain, err)
		}
		s.recordPlatform(ctx, cu)

		// An empty page is a valid result: the site has no openings.
		for _, candidate := range candidates {
			candidate.URL = normalize.CleanJobURL(candidate.URL, cu.URL)
			key := normalize.Key(candidate.Title, candidate.Location, candidate.URL, cu.URL)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, candidate)
		}
	}

	if !scannedAny {
		return model.SyncResult{}, fmt.Errorf("scanning %s: every career url failed", site.Domain)
	}

	prior, err := s.store.JobsForSite(ctx, site.ID)
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("scanning %s: %w", site.Domain, err)
	}
	result, err := s.store.SyncJobs(ctx, site.ID, syncer.Reconcile(prior, merged))
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("scanning %s: %w", site.Domain, err)
	}
	if err := s.store.TouchSiteScanned(ctx, site.ID, time.Now().UTC()); err != nil {
		return model.SyncResult{}, fmt.Errorf("scanning %s: %w", site.Domain, err)
	}

	s.enrich(ctx, site, result)

	if s.notifier != nil && result.HasChanges() {
		if err := s.notifier.Notify(site, result); err != nil {
			s.logger.Warn("notification failed", "site", site.Domain, "error", err)
		}
	}

	s.logger.Info("scanned site",
		"site", site.Domain,
		"candidates", len(merged),
		"total", result.TotalJobs,
		"added", len(result.Added),
		"removed", len(result.Removed),
		"reactivated", len(result.Reactivated),
	)
	return result, nil
}

// rediscover finds a fresh career URL for a site with no active ones:
// either it was added without URLs or every known URL was deactivated after
// repeated failures. A rediscovered URL that matches a deactivated row gets
// that row reactivated instead of duplicated.
func (s *SiteScanner) rediscover(ctx context.Context, site model.Site) []model.CareerURL {
	if s.discoverer == nil {
		return nil
	}

	found, err := s.discoverer.Discover(ctx, "https://"+site.Domain)
	if err != nil {
		s.logger.Warn("career url discovery failed", "site", site.Domain, "error", err)
		return nil
	}

	clean := normalize.CleanCareerURL(found)
	cu, err := s.store.AddCareerURL(ctx, site.ID, clean, s.registry.Detect(clean, ""))
	if err != nil {
		s.logger.Warn("adding discovered career url failed", "site", site.Domain, "url", clean, "error", err)
		return nil
	}
	if !cu.IsActive {
		if err := s.store.ReactivateCareerURL(ctx, cu.ID); err != nil {
			s.logger.Warn("reactivating discovered career url failed", "site", site.Domain, "url", clean, "error", err)
			return nil
		}
		cu.IsActive = true
		cu.FailCount = 0
	}

	s.logger.Info("discovered career url", "site", site.Domain, "url", clean)
	return []model.CareerURL{cu}
}

// recordPlatform keeps the stored platform tag in sync with URL detection.
func (s *SiteScanner) recordPlatform(ctx context.Context, cu model.CareerURL) {
	tag := s.registry.Detect(cu.URL, "")
	if tag == platform.Generic || tag == cu.Platform {
		return
	}
	if err := s.store.UpdateCareerURLPlatform(ctx, cu.ID, tag); err != nil {
		s.logger.Warn("platform tag update failed", "url", cu.URL, "error", err)
	}
}

// enrich runs the best-effort model tasks after a committed sync: English
// titles for new jobs, and a company description on the first pass.
func (s *SiteScanner) enrich(ctx context.Context, site model.Site, result model.SyncResult) {
	if s.enricher == nil {
		return
	}

	if len(result.Added) > 0 {
		titles := make([]string, len(result.Added))
		for i, job := range result.Added {
			titles[i] = job.Title
		}
		translated := s.enricher.TranslateTitles(ctx, titles)
		for i, job := range result.Added {
			if i >= len(translated) || translated[i] == job.Title {
				continue
			}
			if err := s.store.UpdateJobTranslation(ctx, job.ID, translated[i]); err != nil {
				s.logger.Warn("translation update failed", "job", job.ID, "error", err)
			}
		}
	}

	if site.Description == "" {
		s.describeCompany(ctx, site)
	}
}

func (s *SiteScanner) describeCompany(ctx context.Context, site model.Site) {
	page, err := s.fetcher.Fetch(ctx, "https://"+site.Domain)
	if err != nil {
		s.logger.Debug("main page fetch failed", "site", site.Domain, "error", err)
		return
	}
	description, err := s.enricher.CompanyDescription(ctx, page.HTML, page.FinalURL)
	if err != nil || description == "" {
		return
	}
	if err := s.store.UpdateSiteDescription(ctx, site.ID, description); err != nil {
		s.logger.Warn("description update failed", "site", site.Domain, "error", err)
	}
}

// Scanner fans ScanSite out over every tracked site.
type Scanner struct {
	sites       *SiteScanner
	concurrency int
	logger      *slog.Logger
}

// NewScanner creates a multi-site scanner. concurrency bounds how many sites
// scan at once; the domain limiter below still bounds per-host traffic.
func NewScanner(sites *SiteScanner, concurrency int, logger *slog.Logger) *Scanner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scanner{sites: sites, concurrency: concurrency, logger: logger}
}

// ScanAll scans every tracked site. Individual site failures are logged and
// counted, not fatal: one dead site must not stop the sweep.
func (s *Scanner) ScanAll(ctx context.Context) error {
	sites, err := s.sites.store.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("listing sites: %w", err)
	}
	if len(sites) == 0 {
		s.logger.Info("no sites to scan")
		return nil
	}

	var failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	failures := make(chan string, len(sites))
	for _, site := range sites {
		g.Go(func() error {
			if _, err := s.sites.ScanSite(gctx, site); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Error("site scan failed", "site", site.Domain, "error", err)
				failures <- site.Domain
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	close(failures)
	for range failures {
		failed++
	}

	s.logger.Info("scan sweep finished", "sites", len(sites), "failed", failed)
	return nil
}
