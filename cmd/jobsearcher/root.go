package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/saint-net/open-jobs-searcher/internal/ai"
	"github.com/saint-net/open-jobs-searcher/internal/cache"
	"github.com/saint-net/open-jobs-searcher/internal/config"
	"github.com/saint-net/open-jobs-searcher/internal/discover"
	"github.com/saint-net/open-jobs-searcher/internal/extract"
	"github.com/saint-net/open-jobs-searcher/internal/fetch"
	"github.com/saint-net/open-jobs-searcher/internal/model"
	"github.com/saint-net/open-jobs-searcher/internal/normalize"
	"github.com/saint-net/open-jobs-searcher/internal/notifier"
	"github.com/saint-net/open-jobs-searcher/internal/platform"
	"github.com/saint-net/open-jobs-searcher/internal/ratelimit"
	"github.com/saint-net/open-jobs-searcher/internal/retry"
	"github.com/saint-net/open-jobs-searcher/internal/scanner"
	"github.com/saint-net/open-jobs-searcher/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobsearcher",
	Short: "Job searcher — track postings across company career pages",
	Long:  "jobsearcher scans company career pages, extracts job postings, and keeps a deduplicated change-tracked record.",
	// Default to `start` so that `jobsearcher` with no args runs the daemon.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSEARCHER_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSEARCHER_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSEARCHER_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// app holds the wired pipeline shared by scan, start, and sites commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	repo     *store.Repository
	registry *platform.Registry
	discover *discover.Discoverer
	site     *scanner.SiteScanner
	scanner  *scanner.Scanner
}

func (a *app) Close() error {
	return a.repo.Close()
}

// buildApp wires the full pipeline from config. Callers must Close it.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	repo, err := store.NewRepository(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	var cacheStore cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		rs, err := cache.NewRedisStore(ctx, cfg.Cache.RedisURL)
		if err != nil {
			repo.Close()
			return nil, err
		}
		cacheStore = rs
		logger.Info("using redis response cache")
	case "off":
		cacheStore = store.NewNopCacheStore()
	default:
		cacheStore = repo
	}
	responses := cache.New(cacheStore, cfg.AI.Model, logger)

	limiter := ratelimit.NewDomainLimiter(cfg.RateLimit.BaseDelay, cfg.RateLimit.MaxConcurrent)
	httpClient := &http.Client{Timeout: 30 * time.Second}
	fetchClient := fetch.NewClient(httpClient, limiter, logger)
	pageFetcher := retry.NewFetcher(fetchClient, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)

	registry := platform.NewRegistry()

	var fallback extract.Fallback = ai.NewNopFallback()
	var enricher scanner.Enricher
	if cfg.AI.Enabled {
		provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, &http.Client{Timeout: cfg.AI.Timeout})
		fallback = ai.NewModelFallbackExtractor(provider, responses, logger)
		enricher = ai.NewEnricher(provider, responses, logger)
		logger.Info("model fallback enabled", "model", cfg.AI.Model)
	}

	cascade := extract.NewCascade(registry, fallback, fetchClient, extract.NewNonJobValidator(), logger)
	paginator := extract.NewPaginator(cascade, pageFetcher, logger)

	n := setupNotifier(cfg, httpClient, logger)

	discoverer := discover.New(pageFetcher, responses, logger)
	siteScanner := scanner.NewSiteScanner(repo, paginator, pageFetcher, registry, discoverer, enricher, n, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		repo:     repo,
		registry: registry,
		discover: discoverer,
		site:     siteScanner,
		scanner:  scanner.NewScanner(siteScanner, cfg.Scan.Concurrency, logger),
	}, nil
}

// seedSites upserts the configured sites and their career URLs, so scans
// pick up config changes without a separate import step.
func (a *app) seedSites(ctx context.Context) error {
	for _, sc := range a.cfg.Sites {
		site, err := a.repo.UpsertSite(ctx, sc.Domain, sc.Name)
		if err != nil {
			return err
		}
		for _, u := range sc.CareerURLs {
			clean := normalize.CleanCareerURL(u)
			tag := a.registry.Detect(clean, "")
			if _, err := a.repo.AddCareerURL(ctx, site.ID, clean, tag); err != nil {
				return err
			}
		}
	}
	return nil
}
