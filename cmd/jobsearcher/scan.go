package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saint-net/open-jobs-searcher/internal/browse"
	"github.com/saint-net/open-jobs-searcher/internal/model"
)

var scanSite string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan once, print changes, exit",
	Long:  "One-shot scan: walks every tracked site (or one, with --site), commits changes, prints a summary, exits.",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanSite, "site", "", "scan only this site domain")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.seedSites(ctx); err != nil {
		logger.Error("failed to seed sites from config", "error", err)
		os.Exit(1)
	}

	if scanSite != "" {
		return runScanOne(ctx, a, scanSite)
	}

	if err := a.scanner.ScanAll(ctx); err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}
	logger.Info("scan complete")
	return nil
}

// runScanOne scans a single site with an inline spinner and prints the result.
func runScanOne(ctx context.Context, a *app, domain string) error {
	site, err := a.repo.GetSiteByDomain(ctx, domain)
	if err != nil {
		return fmt.Errorf("unknown site %q: %w", domain, err)
	}

	result, err := browse.RunScanLoader(domain, func(ctx context.Context) (model.SyncResult, error) {
		return a.site.ScanSite(ctx, site)
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", domain, err)
	}

	fmt.Printf("%s: %d active jobs", domain, result.TotalJobs)
	if result.IsFirstScan {
		fmt.Print(" (first scan)")
	}
	fmt.Println()
	for _, j := range result.Added {
		fmt.Printf("  + %s — %s\n", j.Title, j.Location)
	}
	for _, j := range result.Reactivated {
		fmt.Printf("  ↻ %s — %s\n", j.Title, j.Location)
	}
	for _, j := range result.Removed {
		fmt.Printf("  - %s — %s\n", j.Title, j.Location)
	}
	if !result.HasChanges() {
		fmt.Println("  no changes")
	}
	return nil
}
