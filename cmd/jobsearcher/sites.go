package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saint-net/open-jobs-searcher/internal/browse"
	"github.com/saint-net/open-jobs-searcher/internal/normalize"
	"github.com/saint-net/open-jobs-searcher/internal/store"
)

var sitesInteractive bool

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List tracked sites",
	Long:  "Prints a table of tracked sites, or browses their jobs with --interactive.",
	RunE:  runSites,
}

var sitesAddCmd = &cobra.Command{
	Use:   "add <domain> [career-url...]",
	Short: "Track a new site",
	Long:  "Tracks a site. Without career URLs the career page is discovered automatically: career subdomains, the sitemap, home page links, and common paths are tried in order.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSitesAdd,
}

var sitesResetURLCmd = &cobra.Command{
	Use:   "reset-url <url-id>",
	Short: "Reactivate a deactivated career URL",
	Long:  "Clears the failure streak of a career URL that was deactivated after repeated fetch failures.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSitesResetURL,
}

func init() {
	sitesCmd.Flags().BoolVarP(&sitesInteractive, "interactive", "i", false, "browse jobs in a TUI")
	sitesCmd.AddCommand(sitesAddCmd)
	sitesCmd.AddCommand(sitesResetURLCmd)
	rootCmd.AddCommand(sitesCmd)
}

func openRepo() (*store.Repository, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return store.NewRepository(cfg.DatabasePath)
}

func runSites(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx := cmd.Context()
	sites, err := repo.ListSites(ctx)
	if err != nil {
		return err
	}
	if len(sites) == 0 {
		fmt.Println("No tracked sites. Add one with `jobsearcher sites add <domain> <career-url>` or list it in the config.")
		return nil
	}

	if sitesInteractive {
		return browseSites(ctx, repo)
	}

	fmt.Printf("%-30s %-8s %-12s %s\n", "Domain", "Jobs", "URLs", "Last Scanned")
	fmt.Println(strings.Repeat("─", 66))

	for _, s := range sites {
		count, err := repo.ActiveJobCount(ctx, s.ID)
		if err != nil {
			return err
		}
		urls, err := repo.CareerURLs(ctx, s.ID, false)
		if err != nil {
			return err
		}
		active := 0
		for _, u := range urls {
			if u.IsActive {
				active++
			}
		}
		scanned := "never"
		if s.LastScannedAt != nil {
			scanned = s.LastScannedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-30s %-8d %d/%-10d %s\n", s.Domain, count, active, len(urls), scanned)
	}

	fmt.Printf("\nTotal: %d sites\n", len(sites))
	return nil
}

// browseSites loops picker → job browser until the user quits.
func browseSites(ctx context.Context, repo *store.Repository) error {
	for {
		sites, err := repo.ListSites(ctx)
		if err != nil {
			return err
		}
		entries := make([]browse.SiteEntry, 0, len(sites))
		for _, s := range sites {
			count, err := repo.ActiveJobCount(ctx, s.ID)
			if err != nil {
				return err
			}
			entries = append(entries, browse.SiteEntry{Site: s, ActiveJobs: count})
		}

		choice, err := browse.RunSitePicker(entries)
		if err != nil {
			return fmt.Errorf("site picker: %w", err)
		}
		if choice < 0 {
			return nil
		}
		site := entries[choice].Site

		jobs, err := repo.JobsForSite(ctx, site.ID)
		if err != nil {
			return err
		}
		active := jobs[:0:0]
		for _, j := range jobs {
			if j.IsActive {
				active = append(active, j)
			}
		}

		events, err := repo.History(ctx, site.Domain, 50)
		if err != nil {
			return err
		}
		history := make([]browse.HistoryItem, 0, len(events))
		for _, e := range events {
			history = append(history, browse.HistoryItem{
				Event:    e.Event,
				JobTitle: e.JobTitle,
				Location: e.Location,
				When:     e.CreatedAt,
			})
		}

		wantQuit, err := browse.RunBrowser(site, active, history)
		if err != nil {
			return fmt.Errorf("browser: %w", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}

func runSitesAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a, err := buildApp(cmd.Context(), cfg, setupLogger(debug))
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	domain := strings.TrimPrefix(strings.ToLower(args[0]), "www.")
	site, err := a.repo.UpsertSite(ctx, domain, "")
	if err != nil {
		return err
	}

	urls := args[1:]
	if len(urls) == 0 {
		found, err := a.discover.Discover(ctx, "https://"+domain)
		if err != nil {
			return fmt.Errorf("no career url given and discovery found none for %s: %w", domain, err)
		}
		fmt.Printf("discovered career page: %s\n", found)
		urls = []string{found}
	}

	for _, u := range urls {
		clean := normalize.CleanCareerURL(u)
		if !strings.HasPrefix(clean, "http://") && !strings.HasPrefix(clean, "https://") {
			return fmt.Errorf("career url %q must be absolute", u)
		}
		cu, err := a.repo.AddCareerURL(ctx, site.ID, clean, a.registry.Detect(clean, ""))
		if err != nil {
			return err
		}
		fmt.Printf("added career url #%d: %s\n", cu.ID, cu.URL)
	}
	fmt.Printf("tracking %s (site #%d)\n", site.Domain, site.ID)
	return nil
}

func runSitesResetURL(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid url id %q", args[0])
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.ReactivateCareerURL(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("career url #%d reactivated\n", id)
	return nil
}
