package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saint-net/open-jobs-searcher/internal/model"
	"github.com/saint-net/open-jobs-searcher/internal/normalize"
)

// MaxPages bounds how many listing pages one career URL is walked through.
const MaxPages = 3

// Paginator repeats the cascade across successive listing pages, merging and
// deduplicating by identity key. Pages are walked strictly sequentially:
// each fetch depends on the previous page's discovered next-URL.
type Paginator struct {
	cascade *Cascade
	fetcher model.PageFetcher
	logger  *slog.Logger
}

// NewPaginator wires a paginator over the cascade and fetcher.
func NewPaginator(cascade *Cascade, fetcher model.PageFetcher, logger *slog.Logger) *Paginator {
	return &Paginator{cascade: cascade, fetcher: fetcher, logger: logger}
}

// Run walks listing pages from startURL. An error is returned only when the
// first page cannot be fetched (the career URL itself failed); later fetch
// failures stop the walk and return what was collected.
func (p *Paginator) Run(ctx context.Context, startURL string) ([]model.JobCandidate, error) {
	var all []model.JobCandidate
	seen := make(map[string]bool)
	currentURL := startURL

	for pageNum := 1; pageNum <= MaxPages; pageNum++ {
		page, err := p.fetcher.Fetch(ctx, currentURL)
		if err != nil {
			if pageNum == 1 {
				return nil, fmt.Errorf("fetch %s: %w", currentURL, err)
			}
			p.logger.Warn("pagination fetch failed, stopping walk",
				"url", currentURL,
				"page", pageNum,
				"error", err,
			)
			break
		}

		result := p.cascade.ExtractPage(ctx, page)

		// Later pages' duplicates are discarded, never merged.
		fresh := 0
		for _, candidate := range result.Jobs {
			key := normalize.Key(candidate.Title, candidate.Location, candidate.URL, page.FinalURL)
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, candidate)
			fresh++
		}

		if len(result.Jobs) > 0 && fresh == 0 {
			// Every candidate already seen: the site looped back on itself.
			p.logger.Debug("pagination loop detected", "url", currentURL, "page", pageNum)
			break
		}
		if result.NextPageURL == "" {
			break
		}
		if pageNum == MaxPages {
			p.logger.Warn("pagination limit reached, more jobs may exist",
				"next_url", result.NextPageURL,
			)
			break
		}
		currentURL = result.NextPageURL
	}

	return all, nil
}
