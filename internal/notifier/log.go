package notifier

import (
	"log/slog"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes sync changes to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each lifecycle change via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per added, removed, or reactivated job.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(site model.Site, result model.SyncResult) error {
	for _, j := range result.Added {
		n.logger.Info("job added", "site", site.Domain, "title", displayTitle(j), "location", j.Location, "url", j.URL)
	}
	for _, j := range result.Reactivated {
		n.logger.Info("job reactivated", "site", site.Domain, "title", displayTitle(j), "location", j.Location, "url", j.URL)
	}
	for _, j := range result.Removed {
		n.logger.Info("job removed", "site", site.Domain, "title", displayTitle(j), "location", j.Location)
	}
	return nil
}

// displayTitle prefers the translated title when one exists.
func displayTitle(j model.PersistedJob) string {
	if j.TitleEN != "" {
		return j.TitleEN
	}
	return j.Title
}
