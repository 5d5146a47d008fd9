// Package syncer reconciles freshly extracted candidates against the
// persisted job set for a site. Reconciliation is a pure key-set diff;
// applying the resulting plan is the store's job.
package syncer

import (
	"fmt"

	"github.com/saint-net/open-jobs-searcher/internal/model"
	"github.com/saint-net/open-jobs-searcher/internal/normalize"
)

// Plan is the outcome of one reconciliation pass, not yet applied.
type Plan struct {
	Add         []model.JobCandidate // no prior record under this key
	Reactivate  []model.PersistedJob // inactive prior record seen again
	Refresh     []model.PersistedJob // active prior record still present
	Remove      []model.PersistedJob // active prior record no longer listed
	IsFirstScan bool                 // site had no records at all
}

// Reconcile diffs candidates against prior records by identity key.
//
// A key present in candidates but not in prior is an add. A key matching an
// inactive prior record is a reactivation: the posting came back, its
// first-seen date stays. An active prior key missing from candidates is a
// removal. Candidates are deduplicated by key; later duplicates are
// discarded.
//
// Two active prior records under one key means the store's invariant broke;
// that is a programming error, not input noise, so it panics.
func Reconcile(prior []model.PersistedJob, candidates []model.JobCandidate) Plan {
	plan := Plan{IsFirstScan: len(prior) == 0}

	active := make(map[string]model.PersistedJob)
	inactive := make(map[string]model.PersistedJob)
	for _, job := range prior {
		key := JobKey(job)
		if job.IsActive {
			if _, dup := active[key]; dup {
				panic(fmt.Sprintf("syncer: two active jobs share key %q (site %d)", key, job.SiteID))
			}
			active[key] = job
		} else {
			// Keep the most recent inactive record per key.
			if existing, ok := inactive[key]; !ok || job.LastSeenAt.After(existing.LastSeenAt) {
				inactive[key] = job
			}
		}
	}

	seen := make(map[string]bool)
	for _, candidate := range candidates {
		key := CandidateKey(candidate)
		if seen[key] {
			continue
		}
		seen[key] = true

		if job, ok := active[key]; ok {
			plan.Refresh = append(plan.Refresh, job)
			continue
		}
		if job, ok := inactive[key]; ok {
			plan.Reactivate = append(plan.Reactivate, job)
			continue
		}
		plan.Add = append(plan.Add, candidate)
	}

	for _, job := range prior {
		if job.IsActive && !seen[JobKey(job)] {
			plan.Remove = append(plan.Remove, job)
		}
	}

	return plan
}

// CandidateKey derives the identity key for an unpersisted candidate.
// Candidate URLs are already absolute and cleaned by the scanner.
func CandidateKey(c model.JobCandidate) string {
	return normalize.Key(c.Title, c.Location, c.URL, "")
}

// JobKey derives the identity key for a persisted record.
func JobKey(j model.PersistedJob) string {
	return normalize.Key(j.Title, j.Location, j.URL, "")
}
