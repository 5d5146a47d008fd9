package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/saint-net/open-jobs-searcher/internal/cache"
	"github.com/saint-net/open-jobs-searcher/internal/extract"
	"github.com/saint-net/open-jobs-searcher/internal/model"
)

// maxExtractAttempts bounds completions per page. Models sometimes return
// prose or an empty set on a page that clearly lists jobs; one or two
// re-asks usually recover it.
const maxExtractAttempts = 3

// ModelFallbackExtractor extracts jobs from arbitrary career pages with an
// LLM. It sits at the bottom of the extraction cascade: every page reaching
// it defeated both structured data and platform parsers.
type ModelFallbackExtractor struct {
	provider  LLMProvider
	responses *cache.ResponseCache
	logger    *slog.Logger
}

// NewModelFallbackExtractor wires the extractor over a provider and response cache.
func NewModelFallbackExtractor(provider LLMProvider, responses *cache.ResponseCache, logger *slog.Logger) *ModelFallbackExtractor {
	return &ModelFallbackExtractor{
		provider:  provider,
		responses: responses,
		logger:    logger,
	}
}

// extractedJob is one entry of the model's JSON output.
type extractedJob struct {
	Title      string `json:"title"`
	Location   string `json:"location"`
	URL        string `json:"url"`
	Department string `json:"department"`
}

// extractionPayload is the model's full JSON output for one page.
type extractionPayload struct {
	Jobs        []extractedJob `json:"jobs"`
	NextPageURL string         `json:"next_page_url"`
}

func (p extractionPayload) toResult() extract.Result {
	result := extract.Result{NextPageURL: p.NextPageURL}
	for _, job := range p.Jobs {
		if job.Title == "" {
			continue
		}
		location := job.Location
		if location == "" {
			location = "Unknown"
		}
		result.Jobs = append(result.Jobs, model.JobCandidate{
			Title:      job.Title,
			Location:   location,
			URL:        job.URL,
			Department: job.Department,
			Source:     "llm",
		})
	}
	return result
}

// ExtractWithPagination extracts jobs and the next listing page from one
// career page. Failures never propagate: a page the model cannot read
// yields an empty result and the scan moves on.
func (e *ModelFallbackExtractor) ExtractWithPagination(ctx context.Context, rawHTML, pageURL string) extract.Result {
	cleaned := CleanHTML(rawHTML)
	cacheContent := pageURL + "\n" + cleaned

	if data, ok := e.responses.Get(ctx, cache.NSJobs, cacheContent); ok {
		var payload extractionPayload
		if err := json.Unmarshal(data, &payload); err == nil {
			return payload.toResult()
		}
	}

	var promptBuf bytes.Buffer
	if err := extractJobsTemplate.Execute(&promptBuf, struct{ URL, HTML string }{pageURL, cleaned}); err != nil {
		e.logger.Error("render extraction prompt", "error", err)
		return extract.Result{}
	}
	prompt := promptBuf.String()

	for attempt := 1; attempt <= maxExtractAttempts; attempt++ {
		raw, err := e.provider.Complete(ctx, prompt)
		if err != nil {
			e.logger.Warn("model extraction failed",
				"url", pageURL,
				"attempt", attempt,
				"error", err,
			)
			return extract.Result{}
		}

		var payload extractionPayload
		if err := decodeModelJSON(raw, &payload); err != nil || len(payload.Jobs) == 0 {
			e.logger.Debug("model returned no jobs",
				"url", pageURL,
				"attempt", attempt,
			)
			continue
		}

		if data, err := json.Marshal(payload); err == nil {
			e.responses.Set(ctx, cache.NSJobs, cacheContent, data, len(prompt)/4)
		}
		return payload.toResult()
	}

	e.logger.Debug("model extraction exhausted retries", "url", pageURL)
	return extract.Result{}
}
