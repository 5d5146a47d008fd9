package extract

import (
	"context"
	"log/slog"

	"github.com/saint-net/open-jobs-searcher/internal/model"
	"github.com/saint-net/open-jobs-searcher/internal/platform"
)

// Result is one page's extraction output: candidates plus the next listing
// page, when the extractor saw one.
type Result struct {
	Jobs        []model.JobCandidate
	NextPageURL string
}

// Fallback is the model-backed extractor invoked when structured and
// platform strategies yield nothing. It never fails: malformed or empty
// model output surfaces as an empty result.
type Fallback interface {
	ExtractWithPagination(ctx context.Context, html, pageURL string) Result
}

// APIFetcher retrieves a platform API response body.
type APIFetcher interface {
	FetchAPI(ctx context.Context, url string) ([]byte, error)
}

// Cascade applies extraction strategies to one page in strict precedence
// order: structured data, then a detected platform parser, then the model
// fallback. Steps never race; precedence stays deterministic.
type Cascade struct {
	structured StructuredData
	registry   *platform.Registry
	fallback   Fallback
	api        APIFetcher
	validator  Validator
	logger     *slog.Logger
}

// NewCascade wires a cascade from its strategies.
func NewCascade(registry *platform.Registry, fallback Fallback, api APIFetcher, validator Validator, logger *slog.Logger) *Cascade {
	return &Cascade{
		registry:  registry,
		fallback:  fallback,
		api:       api,
		validator: validator,
		logger:    logger,
	}
}

// ExtractPage runs the cascade for one fetched page.
func (c *Cascade) ExtractPage(ctx context.Context, page model.Page) Result {
	// 1. Structured data short-circuits on the raw candidate count: a page
	// that embeds JobPosting markup has declared its openings, so even when
	// validation rejects every one of them the answer is "no jobs here",
	// not "ask the next strategy". The scorer is a sanity filter, not a gate.
	if candidates := c.structured.Extract(page.HTML, page.FinalURL); len(candidates) > 0 {
		valid := c.filter(candidates, false)
		c.logger.Debug("structured data extraction",
			"url", page.FinalURL,
			"candidates", len(valid),
			"rejected", len(candidates)-len(valid),
		)
		return Result{Jobs: valid}
	}

	// 2. Platform parser. URL detection on the fetched page wins; a generic
	// company page may still embed or link an external hosted board, and
	// only the board's own URL carries the token the platform API needs.
	tag := c.registry.Detect(page.FinalURL, "")
	boardPage := page
	if tag == platform.Generic {
		if boardURL, boardTag := c.registry.FindBoardURL(page.HTML); boardTag != platform.Generic {
			tag = boardTag
			boardPage.FinalURL = boardURL
			if _, ok := c.registry.APIParser(boardTag); !ok {
				// HTML parsers need the board page itself, not the page
				// embedding it.
				body, err := c.api.FetchAPI(ctx, boardURL)
				if err != nil {
					c.logger.Debug("external board fetch", "platform", boardTag, "url", boardURL, "error", err)
					tag = platform.Generic
				} else {
					boardPage.HTML = string(body)
				}
			}
		}
	}
	if tag != platform.Generic {
		if candidates := c.parsePlatform(ctx, tag, boardPage); len(candidates) > 0 {
			valid := c.filter(candidates, true)
			if len(valid) > 0 {
				c.logger.Debug("platform parser extraction",
					"url", boardPage.FinalURL,
					"platform", tag,
					"candidates", len(valid),
				)
				// Platform boards list everything on one page.
				return Result{Jobs: valid}
			}
		}
	}

	// 3. Model fallback, pagination-aware.
	result := c.fallback.ExtractWithPagination(ctx, page.HTML, page.FinalURL)
	result.Jobs = c.filter(result.Jobs, true)
	c.logger.Debug("model fallback extraction",
		"url", page.FinalURL,
		"candidates", len(result.Jobs),
		"next_page", result.NextPageURL != "",
	)
	return result
}

// parsePlatform dispatches to the platform's API or HTML parser. Failures
// yield zero candidates; detection mismatches are expected and common.
func (c *Cascade) parsePlatform(ctx context.Context, tag string, page model.Page) []model.JobCandidate {
	if apiParser, ok := c.registry.APIParser(tag); ok {
		apiURL, err := apiParser.BuildAPIURL(page.FinalURL)
		if err != nil {
			c.logger.Debug("platform api url", "platform", tag, "error", err)
			return nil
		}
		body, err := c.api.FetchAPI(ctx, apiURL)
		if err != nil {
			c.logger.Debug("platform api fetch", "platform", tag, "error", err)
			return nil
		}
		return apiParser.ParseAPIResponse(body, page.FinalURL)
	}
	return c.registry.Parse(tag, page.HTML, page.FinalURL)
}

// filter applies validation and, when gate is set, the score threshold.
func (c *Cascade) filter(candidates []model.JobCandidate, gate bool) []model.JobCandidate {
	valid := make([]model.JobCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		candidate = AssignSignals(candidate)
		if !c.validator.Valid(candidate) {
			continue
		}
		if gate && Score(candidate) < AcceptThreshold {
			continue
		}
		valid = append(valid, candidate)
	}
	return valid
}
