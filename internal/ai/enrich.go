package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/saint-net/open-jobs-searcher/internal/cache"
)

// maxCompanyHTML caps cleaned main-page HTML in the company-info prompt.
// Main pages need far less context than job listings.
const maxCompanyHTML = 40000

// Enricher runs the cosmetic LLM tasks: title translation and company
// descriptions. Both are best-effort; a failed call degrades the record,
// never the scan.
type Enricher struct {
	provider  LLMProvider
	responses *cache.ResponseCache
	logger    *slog.Logger
}

// NewEnricher wires an enricher over a provider and response cache.
func NewEnricher(provider LLMProvider, responses *cache.ResponseCache, logger *slog.Logger) *Enricher {
	return &Enricher{
		provider:  provider,
		responses: responses,
		logger:    logger,
	}
}

// TranslateTitles translates job titles to English, preserving order.
// On any failure the original titles come back unchanged.
func (e *Enricher) TranslateTitles(ctx context.Context, titles []string) []string {
	if len(titles) == 0 {
		return nil
	}

	content := strings.Join(titles, "\n")
	if data, ok := e.responses.Get(ctx, cache.NSTranslation, content); ok {
		var cached []string
		if err := json.Unmarshal(data, &cached); err == nil && len(cached) == len(titles) {
			return cached
		}
	}

	var promptBuf bytes.Buffer
	if err := translateTitlesTemplate.Execute(&promptBuf, struct{ Titles string }{content}); err != nil {
		e.logger.Error("render translation prompt", "error", err)
		return titles
	}

	raw, err := e.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		e.logger.Warn("title translation failed", "count", len(titles), "error", err)
		return titles
	}

	var translated []string
	if err := decodeModelJSON(raw, &translated); err != nil || len(translated) != len(titles) {
		e.logger.Debug("translation response unusable", "count", len(titles))
		return titles
	}

	if data, err := json.Marshal(translated); err == nil {
		e.responses.Set(ctx, cache.NSTranslation, content, data, len(content)/4)
	}
	return translated
}

// CompanyDescription extracts a short company description from its main
// page. Returns "" when the page does not describe the company.
func (e *Enricher) CompanyDescription(ctx context.Context, rawHTML, pageURL string) (string, error) {
	if data, ok := e.responses.Get(ctx, cache.NSCompanyInfo, pageURL); ok {
		return string(data), nil
	}

	cleaned := CleanHTML(rawHTML)
	if len(cleaned) > maxCompanyHTML {
		cleaned = cleaned[:maxCompanyHTML]
	}

	var promptBuf bytes.Buffer
	if err := companyInfoTemplate.Execute(&promptBuf, struct{ URL, HTML string }{pageURL, cleaned}); err != nil {
		return "", fmt.Errorf("render company info prompt: %w", err)
	}

	raw, err := e.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return "", fmt.Errorf("company info: %w", err)
	}

	description := strings.TrimSpace(raw)
	if description == "" || description == "UNKNOWN" || len(description) < 10 {
		return "", nil
	}

	e.responses.Set(ctx, cache.NSCompanyInfo, pageURL, []byte(description), len(cleaned)/4)
	return description, nil
}
