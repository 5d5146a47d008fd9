package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/saint-net/open-jobs-searcher/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier sends sync summaries to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts a per-site digest to Slack.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify sends one digest message per sync that produced changes. A 429
// from Slack is retried once after the advertised Retry-After delay.
func (s *SlackNotifier) Notify(site model.Site, result model.SyncResult) error {
	if !result.HasChanges() {
		return nil
	}

	payload := buildPayload(site, result)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		s.logger.Info("slack digest sent", "site", site.Domain, "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	s.logger.Info("slack digest sent", "site", site.Domain)
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

// SendTestMessage sends a dummy sync result to verify the integration works.
func SendTestMessage(n model.Notifier) error {
	now := time.Now()
	site := model.Site{Domain: "example.com", Name: "Example"}
	result := model.SyncResult{
		TotalJobs: 1,
		Added: []model.PersistedJob{{
			Title:       "Test Notification — Integration Verified",
			Location:    "Everywhere",
			URL:         "https://example.com/careers",
			FirstSeenAt: now,
			LastSeenAt:  now,
		}},
	}
	return n.Notify(site, result)
}

func siteName(site model.Site) string {
	if site.Name != "" {
		return site.Name
	}
	return site.Domain
}

func buildPayload(site model.Site, result model.SyncResult) slackPayload {
	header := fmt.Sprintf("💼 %s: %d new", siteName(site), len(result.Added))
	if result.IsFirstScan {
		header = fmt.Sprintf("💼 %s: first scan, %d jobs", siteName(site), len(result.Added))
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: header},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Active jobs:*\n" + strconv.Itoa(result.TotalJobs)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Changes:*\n+%d / -%d / ↻%d",
					len(result.Added), len(result.Removed), len(result.Reactivated))},
			},
		},
	}

	if lines := jobLines(result.Added, 10); lines != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*New postings:*\n" + lines},
		})
	}
	if lines := removedLines(result.Removed, 5); lines != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Closed postings:*\n" + lines},
		})
	}

	blocks = append(blocks, slackBlock{Type: "divider"})
	return slackPayload{Blocks: blocks}
}

func jobLines(jobs []model.PersistedJob, limit int) string {
	var lines []string
	for i, j := range jobs {
		if i == limit {
			lines = append(lines, fmt.Sprintf("… and %d more", len(jobs)-limit))
			break
		}
		title := displayTitle(j)
		if j.URL != "" {
			lines = append(lines, fmt.Sprintf("• <%s|%s> — %s", j.URL, title, j.Location))
		} else {
			lines = append(lines, fmt.Sprintf("• %s — %s", title, j.Location))
		}
	}
	return strings.Join(lines, "\n")
}

func removedLines(jobs []model.PersistedJob, limit int) string {
	var lines []string
	for i, j := range jobs {
		if i == limit {
			lines = append(lines, fmt.Sprintf("… and %d more", len(jobs)-limit))
			break
		}
		lines = append(lines, fmt.Sprintf("• ~%s~ — %s", displayTitle(j), j.Location))
	}
	return strings.Join(lines, "\n")
}
