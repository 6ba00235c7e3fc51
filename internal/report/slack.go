package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobpipe/internal/model"
)

// Ensure SlackReporter implements model.Reporter.
var _ model.Reporter = (*SlackReporter)(nil)

// SlackReporter posts run summaries to a Slack channel via Incoming Webhooks.
type SlackReporter struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackReporter returns a reporter that posts each run summary to Slack.
func NewSlackReporter(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackReporter {
	return &SlackReporter{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Report sends one Block Kit message per run. A 429 is retried once after
// the Retry-After delay.
func (s *SlackReporter) Report(ctx context.Context, rep model.RunReport) error {
	body, err := json.Marshal(buildPayload(rep))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	status, retryAfter, err := s.post(ctx, body)
	if err != nil {
		return err
	}
	if status == http.StatusTooManyRequests {
		s.logger.Warn("slack rate limited, retrying", "retry_after", retryAfter)
		select {
		case <-ctx.Done():
			return fmt.Errorf("post to slack: %w", ctx.Err())
		case <-time.After(retryAfter):
		}
		status, _, err = s.post(ctx, body)
		if err != nil {
			return fmt.Errorf("retry: %w", err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", status)
		}
		s.logger.Info("slack report sent", "run_id", rep.RunID, "retried", true)
		return nil
	}
	if status != http.StatusOK {
		return fmt.Errorf("slack returned %d", status)
	}
	s.logger.Info("slack report sent", "run_id", rep.RunID)
	return nil
}

func (s *SlackReporter) post(ctx context.Context, body []byte) (int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	if secs <= 0 {
		secs = 1
	}
	return resp.StatusCode, time.Duration(secs) * time.Second, nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a sample run summary to verify the integration works.
func SendTestMessage(ctx context.Context, r model.Reporter) error {
	return r.Report(ctx, model.RunReport{
		RunID:     "test-run",
		StartedAt: time.Now(),
		Ingested:  3,
		Canonical: 2,
		Rejected:  1,
		Stored:    2,
		Reasons:   map[model.RejectReason]int{model.ReasonMissingCompany: 1},
		Sources: []model.SourceQuality{
			{Platform: "test", Jobs: 2, DescRate: 100, SalaryRate: 50, AverageScore: 75},
		},
	})
}

func buildPayload(rep model.RunReport) slackPayload {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "Pipeline run " + rep.RunID},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Ingested:*\n%d", rep.Ingested)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Canonical:*\n%d", rep.Canonical)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Rejected:*\n%d", rep.Rejected)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Duplicates:*\n%d", rep.Duplicates)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Failures:*\n%d", rep.Failures)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Stored:*\n%d", rep.Stored)},
			},
		},
	}

	if len(rep.Reasons) > 0 {
		lines := make([]string, 0, len(rep.Reasons))
		for _, reason := range sortedReasons(rep.Reasons) {
			lines = append(lines, fmt.Sprintf("• `%s`: %d", reason, rep.Reasons[reason]))
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Rejections*\n" + strings.Join(lines, "\n")},
		})
	}

	if len(rep.Sources) > 0 {
		lines := make([]string, 0, len(rep.Sources))
		for _, q := range rep.Sources {
			lines = append(lines, fmt.Sprintf("• *%s*: %d jobs, desc %.0f%%, salary %.0f%%, score %.1f",
				q.Platform, q.Jobs, q.DescRate, q.SalaryRate, q.AverageScore))
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Source quality*\n" + strings.Join(lines, "\n")},
		})
	}

	blocks = append(blocks, slackBlock{Type: "divider"})
	return slackPayload{Blocks: blocks}
}
