// Package notify dispatches best-effort lead notifications. Failures are
// logged and counted, never surfaced to the request that triggered them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"diagnosis-api/internal/common/logger"
	"diagnosis-api/internal/common/metrics"
	"diagnosis-api/internal/diagnosis"
)

// SlackNotifier posts lead summaries to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     logger.Logger
}

func NewSlackNotifier(webhookURL string, log logger.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log.WithFields(map[string]interface{}{"component": "slack-notifier"}),
	}
}

// Configured reports whether a webhook URL is set.
func (n *SlackNotifier) Configured() bool {
	return n != nil && n.webhookURL != ""
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks,omitempty"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NotifyDiagnosis posts the new-lead message for a successful diagnosis.
func (n *SlackNotifier) NotifyDiagnosis(ctx context.Context, form map[string]interface{}, api diagnosis.EngineResponse) error {
	company := orDash(form["company_name"])
	contact := orDash(form["contact_name"])
	bottleneck := "-"
	if s, ok := api.BottleneckTask.(string); ok && s != "" {
		bottleneck = s
	}
	saved := formatSavedCost(api.MonthlySavedCost)

	msg := slackMessage{
		Text: fmt.Sprintf("【新規診断】%s / %s\nボトルネック: %s\n月間削減効果: %s円", company, contact, bottleneck, saved),
		Blocks: []slackBlock{
			{
				Type: "section",
				Text: &slackText{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*新規診断が届きました*\n• 会社名: %s\n• 担当者: %s\n• ボトルネック業務: %s\n• 月間削減効果: %s円",
						company, contact, bottleneck, saved),
				},
			},
		},
	}

	if err := n.post(ctx, msg); err != nil {
		metrics.NotificationsSent.WithLabelValues("slack", "error").Inc()
		return err
	}
	metrics.NotificationsSent.WithLabelValues("slack", "success").Inc()
	return nil
}

// NotifyTest sends the connectivity probe used by the slack-test endpoint.
func (n *SlackNotifier) NotifyTest(ctx context.Context) error {
	msg := slackMessage{
		Text: "✅ Slack 接続テスト成功（業務効率化診断ツール）",
		Blocks: []slackBlock{
			{
				Type: "section",
				Text: &slackText{
					Type: "mrkdwn",
					Text: "*Slack 接続テスト*\nWebhook は正常に動作しています。",
				},
			},
		},
	}
	return n.post(ctx, msg)
}

func (n *SlackNotifier) post(ctx context.Context, msg slackMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack webhook unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("slack webhook failed (status %d): %s", resp.StatusCode, string(detail))
	}
	return nil
}

func orDash(v interface{}) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return "-"
}

// formatSavedCost renders the engine's saved-cost value with thousands
// separators, or "-" when absent or not a number.
func formatSavedCost(v interface{}) string {
	n, ok := v.(float64)
	if !ok {
		return "-"
	}
	s := strconv.FormatInt(int64(n), 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
