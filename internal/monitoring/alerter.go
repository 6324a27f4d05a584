// Package monitoring evaluates finished runs against alert thresholds and
// delivers breaches to a webhook.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/model"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertDocumentFailureRate AlertType = "document_failure_rate"
	AlertLowConfidence       AlertType = "low_confidence"
	AlertCostOverrun         AlertType = "cost_overrun"
)

// minDocuments is the smallest run the failure-rate check applies to.
const minDocuments = 5

// Alert is a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	RunID     string         `json:"run_id"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// RunSnapshot is what a finished run is judged on.
type RunSnapshot struct {
	RunID   string
	Summary model.RunSummary
	CostUSD float64
}

// Alerter evaluates a RunSnapshot against configured thresholds and sends
// alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap RunSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()
	s := snap.Summary

	if s.Documents >= minDocuments && a.cfg.FailureRateThreshold > 0 {
		rate := float64(s.Failed) / float64(s.Documents)
		if rate > a.cfg.FailureRateThreshold {
			alerts = append(alerts, Alert{
				Type:     AlertDocumentFailureRate,
				Severity: "high",
				RunID:    snap.RunID,
				Message: fmt.Sprintf(
					"Document failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d documents)",
					rate*100, a.cfg.FailureRateThreshold*100, s.Failed, s.Documents,
				),
				Details: map[string]any{
					"failure_rate": rate,
					"threshold":    a.cfg.FailureRateThreshold,
					"failed":       s.Failed,
					"documents":    s.Documents,
				},
				Timestamp: now,
			})
		}
	}

	if a.cfg.MinConfidence > 0 && s.OverallConfidence != nil && *s.OverallConfidence < a.cfg.MinConfidence {
		alerts = append(alerts, Alert{
			Type:     AlertLowConfidence,
			Severity: "medium",
			RunID:    snap.RunID,
			Message: fmt.Sprintf(
				"Overall confidence %.2f is below %.2f",
				*s.OverallConfidence, a.cfg.MinConfidence,
			),
			Details: map[string]any{
				"overall_confidence": *s.OverallConfidence,
				"min_confidence":     a.cfg.MinConfidence,
				"unresolved":         s.Unresolved,
			},
			Timestamp: now,
		})
	}

	if a.cfg.CostThresholdUSD > 0 && snap.CostUSD > a.cfg.CostThresholdUSD {
		alerts = append(alerts, Alert{
			Type:     AlertCostOverrun,
			Severity: "high",
			RunID:    snap.RunID,
			Message: fmt.Sprintf(
				"Model cost $%.2f exceeds threshold $%.2f",
				snap.CostUSD, a.cfg.CostThresholdUSD,
			),
			Details: map[string]any{
				"cost_usd":      snap.CostUSD,
				"threshold_usd": a.cfg.CostThresholdUSD,
				"documents":     s.Documents,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.String("run_id", alert.RunID),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// Check evaluates snap, logs every breach and delivers it when a webhook is
// configured.
func (a *Alerter) Check(ctx context.Context, snap RunSnapshot) []Alert {
	alerts := a.Evaluate(snap)
	for _, al := range alerts {
		zap.L().Warn("monitoring: threshold breached",
			zap.String("type", string(al.Type)),
			zap.String("run_id", al.RunID),
			zap.String("message", al.Message),
		)
	}
	a.SendAlerts(ctx, alerts)
	return alerts
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
