package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/logiflow/dispatch-backend/config"
	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/pkg/valueobjects"
	"github.com/logiflow/dispatch-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/resend/resend-go/v2"
)

// emailSender is the part of the resend client the notifier uses.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type EmailMetrics struct {
	sendLatency prometheus.Histogram
	errorCount  prometheus.Counter
	sentCount   prometheus.Counter
}

// SettlementNotifier emails drivers when their settlement is confirmed.
type SettlementNotifier struct {
	config  *config.EmailConfig
	sender  emailSender
	metrics *EmailMetrics
}

func NewSettlementNotifier(cfg *config.EmailConfig) *SettlementNotifier {
	return NewSettlementNotifierWithRegistry(cfg, prometheus.DefaultRegisterer)
}

func NewSettlementNotifierWithRegistry(cfg *config.EmailConfig, reg prometheus.Registerer) *SettlementNotifier {
	logger.GetLogger().Infow("Initializing settlement notifier",
		"from", cfg.FromAddress,
		"apiKey", logger.MaskSensitiveString(cfg.ResendAPIKey, 3, 2))
	client := resend.NewClient(cfg.ResendAPIKey)
	metrics := &EmailMetrics{
		sendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_email_send_duration_seconds",
			Help:    "Time taken to send emails",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}),
		errorCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_email_errors_total",
			Help: "Total number of email sending errors",
		}),
		sentCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_emails_sent_total",
			Help: "Total number of emails sent",
		}),
	}

	reg.MustRegister(metrics.sendLatency)
	reg.MustRegister(metrics.errorCount)
	reg.MustRegister(metrics.sentCount)

	return &SettlementNotifier{
		config:  cfg,
		sender:  client.Emails,
		metrics: metrics,
	}
}

type confirmedEmailData struct {
	DriverName      string
	YearMonth       string
	TotalTrips      int
	TotalBaseFare   string
	TotalDeductions string
	TotalAdditions  string
	FinalAmount     string
}

func (n *SettlementNotifier) NotifyConfirmed(ctx context.Context, driver *types.Driver, s *types.Settlement) error {
	startTime := time.Now()
	log := logger.GetLogger()
	defer func() {
		n.metrics.sendLatency.Observe(time.Since(startTime).Seconds())
	}()

	if driver == nil || driver.Email == "" {
		log.Infow("Driver has no email address, skipping confirmation notice", "settlementId", s.ID)
		return nil
	}

	tmpl, err := template.New("settlement_confirmed").Parse(settlementConfirmedTemplate)
	if err != nil {
		n.metrics.errorCount.Inc()
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var html bytes.Buffer
	if err := tmpl.Execute(&html, confirmedEmailData{
		DriverName:      driver.Name,
		YearMonth:       s.YearMonth,
		TotalTrips:      s.TotalTrips,
		TotalBaseFare:   valueobjects.FormatKRW(s.TotalBaseFare),
		TotalDeductions: valueobjects.FormatKRW(s.TotalDeductions),
		TotalAdditions:  valueobjects.FormatKRW(s.TotalAdditions),
		FinalAmount:     valueobjects.FormatKRW(s.FinalAmount),
	}); err != nil {
		n.metrics.errorCount.Inc()
		return fmt.Errorf("failed to execute template: %w", err)
	}

	resp, err := n.sender.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", n.config.FromName, n.config.FromAddress),
		To:      []string{driver.Email},
		Subject: fmt.Sprintf("Settlement for %s confirmed", s.YearMonth),
		Html:    html.String(),
	})
	if err != nil {
		n.metrics.errorCount.Inc()
		log.Errorw("Failed to send settlement email", "settlementId", s.ID, "error", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.metrics.sentCount.Inc()
	log.Infow("Settlement confirmation sent", "settlementId", s.ID, "emailId", resp.Id)
	return nil
}

const settlementConfirmedTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <p>{{.DriverName}},</p>
  <p>Your settlement for <strong>{{.YearMonth}}</strong> has been confirmed.</p>
  <table cellpadding="6">
    <tr><td>Trips</td><td align="right">{{.TotalTrips}}</td></tr>
    <tr><td>Base fare</td><td align="right">{{.TotalBaseFare}}</td></tr>
    <tr><td>Deductions</td><td align="right">{{.TotalDeductions}}</td></tr>
    <tr><td>Additions</td><td align="right">{{.TotalAdditions}}</td></tr>
    <tr><td><strong>Final amount</strong></td><td align="right"><strong>{{.FinalAmount}}</strong></td></tr>
  </table>
</body>
</html>`
