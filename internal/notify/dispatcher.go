package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"squad-service/internal/metrics"
	"squad-service/internal/models"
)

const defaultConcurrency = 8

// Report summarizes one fan-out.
type Report struct {
	Sent    int
	Skipped int
	Failed  int
}

// Dispatcher fans one logical notification out to independent per-recipient
// sends. A failing recipient is logged and counted, never returned.
type Dispatcher struct {
	push   PushGateway
	sms    SMSGateway
	limit  int
	logger *slog.Logger
}

func NewDispatcher(push PushGateway, sms SMSGateway, concurrency int, logger *slog.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{push: push, sms: sms, limit: concurrency, logger: logger.With("component", "dispatcher")}
}

// Notify sends build(recipient) to every distinct recipient that has a push
// token and has category enabled. Sends started here run to completion even
// if ctx is canceled.
func (d *Dispatcher) Notify(ctx context.Context, workflow string, category models.NotificationCategory, recipients []models.Profile, build func(models.Profile) Message) Report {
	ctx = context.WithoutCancel(ctx)

	var report Report
	seen := make(map[uuid.UUID]struct{}, len(recipients))
	targets := make([]models.Profile, 0, len(recipients))
	for _, p := range recipients {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		if p.PushToken() == "" || !p.NotificationEnabled(category) {
			report.Skipped++
			continue
		}
		targets = append(targets, p)
	}

	failed := make([]bool, len(targets))
	var g errgroup.Group
	g.SetLimit(d.limit)
	for i, p := range targets {
		g.Go(func() error {
			failed[i] = !d.deliver(ctx, workflow, p, build)
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range failed {
		if f {
			report.Failed++
		} else {
			report.Sent++
		}
	}

	metrics.AddNotifications(workflow, metrics.ResultSent, report.Sent)
	metrics.AddNotifications(workflow, metrics.ResultSkipped, report.Skipped)
	metrics.AddNotifications(workflow, metrics.ResultFailed, report.Failed)
	if len(recipients) > 0 {
		d.logger.Info("notifications dispatched",
			"workflow", workflow, "sent", report.Sent, "skipped", report.Skipped, "failed", report.Failed)
	}
	return report
}

func (d *Dispatcher) deliver(ctx context.Context, workflow string, p models.Profile, build func(models.Profile) Message) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification dispatch panicked", "workflow", workflow, "recipient", p.ID, "panic", fmt.Sprint(r))
			ok = false
		}
	}()

	msg := build(p)
	msg.Token = p.PushToken()
	if err := d.push.Send(ctx, msg); err != nil {
		d.logger.Warn("failed to send notification", "workflow", workflow, "recipient", p.ID, "error", err)
		return false
	}
	return true
}

// SendSMS delivers a single text message. Failures are logged and reported
// as false.
func (d *Dispatcher) SendSMS(ctx context.Context, workflow, phone, body string) bool {
	ctx = context.WithoutCancel(ctx)
	if err := d.sms.Send(ctx, phone, body); err != nil {
		d.logger.Warn("failed to send SMS", "workflow", workflow, "error", err)
		metrics.AddNotifications(workflow, metrics.ResultFailed, 1)
		return false
	}
	metrics.AddNotifications(workflow, metrics.ResultSent, 1)
	return true
}
