package sync

import (
	"context"
	"fmt"
	"io"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/artwin/feedback-hub/internal/feedback"
	"github.com/artwin/feedback-hub/internal/metrics"
	"github.com/artwin/feedback-hub/internal/notify"
	"github.com/artwin/feedback-hub/internal/sheets"
	"github.com/artwin/feedback-hub/pkg/logger"
)

// Store is the slice of the local collection store the orchestrator
// drives. *sqlite.Client satisfies it.
type Store interface {
	GetByDepartment(dept feedback.Department) ([]feedback.Item, error)
	Append(item feedback.Item) error
	UpdateStatus(dept feedback.Department, id string, status feedback.Status) error
	AppendComment(dept feedback.Department, id string, comment feedback.Comment) error
	SetAnalysis(dept feedback.Department, id string, analysis feedback.Analysis) error
	ReplaceAll(dept feedback.Department, items []feedback.Item) error
	All() ([]feedback.Item, error)
	GetSheetConfig(dept feedback.Department) (sheets.Config, bool, error)
	GetTelegramConfig() (notify.Config, bool, error)
}

type SheetBackend interface {
	AppendRow(ctx context.Context, cfg sheets.Config, item feedback.Item) error
	FetchAll(ctx context.Context, cfg sheets.Config, dept feedback.Department) []feedback.Item
}

type Notifier interface {
	NewFeedbackAlert(ctx context.Context, cfg notify.Config, item feedback.Item) error
	Report(ctx context.Context, cfg notify.Config, dept feedback.Department, text string) error
}

// Orchestrator decides, per department, whether the remote sheet or the
// local store is trusted, and keeps them approximately consistent.
// The sync is deliberately asymmetric: a successful non-empty remote
// fetch wins wholesale on load, while status and comment edits stay
// local-only. The positional row format has no stable row address to
// patch, so nothing is ever pushed upstream.
type Orchestrator struct {
	store    Store
	sheet    SheetBackend
	notifier Notifier
}

func NewOrchestrator(store Store, sheet SheetBackend, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		store:    store,
		sheet:    sheet,
		notifier: notifier,
	}
}

// Load returns the department's items. In dual-backend mode a non-empty
// remote fetch replaces the local collection; an empty or failed fetch
// leaves the local collection untouched and serves it instead.
func (o *Orchestrator) Load(ctx context.Context, dept feedback.Department) ([]feedback.Item, error) {
	cfg, ok, err := o.store.GetSheetConfig(dept)
	if err != nil {
		return nil, err
	}

	if ok && cfg.Enabled() {
		if items := o.sheet.FetchAll(ctx, cfg, dept); len(items) > 0 {
			if err := o.store.ReplaceAll(dept, items); err != nil {
				return nil, err
			}
			metrics.SyncLoadsTotal.WithLabelValues("remote").Inc()
			logger.Info("Collection refreshed from sheet",
				zap.String("department", string(dept)),
				zap.Int("items", len(items)),
			)
			return items, nil
		}
		metrics.SyncLoadsTotal.WithLabelValues("fallback").Inc()
	} else {
		metrics.SyncLoadsTotal.WithLabelValues("local").Inc()
	}

	return o.store.GetByDepartment(dept)
}

// Create persists the item locally first; the local write never depends
// on the network. The sheet append and the Telegram alert are
// best-effort afterthoughts: failures are logged, captured, and
// swallowed, and nothing retries.
func (o *Orchestrator) Create(ctx context.Context, item feedback.Item) error {
	if err := o.store.Append(item); err != nil {
		return err
	}
	metrics.SubmissionsTotal.WithLabelValues(string(item.Department), string(item.Type)).Inc()

	if cfg, ok, err := o.store.GetSheetConfig(item.Department); err == nil && ok && cfg.Enabled() {
		if err := o.sheet.AppendRow(ctx, cfg, item); err != nil {
			metrics.SheetAppendsTotal.WithLabelValues("error").Inc()
			sentry.CaptureException(err)
			logger.Warn("Sheet append failed, local copy remains authoritative",
				zap.String("id", item.ID),
				zap.Error(err),
			)
		} else {
			metrics.SheetAppendsTotal.WithLabelValues("ok").Inc()
		}
	}

	if cfg, ok, err := o.store.GetTelegramConfig(); err == nil && ok && cfg.Valid() {
		if err := o.notifier.NewFeedbackAlert(ctx, cfg, item); err != nil {
			metrics.NotificationsTotal.WithLabelValues("alert", "error").Inc()
			sentry.CaptureException(err)
			logger.Warn("Feedback alert failed", zap.String("id", item.ID), zap.Error(err))
		} else {
			metrics.NotificationsTotal.WithLabelValues("alert", "ok").Inc()
		}
	}

	return nil
}

// SetStatus mutates the local store only; the remote sheet is not
// touched on this path.
func (o *Orchestrator) SetStatus(ctx context.Context, dept feedback.Department, id string, status feedback.Status) error {
	if err := o.store.UpdateStatus(dept, id, status); err != nil {
		return err
	}
	metrics.StatusChangesTotal.WithLabelValues(string(status)).Inc()
	return nil
}

// AddComment appends to the local thread only.
func (o *Orchestrator) AddComment(ctx context.Context, dept feedback.Department, id string, comment feedback.Comment) error {
	return o.store.AppendComment(dept, id, comment)
}

// RecordAnalysis stores the enrichment and appends the AI system
// comment the dashboard shows alongside it.
func (o *Orchestrator) RecordAnalysis(ctx context.Context, dept feedback.Department, id string, analysis feedback.Analysis) error {
	if err := o.store.SetAnalysis(dept, id, analysis); err != nil {
		return err
	}

	comment := feedback.NewComment(feedback.AICommentAuthor, fmt.Sprintf(
		"[ANALYSIS COMPLETE]\nSentiment: %s\nAction: %s",
		analysis.Sentiment, analysis.SuggestedAction,
	))
	return o.store.AppendComment(dept, id, comment)
}

// ExportCSV writes every department's items, newest-first, as CSV.
func (o *Orchestrator) ExportCSV(w io.Writer) error {
	items, err := o.store.All()
	if err != nil {
		return err
	}
	if err := feedback.WriteCSV(w, items); err != nil {
		return err
	}
	metrics.CSVExportsTotal.Inc()
	return nil
}

// SendReport delivers a generated report to the configured chat. Unlike
// the create-path alert this is user-initiated, so a missing config or
// failed send surfaces as an error.
func (o *Orchestrator) SendReport(ctx context.Context, dept feedback.Department, text string) error {
	cfg, ok, err := o.store.GetTelegramConfig()
	if err != nil {
		return err
	}
	if !ok || !cfg.Valid() {
		return fmt.Errorf("telegram is not configured")
	}

	if err := o.notifier.Report(ctx, cfg, dept, text); err != nil {
		metrics.NotificationsTotal.WithLabelValues("report", "error").Inc()
		sentry.CaptureException(err)
		return err
	}
	metrics.NotificationsTotal.WithLabelValues("report", "ok").Inc()
	return nil
}
