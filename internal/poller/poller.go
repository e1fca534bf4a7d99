/*
Package poller runs the scan cycle: fetch every upcoming page, diff against the previous
cycle, check the entries page and hand each alert to the notifier.
*/
package poller

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/shanehull/racealert/internal/notify"
	"github.com/shanehull/racealert/internal/source"
	"github.com/shanehull/racealert/internal/tracker"
	"github.com/shanehull/racealert/internal/types"
)

type Fetcher interface {
	FetchRows(ctx context.Context, pageURL string) ([]types.Row, error)
}

type Notifier interface {
	Notify(ctx context.Context, alert types.Alert) error
}

// Recorder receives cycle telemetry. *metrics.Metrics implements it.
type Recorder interface {
	RecordAlert(kind types.AlertKind)
	RecordFetch(src types.Source, err error)
	RecordPersistFailures(n int)
	SetSeenKeys(n int)
	RecordCycle(started, finished time.Time)
}

type Options struct {
	UpcomingURL string
	EntriesURL  string
	MaxPages    int
	Interval    time.Duration
}

type Poller struct {
	opts     Options
	fetcher  Fetcher
	tracker  *tracker.Tracker
	notifier Notifier

	// SeenCount reports the seen set size after each cycle, when set.
	SeenCount func() int
	Recorder  Recorder
	// Report receives the console summary of each cycle. Nil discards it.
	Report      io.Writer
	HistoryPath string

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

type CycleResult struct {
	ID            string
	Alerts        []types.Alert
	PagesScanned  int
	FetchFailures int
	NotifyErrors  int
	PersistErrors int
}

func New(opts Options, fetcher Fetcher, t *tracker.Tracker, notifier Notifier) *Poller {
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	return &Poller{
		opts:     opts,
		fetcher:  fetcher,
		tracker:  t,
		notifier: notifier,
		Report:   os.Stdout,
		now:      time.Now,
		after:    time.After,
	}
}

// RunCycle performs one full scan. A failed page is logged and skipped; later pages are
// still fetched. Notification failures are logged and never undo the seen record.
func (p *Poller) RunCycle(ctx context.Context) CycleResult {
	started := p.now()
	res := CycleResult{ID: uuid.NewString()}
	log := slog.With("cycle_id", res.ID)

	log.Info("cycle started", "max_pages", p.opts.MaxPages)

	p.tracker.BeginCycle()
	for page := 1; page <= p.opts.MaxPages; page++ {
		if ctx.Err() != nil {
			log.Warn("cycle interrupted", "page", page)
			break
		}

		pageURL := source.PageURL(p.opts.UpcomingURL, page)
		rows, err := p.fetcher.FetchRows(ctx, pageURL)
		p.recordFetch(types.SourceUpcoming, err)
		if err != nil {
			res.FetchFailures++
			log.Warn("upcoming page fetch failed", "page", page, "url", pageURL, "error", err)
			continue
		}

		res.PagesScanned++
		log.Debug("upcoming page scanned", "page", page, "rows", len(rows))
		res.Alerts = append(res.Alerts, p.tracker.ObserveUpcoming(page, rows)...)
	}
	res.Alerts = append(res.Alerts, p.tracker.EndCycle()...)
	res.PersistErrors = p.tracker.PersistErrors

	if p.opts.EntriesURL != "" && ctx.Err() == nil {
		rows, err := p.fetcher.FetchRows(ctx, p.opts.EntriesURL)
		p.recordFetch(types.SourceEntries, err)
		if err != nil {
			res.FetchFailures++
			log.Warn("entries fetch failed", "url", p.opts.EntriesURL, "error", err)
		} else {
			res.PagesScanned++
			res.Alerts = append(res.Alerts, p.tracker.ObserveEntries(rows)...)
			res.PersistErrors = p.tracker.PersistErrors
		}
	}

	for _, alert := range res.Alerts {
		if p.Recorder != nil {
			p.Recorder.RecordAlert(alert.Kind)
		}
		if err := p.notifier.Notify(ctx, alert); err != nil {
			res.NotifyErrors++
			log.Error("notification failed", "kind", alert.Kind, "name", alert.Name, "error", err)
			continue
		}
		log.Info("notification sent", "kind", alert.Kind, "name", alert.Name)
	}

	if p.Report != nil {
		notify.ReportAlerts(p.Report, res.Alerts, p.HistoryPath)
	}

	finished := p.now()
	if p.Recorder != nil {
		p.Recorder.RecordPersistFailures(res.PersistErrors)
		p.Recorder.RecordCycle(started, finished)
		if p.SeenCount != nil {
			p.Recorder.SetSeenKeys(p.SeenCount())
		}
	}

	log.Info("cycle finished",
		"alerts", len(res.Alerts),
		"pages", res.PagesScanned,
		"fetch_failures", res.FetchFailures,
		"notify_errors", res.NotifyErrors,
		"persist_errors", res.PersistErrors,
		"took", finished.Sub(started).Round(time.Millisecond),
	)
	return res
}

// Run repeats RunCycle until ctx is cancelled, sleeping the full interval after each
// cycle finishes.
func (p *Poller) Run(ctx context.Context) error {
	for {
		p.RunCycle(ctx)

		slog.Info("sleeping until next cycle", "interval", p.opts.Interval)
		select {
		case <-ctx.Done():
			slog.Info("poller stopped")
			return ctx.Err()
		case <-p.after(p.opts.Interval):
		}
	}
}

func (p *Poller) recordFetch(src types.Source, err error) {
	if p.Recorder != nil {
		p.Recorder.RecordFetch(src, err)
	}
}
