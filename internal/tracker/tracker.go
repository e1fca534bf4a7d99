/*
Package tracker decides which matches are worth an alert. It owns the seen set and the
snapshot of names matched on the previous upcoming-races cycle.
*/
package tracker

import (
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/shanehull/racealert/internal/history"
	"github.com/shanehull/racealert/internal/types"
	"github.com/shanehull/racealert/internal/watch"
)

const debugKeyWidth = 50

// SeenSet is the durable record of reported keys.
type SeenSet interface {
	Contains(key string) bool
	AddAndPersist(key string) error
}

type Tracker struct {
	watchlist watch.Watchlist
	seen      SeenSet
	now       func() time.Time

	previous types.Snapshot
	current  types.Snapshot
	inCycle  bool

	// PersistErrors counts keys that matched but could not be recorded during the
	// current cycle. They are not alerted and will be retried next cycle.
	PersistErrors int
}

func New(watchlist watch.Watchlist, seen SeenSet) *Tracker {
	return &Tracker{
		watchlist: watchlist,
		seen:      seen,
		now:       time.Now,
		previous:  types.Snapshot{},
		current:   types.Snapshot{},
	}
}

// BeginCycle starts collecting a fresh upcoming snapshot.
func (t *Tracker) BeginCycle() {
	t.current = types.Snapshot{}
	t.inCycle = true
	t.PersistErrors = 0
}

// ObserveUpcoming records every match on one upcoming page in the current snapshot and
// returns an alert for each match whose key has never been seen.
func (t *Tracker) ObserveUpcoming(page int, rows []types.Row) []types.Alert {
	if !t.inCycle {
		t.BeginCycle()
	}

	matches := t.watchlist.Match(rows)
	for _, m := range matches {
		t.current[m.Name] = m.Raw
	}
	return t.newAlerts(types.SourceUpcoming, types.AlertNew, page, matches)
}

// EndCycle emits a removed alert for every name in the previous snapshot that was not
// matched this cycle, then replaces the previous snapshot with the current one.
func (t *Tracker) EndCycle() []types.Alert {
	if !t.inCycle {
		t.BeginCycle()
	}

	var removed []types.TrackedName
	for name := range t.previous {
		if _, ok := t.current[name]; !ok {
			removed = append(removed, name)
		}
	}
	slices.Sort(removed)

	now := t.now()
	alerts := make([]types.Alert, 0, len(removed))
	for _, name := range removed {
		alerts = append(alerts, types.Alert{
			Kind:       types.AlertRemoved,
			Source:     types.SourceUpcoming,
			Name:       name,
			Raw:        t.previous[name],
			DetectedAt: now,
		})
	}

	t.previous = t.current
	t.current = types.Snapshot{}
	t.inCycle = false
	return alerts
}

// ObserveEntries alerts once per entries-page match. Entries are never diffed, so they
// never produce removed alerts.
func (t *Tracker) ObserveEntries(rows []types.Row) []types.Alert {
	return t.newAlerts(types.SourceEntries, types.AlertEntry, 0, t.watchlist.Match(rows))
}

// Previous returns a copy of the snapshot retained from the last completed cycle.
func (t *Tracker) Previous() types.Snapshot {
	return t.previous.Clone()
}

func (t *Tracker) newAlerts(src types.Source, kind types.AlertKind, page int, matches []types.Match) []types.Alert {
	var alerts []types.Alert
	now := t.now()

	for _, m := range matches {
		key := history.CacheKey(src, m.Name, m.Normalized)
		slog.Debug("checking key", "source", src, "key", truncate(key, debugKeyWidth))

		if t.seen.Contains(key) {
			slog.Debug("already seen", "source", src, "name", m.Name)
			continue
		}

		if err := t.seen.AddAndPersist(key); err != nil {
			t.PersistErrors++
			if errors.Is(err, history.ErrPersist) {
				slog.Error("could not record key, alert deferred to next cycle", "name", m.Name, "error", err)
			} else {
				slog.Error("unexpected seen set failure", "name", m.Name, "error", err)
			}
			continue
		}

		slog.Debug("new alert", "source", src, "name", m.Name)
		alerts = append(alerts, types.Alert{
			Kind:       kind,
			Source:     src,
			Name:       m.Name,
			Raw:        m.Raw,
			Key:        key,
			Page:       page,
			DetectedAt: now,
		})
	}
	return alerts
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
