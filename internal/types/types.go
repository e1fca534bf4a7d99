package types

import (
	"time"
)

// TrackedName is a watchlist entry, always stored lowercase.
type TrackedName string

// Source identifies which page family a row was scraped from.
type Source string

const (
	SourceUpcoming Source = "upcoming"
	SourceEntries  Source = "entries"
)

// Row is the text content of one <tr>, cells joined with " | ".
type Row struct {
	Raw        string
	Normalized string
}

type Match struct {
	Name TrackedName
	Row
}

type AlertKind string

const (
	AlertNew     AlertKind = "new"
	AlertRemoved AlertKind = "removed"
	AlertEntry   AlertKind = "entry"
)

type Alert struct {
	Kind       AlertKind
	Source     Source
	Name       TrackedName
	Raw        string
	Key        string
	Page       int
	DetectedAt time.Time
}

// Snapshot maps each name matched during an upcoming cycle to its most recent row text.
type Snapshot map[TrackedName]string

// Clone returns an independent copy of s.
func (s Snapshot) Clone() Snapshot {
	c := make(Snapshot, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}
