package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/racealert/internal/types"
)

func TestCounters(t *testing.T) {
	m := New()

	m.RecordAlert(types.AlertNew)
	m.RecordAlert(types.AlertNew)
	m.RecordAlert(types.AlertRemoved)
	require.Equal(t, 2.0, testutil.ToFloat64(m.alerts.WithLabelValues("new")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.alerts.WithLabelValues("removed")))

	m.RecordFetch(types.SourceUpcoming, nil)
	m.RecordFetch(types.SourceUpcoming, errors.New("timeout"))
	require.Equal(t, 1.0, testutil.ToFloat64(m.pagesFetched.WithLabelValues("upcoming")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.fetchFailures.WithLabelValues("upcoming")))

	m.RecordNotification("sms", errors.New("down"))
	m.RecordNotification("email", nil)
	require.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("sms", "failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("email", "sent")))

	m.SetSeenKeys(12)
	require.Equal(t, 12.0, testutil.ToFloat64(m.seenKeys))

	m.RecordPersistFailures(2)
	require.Equal(t, 2.0, testutil.ToFloat64(m.persistFailures))

	finished := time.Unix(1_750_000_000, 0)
	m.RecordCycle(finished.Add(-3*time.Second), finished)
	require.Equal(t, 1_750_000_000.0, testutil.ToFloat64(m.lastCycle))
}

func TestRegistryExposition(t *testing.T) {
	m := New()
	m.RecordAlert(types.AlertEntry)

	expected := `
# HELP racealert_alerts_total Alerts produced, by kind.
# TYPE racealert_alerts_total counter
racealert_alerts_total{kind="entry"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "racealert_alerts_total"))
}
