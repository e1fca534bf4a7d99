package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitWriter(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, InitWriter(&buf, "warn"))

	slog.Info("hidden")
	slog.Warn("shown", "name", "velocity")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "msg=shown")
	require.Contains(t, out, "name=velocity")

	require.NoError(t, SetLevelString("DEBUG"))
	slog.Debug("now visible")
	require.Contains(t, buf.String(), "now visible")
}

func TestSetLevelStringRejectsUnknown(t *testing.T) {
	require.Error(t, SetLevelString("chatty"))
	require.NoError(t, SetLevelString(""))
}
