//go:build debug_mem_trace

package memutils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestTraceFallsBackWhenDebugIsDropped(t *testing.T) {
	var fallback bytes.Buffer
	previous := traceFallback
	traceFallback = slog.New(slog.NewTextHandler(&fallback, &slog.HandlerOptions{Level: slog.LevelDebug}))
	defer func() { traceFallback = previous }()

	var quiet bytes.Buffer
	infoLogger := slog.New(slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelInfo}))

	Trace(infoLogger, "dropped by the logger", slog.Int("Size", 8))
	require.Empty(t, quiet.String())
	require.Contains(t, fallback.String(), "dropped by the logger")
	require.Contains(t, fallback.String(), "Size=8")

	fallback.Reset()
	Trace(nil, "no logger")
	require.Contains(t, fallback.String(), "no logger")

	var verbose bytes.Buffer
	debugLogger := slog.New(slog.NewTextHandler(&verbose, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fallback.Reset()
	Trace(debugLogger, "kept by the logger")
	require.Contains(t, verbose.String(), "kept by the logger")
	require.Empty(t, fallback.String())
}
