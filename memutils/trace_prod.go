//go:build !debug_mem_trace

package memutils

import "golang.org/x/exp/slog"

// TraceEnabled is true when the module was built with the debug_mem_trace build tag.
// Callers that build expensive attributes should check it first.
//
// Trace lines are logged at slog.LevelDebug. When the logger passed to Trace does not accept
// Debug records, as is the case for slog.Default() unless its level has been lowered, the lines
// are written to stderr instead.
const TraceEnabled bool = false

// Trace writes a diagnostic line describing an allocator code path.
// This method no-ops unless the debug_mem_trace build tag is present.
func Trace(logger *slog.Logger, msg string, attrs ...slog.Attr) {
}
