// Package debug provides category-scoped debug logging.
//
// Two orthogonal controls: categories pick WHAT to trace, the log level
// picks HOW MUCH detail. Categories come from the CHATBRIDGE_DEBUG
// environment variable as a comma-separated list, the level from
// CHATBRIDGE_LOG_LEVEL. Wire-level payload dumps sit below DEBUG at the
// trace level so routine debug runs stay readable.
//
// Categories: backend, protocol, attachments, transport, streaming, config, all.
package debug

import (
	"log/slog"
	"os"
	"strings"
)

// LevelTrace sits below slog.LevelDebug. At trace, full request and
// response payloads are logged untruncated.
const LevelTrace = slog.Level(slog.LevelDebug - 4)

// categories is read-only after package init, no synchronization needed.
var categories map[string]bool

func init() {
	categories = parseCategories(os.Getenv("CHATBRIDGE_DEBUG"))
}

// Enabled reports whether debug output is active for the category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the category, a no-op when the category
// is not enabled.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the category. Only visible when
// the log level is TRACE.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(nil, LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// Level resolves the process log level from CHATBRIDGE_LOG_LEVEL,
// falling back to the given default when the variable is unset.
func Level(fallback slog.Level) slog.Level {
	env := os.Getenv("CHATBRIDGE_LOG_LEVEL")
	if env == "" {
		return fallback
	}
	return ParseLevel(env)
}

// ParseLevel converts a level name to a slog.Level. Unknown names map
// to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Truncate caps s at maxLen characters, appending "..." when cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
