// Package mlog wires the parser's warnings and trace output to zerolog,
// replacing the teacher's bare fmt.Fprintf(os.Stderr, ...) helpers
// (util.go's Warning/Error/Fatal) with structured, levelled logging.
package mlog

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.Mutex
	logger = zerolog.New(io.Discard)
)

// Configure points the package logger at w, at Info level, or at Debug
// level when verbose is set. cmd/mbuild
// calls this once at startup; library code that never calls Configure logs
// nowhere, which keeps embedding this package side-effect-free by default.
func Configure(w io.Writer, verbose bool) {
	mu.Lock()
	defer mu.Unlock()
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// ConfigureConsole sets up a human-readable console writer on stderr, the
// form cmd/mbuild uses.
func ConfigureConsole(verbose bool) {
	Configure(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, verbose)
}

// Warn logs a parser-level warning (duplicate edge output, a manifest
// requesting a newer minor ninja_required_version than this implements).
func Warn(msg string, fields map[string]any) {
	mu.Lock()
	ev := logger.Warn()
	mu.Unlock()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// Trace logs a fine-grained parse-progress event, enabled by --verbose.
func Trace(msg string, fields map[string]any) {
	mu.Lock()
	ev := logger.Debug()
	mu.Unlock()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
