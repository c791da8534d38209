// Package logging builds the slog loggers used by the server and CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// DefaultMaxBytes is the size at which a log file rolls over within a day.
const DefaultMaxBytes = 64 << 20

// Options selects the handler.
type Options struct {
	Level  string    // debug|info|warn|error
	Format string    // text|json
	File   string    // Rotating log file; "" or "-" disables file output
	Output io.Writer // Console target, os.Stderr when nil
}

// ParseLevel maps a config string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// New returns a logger for opts and a closer for the log file, if any.
//
// Text output goes through tint; JSON output through slog.JSONHandler. With
// a file configured, records are mirrored to the console and the rotating
// file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	var current string
	file := strings.TrimSpace(opts.File)
	if file != "" && file != "-" {
		rw, err := NewRotatingWriter(file, DefaultMaxBytes)
		if err != nil {
			return nil, nil, err
		}
		if r, ok := rw.(*RotatingWriter); ok {
			current = r.Current()
		}
		out = io.MultiWriter(out, rw)
		closer = rw
	}

	var h slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		h = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	case "", "text":
		h = tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
			NoColor:    file != "" && file != "-",
		})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	logger := slog.New(h)
	if current != "" {
		logger.Debug("writing log file", "path", current)
	}
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
