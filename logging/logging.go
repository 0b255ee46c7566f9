// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects handler format and outputs.
type Options struct {
	Format string // "text" or "json"
	File   string // rotating log file; empty disables it
	Stdout bool   // also write to stdout
	Level  slog.Level
}

// New returns a logger writing to stdout and/or a rotating file.
// With neither output configured the logger discards everything.
func New(opts Options) *slog.Logger {
	var writers []io.Writer
	if opts.Stdout {
		writers = append(writers, os.Stdout)
	}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		w = io.Discard
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}
	if strings.EqualFold(opts.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// Preview shortens s to at most n runes for log lines.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
