// Package logging builds the structured logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/Joseda-hg/lazyplan/internal/config"
)

type Options struct {
	Writer io.Writer
	Level  string
	Prefix string
}

func New(opts Options) *log.Logger {
	var w io.Writer = os.Stderr
	if opts.Writer != nil {
		w = opts.Writer
	}

	lvl, err := log.ParseLevel(opts.Level)
	if err != nil {
		lvl = log.InfoLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
	})
}

// NewFile logs to path, appending. An empty path discards everything so the
// terminal client never writes over its own screen.
func NewFile(path, level string) (*log.Logger, io.Closer, error) {
	if path == "" {
		return New(Options{Writer: io.Discard, Level: level}), io.NopCloser(nil), nil
	}
	if err := config.EnsureDir(path); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return New(Options{Writer: f, Level: level}), f, nil
}
