// SPDX-License-Identifier: EPL-2.0

package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

// Formats accepted by New.
const (
	FormatAuto   = "auto"
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Options configures New.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New builds a structured logger. Output defaults to stderr, Level to
// info and Format to auto, which is text on a terminal and logfmt
// otherwise.
func New(opts Options) (*log.Logger, error) {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Level == "" {
		opts.Level = "info"
	}

	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	formatter, err := formatterFor(opts.Format, opts.Output)
	if err != nil {
		return nil, err
	}

	return log.NewWithOptions(opts.Output, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	}), nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

func formatterFor(format string, w io.Writer) (log.Formatter, error) {
	switch format {
	case "", FormatAuto:
		if isTerminal(w) {
			return log.TextFormatter, nil
		}
		return log.LogfmtFormatter, nil
	case FormatText:
		return log.TextFormatter, nil
	case FormatJSON:
		return log.JSONFormatter, nil
	case FormatLogfmt:
		return log.LogfmtFormatter, nil
	default:
		return 0, fmt.Errorf("unknown log format %q", format)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
