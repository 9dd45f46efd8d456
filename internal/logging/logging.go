// ABOUTME: Builds the process zerolog logger from the log section of the config.
// ABOUTME: Supports json or console output to stderr, a buffer, or an append-only file.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const permission = 0664

type Build struct {
	writer io.Writer
	path   string
	level  string
	format string
}

// Logger is the built logger plus the file it writes to, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

func New() *Build {
	return &Build{writer: os.Stderr, level: "info", format: "console"}
}

func (b *Build) ToWriter(w io.Writer) *Build {
	b.writer = w
	return b
}

func (b *Build) ToFile(path string) *Build {
	b.path = path
	return b
}

func (b *Build) Level(level string) *Build {
	b.level = level
	return b
}

func (b *Build) Format(format string) *Build {
	b.format = format
	return b
}

func (b *Build) Make() (*Logger, error) {
	level, err := ParseLevel(b.level)
	if err != nil {
		return nil, err
	}

	out := &Logger{}
	w := b.writer
	if b.path != "" {
		out.file, err = os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = zerolog.SyncWriter(out.file)
	}

	switch b.format {
	case "", "console":
		// Files stay machine readable; only terminals get the pretty writer.
		if b.path == "" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: !isTerminal(b.writer)}
		}
	case "json":
	default:
		out.Close()
		return nil, fmt.Errorf("unknown log format %q", b.format)
	}

	out.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return out, nil
}

// Close releases the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ParseLevel accepts zerolog level names; blank means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
