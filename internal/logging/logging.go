package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLevel is used when no level is configured
const DefaultLevel = "info"

// ParseLevel parses debug, info, warn or error. An empty level is DefaultLevel.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q (use debug, info, warn or error)", level)
	}
}

// Setup points the global logger at stderr plus the extra writers and sets
// the global level
func Setup(level string, extra ...io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)

	writers := []io.Writer{ConsoleWriter(os.Stderr)}
	writers = append(writers, extra...)

	log.Logger = log.Output(zerolog.MultiLevelWriter(writers...))
	return nil
}

// ConsoleWriter returns a human readable writer for f, colored only on terminals
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	return zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}
}

// PlainWriter formats log lines for a text view: no colors, time of day only
func PlainWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.TimeOnly,
	}
}

type minLevelWriter struct {
	w   io.Writer
	min zerolog.Level
}

// MinLevelWriter passes on only events at min or above
func MinLevelWriter(w io.Writer, min zerolog.Level) zerolog.LevelWriter {
	return &minLevelWriter{w: w, min: min}
}

func (m *minLevelWriter) Write(p []byte) (int, error) {
	return m.w.Write(p)
}

func (m *minLevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < m.min {
		return len(p), nil
	}
	return m.w.Write(p)
}
