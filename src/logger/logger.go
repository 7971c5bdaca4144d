// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger defines the interface for logging operations.
// It provides methods for different log levels and formatted output.
//
// This interface is shared by the command-line front-end, the HTTP API and the
// [MCP] server, so validation code never cares which one it is talking to.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// CLILogger implements Logger using the standard log package.
// It's designed for command-line interface output with human-readable formatting.
type CLILogger struct{ logger *log.Logger }

// NewCLILogger creates a new CLI logger with timestamps disabled.
// This is suitable for user-facing CLI output.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stdout, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// StructuredLogger implements Logger on top of [logrus] with one JSON object per line.
//
// It is used by the HTTP API and by the [MCP] server. In MCP mode it is silent by
// default since the protocol itself runs over stdio.
//
// StructuredLogger is safe for concurrent use by multiple goroutines. Loggers derived
// with WithField share the underlying writer and level.
//
// [logrus]: https://github.com/sirupsen/logrus
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type StructuredLogger struct {
	entry  *logrus.Entry
	silent bool
}

// NewStructuredLogger creates a JSON logger writing to writer.
// A nil writer discards output. When silent is true nothing is written at all.
func NewStructuredLogger(writer io.Writer, silent bool) *StructuredLogger {
	if writer == nil {
		writer = io.Discard
	}

	l := logrus.New()
	l.SetOutput(writer)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(jsonFormatter())

	return &StructuredLogger{
		entry:  logrus.NewEntry(l),
		silent: silent,
	}
}

// Printf formats and logs a structured message at info level.
func (s *StructuredLogger) Printf(format string, v ...any) {
	if s.silent {
		return
	}
	s.entry.Info(fmt.Sprintf(format, v...))
}

// Println logs a structured message at info level.
func (s *StructuredLogger) Println(v ...any) {
	if s.silent {
		return
	}
	s.entry.Info(fmt.Sprint(v...))
}

// Warnf formats and logs a structured message at warning level.
func (s *StructuredLogger) Warnf(format string, v ...any) {
	if s.silent {
		return
	}
	s.entry.Warn(fmt.Sprintf(format, v...))
}

// Errorf formats and logs a structured message at error level.
func (s *StructuredLogger) Errorf(format string, v ...any) {
	if s.silent {
		return
	}
	s.entry.Error(fmt.Sprintf(format, v...))
}

// WithField returns a logger that adds key=value to every entry.
func (s *StructuredLogger) WithField(key string, value any) *StructuredLogger {
	return &StructuredLogger{entry: s.entry.WithField(key, value), silent: s.silent}
}

// WithFields returns a logger that adds all fields to every entry.
func (s *StructuredLogger) WithFields(fields map[string]any) *StructuredLogger {
	return &StructuredLogger{entry: s.entry.WithFields(logrus.Fields(fields)), silent: s.silent}
}

// SetLevel parses and applies a level name such as "debug", "info" or "warn".
func (s *StructuredLogger) SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	s.entry.Logger.SetLevel(lvl)
	return nil
}

// ErrUnknownFormat is returned by SetFormat for names other than "json" and "text".
var ErrUnknownFormat = errors.New("logger: unknown format")

func jsonFormatter() logrus.Formatter {
	return &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "message",
		},
	}
}

// SetFormat switches between one JSON object per line ("json") and logfmt
// style key=value lines ("text").
func (s *StructuredLogger) SetFormat(format string) error {
	switch format {
	case "json", "":
		s.entry.Logger.SetFormatter(jsonFormatter())
	case "text":
		s.entry.Logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

// SetOutput sets the output destination. A nil writer discards output.
//
// SetOutput is safe for concurrent use by multiple goroutines.
func (s *StructuredLogger) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	s.entry.Logger.SetOutput(w)
}
