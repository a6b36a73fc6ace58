// Package logger provides a configured zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

// Options tune the logger built by NewWithOptions.
type Options struct {
	// Level is a zerolog level name; empty or unknown means info.
	Level string
	// Console switches to human readable output for local runs.
	Console bool
	// Out defaults to os.Stdout.
	Out io.Writer
}

// New returns a JSON logger at info level writing to stdout.
// Call sites should use .Stack() on error events to include stacks.
func New(serviceName string) zerolog.Logger {
	return NewWithOptions(serviceName, Options{})
}

// NewWithOptions returns a logger tagged with serviceName and configured by o.
func NewWithOptions(serviceName string, o Options) zerolog.Logger {
	// Marshal pkg/errors stack traces when present and attach one otherwise.
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		type stackTracer interface{ StackTrace() pkgerrors.StackTrace }
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}

	out := o.Out
	if out == nil {
		out = os.Stdout
	}
	if o.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(parseLevel(o.Level)).
		With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
