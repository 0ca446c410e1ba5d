package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/katti/jsonline"
)

// newLogger builds the process-wide zerolog console logger.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "jsonlined").Logger()
}

// zerologAdapter exposes a zerolog.Logger through the jsonline.Logger
// interface so the library's slog-style key-value calls land in zerolog.
type zerologAdapter struct {
	log zerolog.Logger
}

var _ jsonline.Logger = (*zerologAdapter)(nil)

func (a *zerologAdapter) Debug(msg string, args ...any) { emit(a.log.Debug(), msg, args) }
func (a *zerologAdapter) Info(msg string, args ...any)  { emit(a.log.Info(), msg, args) }
func (a *zerologAdapter) Warn(msg string, args ...any)  { emit(a.log.Warn(), msg, args) }
func (a *zerologAdapter) Error(msg string, args ...any) { emit(a.log.Error(), msg, args) }

func emit(e *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		e = e.Interface(key, args[i+1])
	}
	e.Msg(msg)
}
