package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Format selects the log line encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr, FormatConsole, zerolog.InfoLevel)
)

func newLogger(w io.Writer, format Format, lvl zerolog.Level) zerolog.Logger {
	if format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		With().
		Timestamp().
		Logger().
		Level(lvl)
}

// Setup replaces the global logger. level is one of debug, info, warn,
// error; format is console or json.
func Setup(w io.Writer, level string, format Format) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	switch format {
	case FormatConsole, FormatJSON:
	case "":
		format = FormatConsole
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	mu.Lock()
	logger = newLogger(w, format, lvl)
	mu.Unlock()
	return nil
}

// SetLevel changes the minimum level of the global logger.
func SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = logger.Level(lvl)
	mu.Unlock()
	return nil
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, kv ...any) {
	l := Logger()
	l.Debug().Fields(kv).Msg(msg)
}

func Info(msg string, kv ...any) {
	l := Logger()
	l.Info().Fields(kv).Msg(msg)
}

func Warn(msg string, kv ...any) {
	l := Logger()
	l.Warn().Fields(kv).Msg(msg)
}

// Error logs msg at error level with err attached under "error".
func Error(msg string, err error, kv ...any) {
	l := Logger()
	l.Error().Err(err).Fields(kv).Msg(msg)
}

// CronLogger adapts the global logger to robfig/cron's Logger interface.
type CronLogger struct{}

func (CronLogger) Info(msg string, keysAndValues ...any) {
	Debug("cron: "+msg, keysAndValues...)
}

func (CronLogger) Error(err error, msg string, keysAndValues ...any) {
	Error("cron: "+msg, err, keysAndValues...)
}
