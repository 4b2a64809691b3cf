// Package logger configures the global zerolog logger for storybox.
//
// The headless player and the list commands log to the console. The terminal
// viewer draws on the alternate screen, so anything written to stdout or
// stderr would tear the frame; it logs to a file when one is given and
// discards output otherwise.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Output names accepted in Config.Output.
const (
	OutputStdout  = "stdout"
	OutputStderr  = "stderr"
	OutputDiscard = "discard" // Used by the terminal viewer without --logfile
	OutputFile    = "file"
)

// Config represents logger configuration.
type Config struct {
	Output string // One of the Output* names; empty means stdout
	Level  string // "debug", "info", "warn", "error"
	File   string // Log file path, used with OutputFile
}

// Init configures the global logger. Call sites log through zlog.
func Init(cfg Config) error {
	level := parseLevel(cfg.Level)

	writer, err := newWriter(cfg)
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.CallerMarshalFunc = shortCaller

	logger := newLogger(writer, isConsole(cfg.Output), level == zerolog.DebugLevel)
	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger

	return nil
}

// newWriter opens the destination named by cfg.Output.
func newWriter(cfg Config) (io.Writer, error) {
	switch strings.ToLower(cfg.Output) {
	case OutputStdout, "":
		return os.Stdout, nil
	case OutputStderr:
		return os.Stderr, nil
	case OutputDiscard:
		return io.Discard, nil
	case OutputFile:
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open log file %s", cfg.File)
		}
		return f, nil
	default:
		return nil, errors.Newf("unknown log output: %s", cfg.Output)
	}
}

// newLogger builds a colored console logger for terminals and a JSON logger
// for everything else. Caller info is only added at debug level.
func newLogger(w io.Writer, console, debug bool) zerolog.Logger {
	if !console {
		ctx := zerolog.New(w).With().Timestamp()
		if debug {
			ctx = ctx.Caller()
		}
		return ctx.Logger()
	}

	cw := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
	}
	if !debug {
		return zerolog.New(cw).With().Timestamp().Logger()
	}
	cw.PartsOrder = []string{"time", "level", "message", "caller"}
	cw.FormatCaller = func(i interface{}) string {
		return "(" + i.(string) + ")"
	}
	return zerolog.New(cw).With().Timestamp().Caller().Logger()
}

// shortCaller keeps the package directory and file name, e.g. playback/engine.go:42.
func shortCaller(pc uintptr, file string, line int) string {
	parts := strings.Split(file, string(filepath.Separator))
	if len(parts) > 1 {
		return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// isConsole reports whether the output is a terminal stream.
func isConsole(output string) bool {
	switch strings.ToLower(output) {
	case OutputStdout, OutputStderr, "":
		return true
	default:
		return false
	}
}

// parseLevel parses the log level string.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
