// Package logging provides the zerolog-backed engine logger with optional
// file output.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileLogger bundles the logger with its file handle so callers can close it
// on shutdown.
type FileLogger struct {
	Logger  zerolog.Logger
	Close   func() error
	Path    string
	Enabled bool
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// New builds a logger writing JSON lines to <dataDir>/logs/engine.log.
// When console is set, a human-readable copy goes to stderr as well.
// A debug=false logger stays at info level.
func New(dataDir string, debug, console bool) (FileLogger, error) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nopFileLogger(), err
	}
	path := filepath.Join(logDir, "engine.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nopFileLogger(), err
	}

	var out io.Writer = file
	if console {
		out = zerolog.MultiLevelWriter(file, zerolog.ConsoleWriter{Out: os.Stderr})
	}
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return FileLogger{
		Logger:  logger,
		Close:   file.Close,
		Path:    path,
		Enabled: true,
	}, nil
}

func nopFileLogger() FileLogger {
	return FileLogger{Logger: Nop(), Close: func() error { return nil }, Enabled: false}
}
