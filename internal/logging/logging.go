// Package logging configures the process-wide zerolog logger.
//
// The MCP server speaks JSON-RPC on stdout, so logs always go to stderr
// (and optionally a state file), never stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger at the given level ("debug", "info",
// "warn", "error"). Output is a console writer when w is a terminal and
// JSON otherwise. When withFile is true, logs are also appended to the
// XDG state log file; failure to open it is logged and ignored.
func Setup(level string, w io.Writer, withFile bool) {
	zerolog.SetGlobalLevel(ParseLevel(level))

	out := w
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	writers := []io.Writer{out}
	var fileErr error
	logPath := LogFilePath()
	if withFile {
		var fh *os.File
		fh, fileErr = openLogFile(logPath)
		if fileErr == nil {
			writers = append(writers, fh)
		}
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", logPath).Msg("log file unavailable, logging to stderr only")
	}
}

// ParseLevel maps a level name to a zerolog level, defaulting to warn.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}

// Get returns a logger tagged with a component name.
func Get(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// LogFilePath is the log file under $XDG_STATE_HOME/rulewright.
func LogFilePath() string {
	return filepath.Join(xdg.StateHome, "rulewright", "rulewright.log")
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
