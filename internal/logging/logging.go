// Package logging builds the process logger.
//
// Two sinks exist. With --verbose the logger writes debug output to stderr.
// Otherwise it appends to railguard.log inside the data directory, but only
// when that directory already exists: logging must never create directories,
// or an uninstall could resurrect the data directory it just removed.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/railguard-dev/railguard/internal/paths"
)

// LogFileName is the log file inside the data directory.
const LogFileName = paths.ToolName + ".log"

// New returns the logger plus a closer for any file sink it opened. The
// closer is never nil.
func New(dataDir string, verbose bool) (*log.Logger, io.Closer) {
	if verbose {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			Prefix:          paths.ToolName,
			ReportTimestamp: true,
		})
		logger.SetLevel(log.DebugLevel)
		return logger, nopCloser{}
	}

	if info, err := os.Lstat(dataDir); err == nil && info.IsDir() {
		path := filepath.Join(dataDir, LogFileName)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err == nil {
			logger := log.NewWithOptions(f, log.Options{
				Prefix:          paths.ToolName,
				ReportTimestamp: true,
			})
			return logger, f
		}
	}

	return log.New(io.Discard), nopCloser{}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
