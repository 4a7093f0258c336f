package cmd

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/railguard-dev/railguard/internal/config"
	"github.com/railguard-dev/railguard/internal/output"
	"github.com/railguard-dev/railguard/internal/paths"
)

// newWriter builds the output writer for the selected --output format.
func newWriter() (*output.Writer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewWriter(os.Stdout, format), nil
}

// loadConfig reads config.toml, degrading to the defaults when the config
// directory cannot even be resolved. A parse error is surfaced; a typo in the
// file must not silently flip the policy to its defaults.
func loadConfig() (config.Config, error) {
	dir, err := paths.ConfigDir()
	if err != nil {
		log.Debug("config directory unresolvable, using defaults", "error", err)
		return config.Default(), nil
	}
	return config.Load(dir)
}
