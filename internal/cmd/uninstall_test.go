package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/railguard-dev/railguard/internal/paths"
)

func TestUninstallAllWithoutYesAbortsOnNonTerminal(t *testing.T) {
	root := t.TempDir()
	configDir := filepath.Join(root, "config")
	t.Setenv(paths.EnvBinDir, filepath.Join(root, "bin"))
	t.Setenv(paths.EnvConfigDir, configDir)
	t.Setenv(paths.EnvDataDir, filepath.Join(root, "data"))
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.toml"), []byte("auto_upgrade = true"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Test stdin is not a terminal, so the command must abort cleanly
	// without reading anything or removing anything.
	cmd := newUninstallAllCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Aborted") {
		t.Errorf("output missing Aborted: %q", buf.String())
	}
	if _, err := os.Lstat(configDir); err != nil {
		t.Error("aborted uninstall removed the config directory")
	}
}
