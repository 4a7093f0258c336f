// Package paths resolves the installation locations for the railguard binary,
// its configuration directory, and its data directory.
//
// Every location can be overridden through an environment variable so tests
// and packaging scripts can run fully isolated. Overrides are validated
// strictly: they must be absolute and must not contain parent-directory
// references. Resolution never creates anything on disk; callers that need a
// directory to exist use EnsureConfigDir or EnsureDataDir.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ToolName is the canonical name of the installed binary and of the
// per-project configuration and data directories.
const ToolName = "railguard"

// Filesystem conventions shared by the upgrade coordinator and the uninstall
// orchestrator. All three live in the same directory as the executable so the
// final swap is always a same-volume rename.
const (
	// LockFileName is the cross-process upgrade lock beside the executable.
	LockFileName = "." + ToolName + ".upgrade.lock"
	// StagedPrefix marks a downloaded candidate binary not yet promoted.
	StagedPrefix = "." + ToolName + "_new_"
	// RetiredPrefix marks a previous binary image renamed aside during a swap.
	RetiredPrefix = ToolName + "_upgrade_"
)

// Environment overrides. Each must be an absolute path with no ".." components.
const (
	EnvBinDir    = "RAILGUARD_BIN_DIR"
	EnvConfigDir = "RAILGUARD_CONFIG_DIR"
	EnvDataDir   = "RAILGUARD_DATA_DIR"
)

// ErrPathInvalid reports an override that is relative or contains
// parent-directory references.
var ErrPathInvalid = errors.New("invalid path override")

// InstallLocations holds the three resolved locations. All paths are absolute.
type InstallLocations struct {
	Executable string
	ConfigDir  string
	DataDir    string
}

// Resolve computes all three install locations. It fails if any one of them
// cannot be resolved; callers that must keep going on a partial failure (the
// uninstall orchestrator) resolve each location individually instead.
func Resolve() (InstallLocations, error) {
	exe, err := ExecutablePath()
	if err != nil {
		return InstallLocations{}, err
	}
	cfg, err := ConfigDir()
	if err != nil {
		return InstallLocations{}, err
	}
	data, err := DataDir()
	if err != nil {
		return InstallLocations{}, err
	}
	return InstallLocations{Executable: exe, ConfigDir: cfg, DataDir: data}, nil
}

// BinDir returns the directory the binary is installed into:
// the RAILGUARD_BIN_DIR override, or ~/.local/bin.
func BinDir() (string, error) {
	if v := os.Getenv(EnvBinDir); v != "" {
		return validateOverride(EnvBinDir, v)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "bin"), nil
}

// ExecutablePath returns the install location of the binary itself.
func ExecutablePath() (string, error) {
	dir, err := BinDir()
	if err != nil {
		return "", err
	}
	name := ToolName
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, name), nil
}

// ConfigDir returns the configuration directory without creating it:
// the RAILGUARD_CONFIG_DIR override, or the platform config dir plus
// the tool name (~/.config/railguard on Linux).
func ConfigDir() (string, error) {
	if v := os.Getenv(EnvConfigDir); v != "" {
		return validateOverride(EnvConfigDir, v)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(base, ToolName), nil
}

// DataDir returns the data directory without creating it:
// the RAILGUARD_DATA_DIR override, or the platform data dir plus the tool
// name (~/.local/share/railguard on Linux).
func DataDir() (string, error) {
	if v := os.Getenv(EnvDataDir); v != "" {
		return validateOverride(EnvDataDir, v)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" && filepath.IsAbs(xdg) {
			return filepath.Join(xdg, ToolName), nil
		}
		return filepath.Join(home, ".local", "share", ToolName), nil
	}
	// Fall back to the config base on other platforms; both map to the
	// conventional per-user application directory there.
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve data directory: %w", err)
	}
	return filepath.Join(base, ToolName), nil
}

// EnsureConfigDir resolves the config directory and creates it (0700) if
// needed.
func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return dir, ensureDir(dir)
}

// EnsureDataDir resolves the data directory and creates it (0700) if needed.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return dir, ensureDir(dir)
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// validateOverride rejects relative paths and path traversal in environment
// overrides. A bad override is a hard configuration error for the location it
// covers, never silently ignored.
func validateOverride(env, value string) (string, error) {
	if !filepath.IsAbs(value) {
		return "", fmt.Errorf("%w: %s must be an absolute path, got %q", ErrPathInvalid, env, value)
	}
	for _, part := range strings.Split(filepath.ToSlash(value), "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %s contains parent directory references: %q", ErrPathInvalid, env, value)
		}
	}
	return filepath.Clean(value), nil
}
