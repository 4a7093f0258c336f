package upgrade

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/railguard-dev/railguard/internal/paths"
	"github.com/railguard-dev/railguard/internal/safefs"
)

// randomSuffix returns an unpredictable suffix for staged and retired binary
// names so an attacker cannot pre-place a file at the path an upgrade will
// write to.
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// StagedPath returns a fresh path for a downloaded candidate binary in dir.
func StagedPath(dir string) string {
	return filepath.Join(dir, paths.StagedPrefix+randomSuffix()+executableExt())
}

// RetiredPath returns a fresh path for renaming the previous binary aside.
func RetiredPath(dir string) string {
	return filepath.Join(dir, paths.RetiredPrefix+randomSuffix()+executableExt())
}

func executableExt() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}

// Swap promotes the staged binary onto the live path.
//
// The live image is first renamed aside to a retired name, then the staged
// file is renamed onto the live path. Both renames are within one directory,
// therefore same-volume and atomic: a process already executing the old image
// keeps running against its still-mapped inode, new invocations observe the
// new binary, and at no point is the live path missing a promotable file
// beyond the instant between the two renames. If promotion fails the retired
// image is moved back, so failure leaves the old binary live.
//
// Returns the retired path so the caller can clean it up after success.
func Swap(staged, live string) (retired string, err error) {
	retired = RetiredPath(filepath.Dir(live))

	if err := os.Rename(live, retired); err != nil {
		if os.IsNotExist(err) {
			// No live binary (first install through upgrade); promote only.
			if err := os.Rename(staged, live); err != nil {
				return "", fmt.Errorf("promote staged binary: %w", err)
			}
			return "", nil
		}
		return "", fmt.Errorf("retire live binary: %w", err)
	}

	if err := os.Rename(staged, live); err != nil {
		// Roll the old image back so the live path never stays empty.
		if restoreErr := os.Rename(retired, live); restoreErr != nil {
			return "", fmt.Errorf("promote staged binary: %w (restore also failed: %v)", err, restoreErr)
		}
		return "", fmt.Errorf("promote staged binary: %w", err)
	}
	return retired, nil
}

// SweepArtifacts removes leftover staged and retired binaries from dir:
// residue of crashed or interrupted upgrade attempts. Symlinks matching the
// naming convention are refused, counted as blocked, and left alone.
func SweepArtifacts(dir string) (removed, blocked int) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, paths.StagedPrefix) &&
			!strings.HasPrefix(name, paths.RetiredPrefix) {
			continue
		}
		outcome, _ := safefs.RemoveFile(filepath.Join(dir, name))
		switch outcome {
		case safefs.Removed:
			removed++
		case safefs.Refused, safefs.Failed:
			blocked++
		}
	}
	return removed, blocked
}
