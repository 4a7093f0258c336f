//go:build windows

package selfdelete

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/railguard-dev/railguard/internal/paths"
	"github.com/railguard-dev/railguard/internal/safefs"
)

// deferredRenameAndDelete handles the platform that refuses to unlink a
// running image. The file is renamed to a retired-artifact name (renaming an
// open executable is allowed), then deletion is attempted; if the image is
// still pinned the rename alone clears the live path and the renamed residue
// matches the upgrade sweep convention, so the next invocation or a full
// uninstall removes it.
type deferredRenameAndDelete struct{}

func platformCapability() Capability {
	return deferredRenameAndDelete{}
}

func (deferredRenameAndDelete) Name() string {
	return "deferred-rename-and-delete"
}

func (deferredRenameAndDelete) Remove(path string) (safefs.Outcome, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return safefs.AlreadyAbsent, nil
		}
		return safefs.Failed, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return safefs.Refused, fmt.Errorf("%s: %w", path, safefs.ErrSymlinkRefused)
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	disposable := filepath.Join(filepath.Dir(path), paths.RetiredPrefix+suffix+".exe")
	if err := os.Rename(path, disposable); err != nil {
		return safefs.Failed, fmt.Errorf("rename %s aside: %w", path, err)
	}

	// Best effort: succeeds once the image is no longer pinned. Failure is
	// fine, the disposable name is swept later.
	_ = os.Remove(disposable)
	return safefs.Removed, nil
}
