//go:build unix

package selfdelete

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/railguard-dev/railguard/internal/safefs"
)

func TestDirectUnlinkRemovesBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "railguard")
	if err := os.WriteFile(path, []byte("image"), 0o755); err != nil {
		t.Fatal(err)
	}

	outcome, err := New().Remove(path)
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if outcome != safefs.Removed {
		t.Errorf("outcome = %v, want Removed", outcome)
	}
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Error("binary still present")
	}
}

func TestDirectUnlinkAlreadyAbsent(t *testing.T) {
	outcome, err := New().Remove(filepath.Join(t.TempDir(), "gone"))
	if err != nil || outcome != safefs.AlreadyAbsent {
		t.Errorf("Remove() = (%v, %v), want (AlreadyAbsent, nil)", outcome, err)
	}
}

func TestDirectUnlinkRefusesSymlink(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "real")
	if err := os.WriteFile(target, []byte("keep"), 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(tmp, "railguard")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	outcome, err := New().Remove(link)
	if outcome != safefs.Refused || !errors.Is(err, safefs.ErrSymlinkRefused) {
		t.Errorf("Remove() = (%v, %v), want Refused", outcome, err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Error("symlink target deleted")
	}
}
