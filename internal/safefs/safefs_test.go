package safefs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func requireSymlinks(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires elevation on windows")
	}
}

func TestRemoveFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "victim")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	outcome, err := RemoveFile(path)
	if err != nil {
		t.Fatalf("RemoveFile() error = %v", err)
	}
	if outcome != Removed {
		t.Errorf("outcome = %v, want Removed", outcome)
	}
	if _, err := os.Lstat(path); !os.IsNotExist(err) {
		t.Error("file still exists")
	}
}

func TestRemoveFileAlreadyAbsent(t *testing.T) {
	outcome, err := RemoveFile(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("RemoveFile() error = %v", err)
	}
	if outcome != AlreadyAbsent {
		t.Errorf("outcome = %v, want AlreadyAbsent", outcome)
	}
}

func TestRemoveFileRefusesSymlink(t *testing.T) {
	requireSymlinks(t)
	tmp := t.TempDir()
	target := filepath.Join(tmp, "target")
	link := filepath.Join(tmp, "link")
	if err := os.WriteFile(target, []byte("keep me"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	outcome, err := RemoveFile(link)
	if outcome != Refused {
		t.Errorf("outcome = %v, want Refused", outcome)
	}
	if !errors.Is(err, ErrSymlinkRefused) {
		t.Errorf("error = %v, want ErrSymlinkRefused", err)
	}

	// Both the link and its target must survive.
	if _, err := os.Lstat(link); err != nil {
		t.Error("symlink was removed")
	}
	if data, err := os.ReadFile(target); err != nil || string(data) != "keep me" {
		t.Errorf("target damaged: %q, %v", data, err)
	}
}

func TestRemoveDirAllRefusesSymlinkRoot(t *testing.T) {
	requireSymlinks(t)
	tmp := t.TempDir()
	real := filepath.Join(tmp, "real")
	if err := os.MkdirAll(filepath.Join(real, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	important := filepath.Join(real, "important.txt")
	if err := os.WriteFile(important, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(tmp, "dirlink")
	if err := os.Symlink(real, link); err != nil {
		t.Fatal(err)
	}

	outcome, err := RemoveDirAll(link)
	if outcome != Refused {
		t.Errorf("outcome = %v, want Refused", outcome)
	}
	if !errors.Is(err, ErrSymlinkRefused) {
		t.Errorf("error = %v, want ErrSymlinkRefused", err)
	}
	if _, err := os.Stat(important); err != nil {
		t.Errorf("file behind symlink was touched: %v", err)
	}
}

func TestRemoveDirAllUnlinksInternalSymlinkWithoutFollowing(t *testing.T) {
	requireSymlinks(t)
	tmp := t.TempDir()

	external := filepath.Join(tmp, "external")
	if err := os.Mkdir(external, 0o755); err != nil {
		t.Fatal(err)
	}
	precious := filepath.Join(external, "precious.txt")
	if err := os.WriteFile(precious, []byte("do not delete"), 0o644); err != nil {
		t.Fatal(err)
	}

	owned := filepath.Join(tmp, "owned")
	if err := os.MkdirAll(filepath.Join(owned, "nested", "deeper"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(owned, "nested", "file.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(external, filepath.Join(owned, "nested", "escape")); err != nil {
		t.Fatal(err)
	}

	outcome, err := RemoveDirAll(owned)
	if err != nil {
		t.Fatalf("RemoveDirAll() error = %v", err)
	}
	if outcome != Removed {
		t.Errorf("outcome = %v, want Removed", outcome)
	}
	if _, err := os.Lstat(owned); !os.IsNotExist(err) {
		t.Error("owned directory still exists")
	}
	if data, err := os.ReadFile(precious); err != nil || string(data) != "do not delete" {
		t.Errorf("symlink target was harmed: %q, %v", data, err)
	}
}

func TestRemoveDirAllAlreadyAbsent(t *testing.T) {
	outcome, err := RemoveDirAll(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("RemoveDirAll() error = %v", err)
	}
	if outcome != AlreadyAbsent {
		t.Errorf("outcome = %v, want AlreadyAbsent", outcome)
	}
}

func TestRemoveDirAllRejectsPlainFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	outcome, err := RemoveDirAll(path)
	if outcome != Failed || err == nil {
		t.Errorf("outcome = %v, err = %v; want Failed with error", outcome, err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Error("file was removed despite Failed outcome")
	}
}

func TestOutcomeOK(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    bool
	}{
		{Removed, true},
		{AlreadyAbsent, true},
		{Refused, false},
		{Failed, false},
	}
	for _, tt := range tests {
		if got := tt.outcome.OK(); got != tt.want {
			t.Errorf("%v.OK() = %v, want %v", tt.outcome, got, tt.want)
		}
	}
}
