// Package safefs provides file and directory removal primitives that refuse
// to follow symlinks.
//
// An attacker who can write to a well-known location (the config directory,
// the binary directory) before railguard runs could plant a symlink there and
// redirect a delete onto something they do not own. These primitives decide
// what to delete from an lstat of the path itself, never from the symlink
// target, and the directory walk unlinks symlinks found inside a directory
// without ever descending through them.
package safefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrSymlinkRefused is returned (wrapped) when a removal target turns out to
// be a symlink. It is a distinct condition, never folded into generic I/O
// failure: the caller must be able to tell "blocked by a planted link" apart
// from "disk broke".
var ErrSymlinkRefused = errors.New("path is a symlink, refusing to remove")

// Outcome classifies the result of a removal attempt.
type Outcome int

const (
	// Removed means the entry existed and is now gone.
	Removed Outcome = iota
	// AlreadyAbsent means there was nothing to remove. Not an error.
	AlreadyAbsent
	// Refused means the target was a symlink and was left untouched.
	Refused
	// Failed means an I/O or permission error stopped the removal.
	Failed
)

// String returns the outcome name used in reports.
func (o Outcome) String() string {
	switch o {
	case Removed:
		return "removed"
	case AlreadyAbsent:
		return "already absent"
	case Refused:
		return "refused"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// OK reports whether the outcome counts as success for exit-code purposes.
func (o Outcome) OK() bool {
	return o == Removed || o == AlreadyAbsent
}

// MarshalText lets outcomes render by name in JSON and YAML reports.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// RemoveFile removes a single non-directory entry. If the path is a symlink
// the call returns (Refused, ErrSymlinkRefused) and touches nothing.
func RemoveFile(path string) (Outcome, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return AlreadyAbsent, nil
		}
		return Failed, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return Refused, fmt.Errorf("%s: %w", path, ErrSymlinkRefused)
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return AlreadyAbsent, nil
		}
		return Failed, fmt.Errorf("remove %s: %w", path, err)
	}
	return Removed, nil
}

// RemoveDirAll removes a directory tree rooted at path. The root must be a
// real directory: a symlink root is refused outright. Inside the tree,
// symlinks are unlinked as plain entries (their targets are never visited)
// and subdirectories are walked with an explicit worklist so the no-follow
// invariant is enforced at every level rather than delegated to a library
// recursive delete.
func RemoveDirAll(path string) (Outcome, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return AlreadyAbsent, nil
		}
		return Failed, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return Refused, fmt.Errorf("%s: %w", path, ErrSymlinkRefused)
	}
	if !info.IsDir() {
		return Failed, fmt.Errorf("remove %s: not a directory", path)
	}

	// Discovery pass: clear the non-directory entries of each directory and
	// collect subdirectories, breadth-first. dirs only ever contains paths
	// whose entry was observed as a real directory by ReadDir (which reads
	// lstat-level types and does not follow links).
	dirs := []string{path}
	for i := 0; i < len(dirs); i++ {
		entries, err := os.ReadDir(dirs[i])
		if err != nil {
			return Failed, fmt.Errorf("read %s: %w", dirs[i], err)
		}
		for _, entry := range entries {
			child := filepath.Join(dirs[i], entry.Name())
			if entry.IsDir() {
				dirs = append(dirs, child)
				continue
			}
			// Regular file, symlink, fifo, whatever: os.Remove unlinks
			// the entry itself and cannot traverse into a link target.
			if err := os.Remove(child); err != nil && !os.IsNotExist(err) {
				return Failed, fmt.Errorf("remove %s: %w", child, err)
			}
		}
	}

	// Deepest directories were appended last; remove in reverse so every
	// directory is empty by the time its own entry goes.
	for i := len(dirs) - 1; i >= 0; i-- {
		if err := os.Remove(dirs[i]); err != nil && !os.IsNotExist(err) {
			return Failed, fmt.Errorf("remove %s: %w", dirs[i], err)
		}
	}
	return Removed, nil
}
