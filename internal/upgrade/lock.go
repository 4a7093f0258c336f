package upgrade

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/railguard-dev/railguard/internal/paths"
)

// ErrLockBusy means another live process holds the upgrade lock. Callers
// fail fast instead of waiting: an interactive invocation must never hang
// behind somebody else's upgrade.
var ErrLockBusy = errors.New("another upgrade is in progress")

// Lock is a held cross-process upgrade lock: an exclusive advisory file lock
// on a well-known file beside the executable, stamped with the holder's PID.
//
// The advisory lock is what provides exclusion; the PID stamp exists for the
// stale-file case. The kernel drops the advisory lock when a holder dies, so
// a lock file whose PID is no longer running and whose advisory lock is free
// is plain residue and is reclaimed. A lock file whose recorded PID is dead
// but whose advisory lock is somehow still contended (remote filesystems) is
// reported Busy rather than trusted.
type Lock struct {
	file *os.File
	path string
}

// LockPath returns the lock file path for a binary directory.
func LockPath(binDir string) string {
	return filepath.Join(binDir, paths.LockFileName)
}

// AcquireLock takes the exclusive upgrade lock for the given binary
// directory. Returns ErrLockBusy when another live process holds it.
//
// A lock file left behind by a crash needs no unlink-based reclaim: the
// kernel drops a dead holder's advisory lock, so tryAcquire succeeds on the
// existing file and restamps the PID over it. Removing a contended file
// instead would hand out a second "exclusive" lock on a fresh inode while
// the real holder still owns the old one. So a contended flock is always
// Busy, even when the stamped PID is dead (the lock can outlive the stamping
// process through an inherited descriptor).
func AcquireLock(binDir string) (*Lock, error) {
	path := LockPath(binDir)

	lock, err := tryAcquire(path)
	if errors.Is(err, ErrLockBusy) {
		if pid, ok := recordedPID(path); ok && !processAlive(pid) {
			log.Debug("upgrade lock contended but stamped pid is dead",
				"path", path, "pid", pid)
		}
	}
	return lock, err
}

func tryAcquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	if err := flockExclusive(f); err != nil {
		f.Close()
		if isLockContention(err) {
			return nil, ErrLockBusy
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	// Stamp our PID for liveness probes by other processes.
	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
		_ = f.Sync()
	}
	return &Lock{file: f, path: path}, nil
}

// Release drops the advisory lock and removes the lock file. Safe to call
// more than once.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	if err := flockRelease(l.file); err != nil {
		log.Debug("unlock failed", "path", l.path, "error", err)
	}
	if err := l.file.Close(); err != nil {
		log.Debug("lock file close failed", "path", l.path, "error", err)
	}
	l.file = nil
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		log.Debug("lock file removal failed", "path", l.path, "error", err)
	}
}

// recordedPID reads the PID stamped into an existing lock file.
func recordedPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
