//go:build unix

package upgrade

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// flockExclusive takes a non-blocking exclusive flock on the open file.
// The kernel releases the lock automatically if the holder exits, so a
// crashed upgrade can never wedge future attempts.
func flockExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func flockRelease(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

// isLockContention reports whether a flock failure means "held elsewhere".
func isLockContention(err error) bool {
	return errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN)
}

// processAlive probes a PID with signal 0. EPERM still means the process
// exists, just owned by someone else.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
