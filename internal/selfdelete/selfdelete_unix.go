//go:build unix

package selfdelete

import "github.com/railguard-dev/railguard/internal/safefs"

// directUnlink deletes the executable in place. Unix permits unlinking a
// running image: the directory entry goes away immediately and the inode is
// reclaimed when the last process mapping it exits.
type directUnlink struct{}

func platformCapability() Capability {
	return directUnlink{}
}

func (directUnlink) Name() string {
	return "direct-unlink"
}

func (directUnlink) Remove(path string) (safefs.Outcome, error) {
	return safefs.RemoveFile(path)
}
