// Package selfdelete removes the executable image backing the currently
// running process.
//
// Whether that is directly possible is a platform property, so the package
// exposes a capability with exactly two implementations: DirectUnlink where
// the OS allows unlinking an open executable (the inode lives on until the
// process exits), and DeferredRenameAndDelete where it does not (the file is
// renamed to a disposable upgrade-artifact name, deleted if possible, and
// otherwise swept by the next invocation or a full uninstall). The variant
// is chosen once per build; callers never probe at the call site.
package selfdelete

import "github.com/railguard-dev/railguard/internal/safefs"

// Capability deletes the binary at path, which may be the image of the
// calling process. After a successful call the path no longer resolves to an
// existing file, indistinguishable from a synchronous delete to the caller.
type Capability interface {
	// Name identifies the strategy in logs and reports.
	Name() string
	// Remove deletes the binary at path with the symlink-refusal semantics
	// of the safefs primitives.
	Remove(path string) (safefs.Outcome, error)
}

// New returns the capability for the current platform.
func New() Capability {
	return platformCapability()
}
