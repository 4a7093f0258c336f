// Package upgrade implements the self-upgrade pipeline: version check,
// download, verification, and atomic in-place replacement of the running
// binary, serialized across processes by an advisory file lock.
package upgrade

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/railguard-dev/railguard/internal/safefs"
)

// EnvAllowMissingChecksum permits installing an artifact the release
// descriptor carries no checksum for. Test and development escape hatch;
// production releases always publish checksums.
const EnvAllowMissingChecksum = "RAILGUARD_ALLOW_MISSING_CHECKSUM"

const (
	defaultSwapAttempts = 4
	defaultRetryDelay   = 5 * time.Second
)

// Status classifies how an upgrade attempt ended.
type Status int

const (
	// StatusUpToDate: remote is not newer than the running version.
	StatusUpToDate Status = iota
	// StatusUpgraded: a newer binary was installed.
	StatusUpgraded
	// StatusReinstalled: --force re-installed the same version.
	StatusReinstalled
	// StatusBusy: another process holds the upgrade lock.
	StatusBusy
)

// Result describes a finished upgrade attempt.
type Result struct {
	Status Status
	From   string
	To     string
}

// Coordinator drives a single upgrade attempt through check, download,
// verify, stage, swap, and cleanup. Every mutating step runs strictly inside
// the held upgrade lock.
type Coordinator struct {
	version    string
	exePath    string
	dataDir    string
	checker    *Checker
	downloader *Downloader
	out        io.Writer

	swapAttempts int
	retryDelay   time.Duration
}

// NewCoordinator builds a coordinator for the running binary.
// version is the embedded build version, exePath the live executable,
// dataDir the directory holding the persisted poll state, and upgradeURL
// the release base URL. Progress output is discarded until SetOutput.
func NewCoordinator(version, exePath, dataDir, upgradeURL string) *Coordinator {
	return &Coordinator{
		version:      version,
		exePath:      exePath,
		dataDir:      dataDir,
		checker:      NewChecker(upgradeURL),
		downloader:   NewDownloader(),
		out:          io.Discard,
		swapAttempts: defaultSwapAttempts,
		retryDelay:   defaultRetryDelay,
	}
}

// SetOutput directs user-visible progress lines to w. The background poll
// never calls this; it stays silent by construction.
func (c *Coordinator) SetOutput(w io.Writer) {
	c.out = w
}

// Run performs an explicit upgrade attempt. With force, the version
// comparison is bypassed and the remote artifact is installed even if it is
// the running version.
func (c *Coordinator) Run(force bool) (*Result, error) {
	binDir := filepath.Dir(c.exePath)

	lock, err := AcquireLock(binDir)
	if errors.Is(err, ErrLockBusy) {
		fmt.Fprintln(c.out, "Another upgrade is already in progress.")
		return &Result{Status: StatusBusy}, nil
	}
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	// Residue from crashed prior attempts is swept only once we own the
	// lock: a concurrent upgrade's in-flight staged download matches the
	// same naming convention and must not be touched by a lock loser.
	if removed, _ := SweepArtifacts(binDir); removed > 0 {
		log.Debug("swept stale upgrade artifacts", "count", removed)
	}

	return c.runLocked(force)
}

// Poll is the opportunistic background check run at the tail of unrelated
// commands. It never prints, never fails the host command, and is rate
// limited by the persisted last-poll timestamp. All errors are logged and
// swallowed.
func (c *Coordinator) Poll() {
	binDir := filepath.Dir(c.exePath)

	lock, err := AcquireLock(binDir)
	if err != nil {
		// Busy or broken either way: somebody else is handling it.
		log.Debug("upgrade poll skipped", "reason", err)
		return
	}
	defer lock.Release()

	// Sweep inside the lock for the same reason Run does: staged files
	// belonging to a live upgrade are indistinguishable from residue.
	SweepArtifacts(binDir)

	// The rate-limit check happens inside the lock so concurrent short-lived
	// processes cannot all observe "time to poll" and race to the network.
	state := LoadState(c.dataDir)
	if !state.ShouldPoll(PollInterval, time.Now()) {
		return
	}
	// Recorded up front: a failing poll still backs off the full interval.
	if err := state.RecordPoll(c.dataDir); err != nil {
		log.Warn("unable to persist upgrade poll state", "error", err)
	}

	if _, err := c.runLocked(false); err != nil {
		log.Warn("background upgrade failed", "error", err)
	}
}

// runLocked executes the mutating pipeline. Caller holds the upgrade lock.
func (c *Coordinator) runLocked(force bool) (*Result, error) {
	platform := CurrentPlatform()
	if !platform.IsSupported() {
		return nil, fmt.Errorf("no release artifacts for %s/%s", platform.OS, platform.Arch)
	}

	fmt.Fprintf(c.out, "Current version: %s\n", c.version)
	fmt.Fprintln(c.out, "Checking for updates...")

	release, err := c.checker.Latest()
	if err != nil {
		return nil, fmt.Errorf("check for update: %w", err)
	}
	fmt.Fprintf(c.out, "Latest version:  %s\n", release.Version)

	if !force {
		newer, err := IsNewerThan(release.Version, c.version)
		if err != nil {
			// Dev builds don't carry a comparable version; refuse to
			// auto-replace them rather than guessing.
			return nil, fmt.Errorf("version comparison: %w", err)
		}
		if !newer {
			log.Debug("already on latest version", "version", c.version)
			return &Result{Status: StatusUpToDate, From: c.version, To: release.Version}, nil
		}
	}

	reinstall := sameVersion(release.Version, c.version)
	if reinstall {
		fmt.Fprintf(c.out, "Force reinstalling version %s...\n", release.Version)
	} else {
		fmt.Fprintf(c.out, "Upgrading from %s to %s...\n", c.version, release.Version)
	}

	result, err := c.installRelease(release, platform)
	if err != nil {
		return nil, err
	}
	if reinstall {
		result.Status = StatusReinstalled
	}
	return result, nil
}

// installRelease downloads, verifies, and swaps in the release artifact.
func (c *Coordinator) installRelease(release *ReleaseInfo, platform Platform) (*Result, error) {
	binDir := filepath.Dir(c.exePath)
	artifact := platform.ArtifactName()

	// Staged beside the live executable so the swap is a same-volume rename.
	staged := StagedPath(binDir)
	promoted := false
	defer func() {
		if !promoted {
			os.Remove(staged)
		}
	}()

	fmt.Fprintln(c.out, "Downloading update...")
	if err := c.downloader.Download(c.checker.BinaryURL(artifact), staged); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	fmt.Fprintln(c.out, "Verifying...")
	if sum, ok := release.Checksums[artifact]; ok {
		if err := VerifyChecksum(staged, sum); err != nil {
			return nil, err
		}
	} else if os.Getenv(EnvAllowMissingChecksum) == "" {
		return nil, fmt.Errorf("%w: no checksum published for %s", ErrVerification, artifact)
	} else {
		log.Warn("no checksum for artifact, proceeding per environment override", "artifact", artifact)
	}
	if err := VerifyExecutable(staged); err != nil {
		return nil, err
	}

	fmt.Fprintln(c.out, "Installing...")
	retired, err := c.swapWithRetry(staged)
	if err != nil {
		return nil, err
	}
	promoted = true

	// Cleanup: the retired image and anything older attempts left behind.
	if retired != "" {
		if outcome, err := safefs.RemoveFile(retired); !outcome.OK() {
			// Expected on platforms that pin executing images; the next
			// startup sweep or a full uninstall picks it up.
			log.Debug("retired binary left for later sweep", "path", retired, "error", err)
		}
	}
	SweepArtifacts(binDir)

	state := LoadState(c.dataDir)
	if err := state.RecordUpgrade(c.dataDir); err != nil {
		log.Warn("unable to persist upgrade state", "error", err)
	}

	fmt.Fprintf(c.out, "Upgraded to version %s.\n", release.Version)
	return &Result{Status: StatusUpgraded, From: c.version, To: release.Version}, nil
}

// swapWithRetry promotes the staged binary, retrying a bounded number of
// times for transiently busy files.
func (c *Coordinator) swapWithRetry(staged string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.swapAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(c.retryDelay)
		}
		retired, err := Swap(staged, c.exePath)
		if err == nil {
			return retired, nil
		}
		lastErr = err
		log.Warn("binary swap failed", "attempt", attempt+1, "error", err)
	}
	return "", fmt.Errorf("replace binary at %s: %w", c.exePath, lastErr)
}

func sameVersion(a, b string) bool {
	va, errA := ParseVersion(a)
	vb, errB := ParseVersion(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return va.Compare(vb) == 0
}
