package upgrade

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"

	"github.com/railguard-dev/railguard/internal/paths"
)

// ErrVerification marks a downloaded candidate that failed validation
// (checksum mismatch, empty file, missing executable bit). It is distinct
// from network failure so callers can report the right cause.
var ErrVerification = fmt.Errorf("candidate binary failed verification")

func userAgent() string {
	return paths.ToolName + " (" + runtime.GOOS + "; " + runtime.GOARCH + ")"
}

// Downloader streams release artifacts to disk.
type Downloader struct {
	client *http.Client
}

// NewDownloader creates a downloader with a bounded request timeout.
func NewDownloader() *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: downloadTimeout,
		},
	}
}

// Download streams url into dst, creating dst with executable permissions.
// dst must be on the same volume as the live binary so the later swap is a
// rename, which is why the coordinator always passes a staged path beside
// the executable.
func (d *Downloader) Download(url, dst string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent())

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("open %s for writing: %w", dst, err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("sync %s: %w", dst, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("finalize %s: %w", dst, err)
	}
	return nil
}

// VerifyChecksum compares the SHA-256 digest of path against expectedHex.
func VerifyChecksum(path, expectedHex string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s for verification: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("hash %s: %w", path, err)
	}
	actual := hex.EncodeToString(h.Sum(nil))
	if actual != expectedHex {
		return fmt.Errorf("%w: checksum mismatch for %s: expected %s, got %s",
			ErrVerification, path, expectedHex, actual)
	}
	return nil
}

// VerifyExecutable checks that the staged file is a plausible binary image:
// it exists, is non-empty, and carries an executable bit where the platform
// has one. This runs before the file is ever treated as trusted.
func VerifyExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrVerification, path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s is not executable", ErrVerification, path)
	}
	return nil
}
