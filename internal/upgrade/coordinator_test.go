package upgrade

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// releaseServer serves a release.json plus the platform artifact and counts
// descriptor hits.
func releaseServer(t *testing.T, version string, binary []byte, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	artifact := CurrentPlatform().ArtifactName()
	sum := sha256.Sum256(binary)

	mux := http.NewServeMux()
	mux.HandleFunc("/release.json", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		json.NewEncoder(w).Encode(ReleaseInfo{
			Version:   version,
			Checksums: map[string]string{artifact: hex.EncodeToString(sum[:])},
		})
	})
	mux.HandleFunc("/"+artifact, func(w http.ResponseWriter, r *http.Request) {
		w.Write(binary)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testCoordinator(t *testing.T, version, url string) (*Coordinator, string) {
	t.Helper()
	binDir := t.TempDir()
	exe := filepath.Join(binDir, "railguard")
	if err := os.WriteFile(exe, []byte("old image"), 0o755); err != nil {
		t.Fatal(err)
	}
	c := NewCoordinator(version, exe, t.TempDir(), url)
	c.retryDelay = time.Millisecond
	return c, exe
}

func TestRunUpgrades(t *testing.T) {
	srv := releaseServer(t, "1.1.0", []byte("new image"), nil)
	c, exe := testCoordinator(t, "1.0.0", srv.URL)

	res, err := c.Run(false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != StatusUpgraded || res.To != "1.1.0" {
		t.Errorf("result = %+v, want StatusUpgraded to 1.1.0", res)
	}

	if data, _ := os.ReadFile(exe); string(data) != "new image" {
		t.Errorf("live binary = %q, want new image", data)
	}

	// No staged or retired residue, no lingering lock.
	entries, _ := os.ReadDir(filepath.Dir(exe))
	for _, e := range entries {
		if e.Name() != filepath.Base(exe) {
			t.Errorf("unexpected residue: %s", e.Name())
		}
	}

	if LoadState(c.dataDir).LastUpgrade == 0 {
		t.Error("upgrade not recorded in state")
	}
}

func TestRunAlreadyLatest(t *testing.T) {
	srv := releaseServer(t, "1.0.0", []byte("same"), nil)
	c, exe := testCoordinator(t, "1.0.0", srv.URL)

	res, err := c.Run(false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != StatusUpToDate {
		t.Errorf("status = %v, want StatusUpToDate", res.Status)
	}
	if data, _ := os.ReadFile(exe); string(data) != "old image" {
		t.Error("binary mutated on no-op upgrade")
	}
}

func TestRunForceReinstallsSameVersion(t *testing.T) {
	srv := releaseServer(t, "1.0.0", []byte("fresh copy"), nil)
	c, exe := testCoordinator(t, "1.0.0", srv.URL)

	res, err := c.Run(true)
	if err != nil {
		t.Fatalf("Run(force) error = %v", err)
	}
	if res.Status != StatusReinstalled {
		t.Errorf("status = %v, want StatusReinstalled", res.Status)
	}
	if data, _ := os.ReadFile(exe); string(data) != "fresh copy" {
		t.Error("force reinstall did not replace the binary")
	}
}

func TestRunBusyWhenLockHeld(t *testing.T) {
	srv := releaseServer(t, "9.9.9", []byte("never installed"), nil)
	c, exe := testCoordinator(t, "1.0.0", srv.URL)

	lock, err := AcquireLock(filepath.Dir(exe))
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	res, err := c.Run(false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != StatusBusy {
		t.Errorf("status = %v, want StatusBusy", res.Status)
	}
	if data, _ := os.ReadFile(exe); string(data) != "old image" {
		t.Error("binary mutated while lock was held elsewhere")
	}
}

func TestRunBusyLeavesInFlightStagedFile(t *testing.T) {
	srv := releaseServer(t, "9.9.9", []byte("never installed"), nil)
	c, exe := testCoordinator(t, "1.0.0", srv.URL)
	binDir := filepath.Dir(exe)

	lock, err := AcquireLock(binDir)
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	// The lock holder's download in progress.
	staged := StagedPath(binDir)
	if err := os.WriteFile(staged, []byte("partial download"), 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := c.Run(false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Status != StatusBusy {
		t.Fatalf("status = %v, want StatusBusy", res.Status)
	}
	if _, err := os.Lstat(staged); err != nil {
		t.Error("lock loser removed the holder's in-flight staged file")
	}
}

func TestPollBusyLeavesInFlightStagedFile(t *testing.T) {
	srv := releaseServer(t, "9.9.9", []byte("never installed"), nil)
	c, exe := testCoordinator(t, "1.0.0", srv.URL)
	binDir := filepath.Dir(exe)

	lock, err := AcquireLock(binDir)
	if err != nil {
		t.Fatal(err)
	}
	defer lock.Release()

	staged := StagedPath(binDir)
	if err := os.WriteFile(staged, []byte("partial download"), 0o755); err != nil {
		t.Fatal(err)
	}

	c.Poll()

	if _, err := os.Lstat(staged); err != nil {
		t.Error("busy poll removed the holder's in-flight staged file")
	}
}

func TestRunChecksumMismatch(t *testing.T) {
	artifact := CurrentPlatform().ArtifactName()
	mux := http.NewServeMux()
	mux.HandleFunc("/release.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ReleaseInfo{
			Version:   "2.0.0",
			Checksums: map[string]string{artifact: strings.Repeat("0", 64)},
		})
	})
	mux.HandleFunc("/"+artifact, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tampered"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, exe := testCoordinator(t, "1.0.0", srv.URL)

	_, err := c.Run(false)
	if !errors.Is(err, ErrVerification) {
		t.Errorf("Run() error = %v, want ErrVerification", err)
	}
	if data, _ := os.ReadFile(exe); string(data) != "old image" {
		t.Error("binary replaced despite failed verification")
	}
	entries, _ := os.ReadDir(filepath.Dir(exe))
	if len(entries) != 1 {
		t.Errorf("staged residue left after failed verification: %v", entries)
	}
}

func TestPollRespectsRateLimit(t *testing.T) {
	var hits atomic.Int64
	srv := releaseServer(t, "1.1.0", []byte("new"), &hits)
	c, exe := testCoordinator(t, "1.0.0", srv.URL)

	state := State{LastPoll: time.Now().Unix()}
	if err := state.save(c.dataDir); err != nil {
		t.Fatal(err)
	}

	c.Poll()

	if hits.Load() != 0 {
		t.Errorf("poll hit the network %d times despite recent last-poll", hits.Load())
	}
	if data, _ := os.ReadFile(exe); string(data) != "old image" {
		t.Error("rate-limited poll mutated the binary")
	}
}

func TestPollUpgradesWhenDue(t *testing.T) {
	srv := releaseServer(t, "1.2.0", []byte("polled image"), nil)
	c, exe := testCoordinator(t, "1.0.0", srv.URL)

	c.Poll()

	if data, _ := os.ReadFile(exe); string(data) != "polled image" {
		t.Errorf("live binary = %q, want polled image", data)
	}
	if LoadState(c.dataDir).LastPoll == 0 {
		t.Error("poll not recorded")
	}
}

func TestPollSwallowsNetworkFailure(t *testing.T) {
	c, exe := testCoordinator(t, "1.0.0", "http://127.0.0.1:1")

	// Must not panic, print, or mutate anything.
	c.Poll()

	if data, _ := os.ReadFile(exe); string(data) != "old image" {
		t.Error("failed poll mutated the binary")
	}
}
