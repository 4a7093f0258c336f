package upgrade

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stateFileName = "upgrade_state.json"

// PollInterval is the minimum time between background version checks.
const PollInterval = time.Hour

// State is the persisted upgrade poll state, kept in the data directory so
// short-lived invocations don't hammer the release server.
type State struct {
	// LastPoll is the unix time (seconds) of the last version check.
	LastPoll int64 `json:"last_poll"`
	// LastUpgrade is the unix time (seconds) of the last successful swap.
	LastUpgrade int64 `json:"last_upgrade"`
}

func stateFilePath(dataDir string) string {
	return filepath.Join(dataDir, stateFileName)
}

// LoadState reads the poll state from the data directory. Missing or corrupt
// state degrades to the zero value, which always permits a poll.
func LoadState(dataDir string) State {
	var s State
	data, err := os.ReadFile(stateFilePath(dataDir))
	if err != nil {
		return s
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}
	}
	return s
}

// ShouldPoll reports whether at least interval has elapsed since the last
// recorded poll.
func (s State) ShouldPoll(interval time.Duration, now time.Time) bool {
	elapsed := now.Unix() - s.LastPoll
	return elapsed >= int64(interval.Seconds())
}

// RecordPoll stamps the current time as the last poll and persists.
// Recorded before the poll's outcome is known so a failing upgrade still
// backs off for the full interval.
func (s *State) RecordPoll(dataDir string) error {
	s.LastPoll = time.Now().Unix()
	return s.save(dataDir)
}

// RecordUpgrade stamps the current time as both last poll and last upgrade.
func (s *State) RecordUpgrade(dataDir string) error {
	now := time.Now().Unix()
	s.LastPoll = now
	s.LastUpgrade = now
	return s.save(dataDir)
}

func (s State) save(dataDir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode upgrade state: %w", err)
	}
	path := stateFilePath(dataDir)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
