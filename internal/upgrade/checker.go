package upgrade

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const downloadTimeout = 30 * time.Second

// ReleaseInfo is the remote version descriptor served at
// <upgrade_url>/release.json.
type ReleaseInfo struct {
	Version string `json:"version"`
	// Checksums maps artifact names to hex-encoded SHA-256 digests.
	Checksums map[string]string `json:"checksums"`
}

// Checker fetches the remote release descriptor.
type Checker struct {
	baseURL string
	client  *http.Client
}

// NewChecker creates a checker against the given release base URL.
func NewChecker(baseURL string) *Checker {
	return &Checker{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: downloadTimeout,
		},
	}
}

// Latest downloads and decodes the release descriptor.
func (c *Checker) Latest() (*ReleaseInfo, error) {
	url := c.baseURL + "/release.json"

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	var release ReleaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release descriptor: %w", err)
	}
	if release.Version == "" {
		return nil, fmt.Errorf("release descriptor at %s has no version", url)
	}
	return &release, nil
}

// BinaryURL returns the download URL for a platform artifact.
func (c *Checker) BinaryURL(artifact string) string {
	return c.baseURL + "/" + artifact
}
