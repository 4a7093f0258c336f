package upgrade

import (
	"fmt"
	"runtime"

	"github.com/railguard-dev/railguard/internal/paths"
)

// Platform identifies the OS and architecture a release artifact targets.
type Platform struct {
	OS   string
	Arch string
}

// CurrentPlatform returns the platform of the running binary.
func CurrentPlatform() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// ArtifactName returns the release artifact name for this platform,
// e.g. "railguard-linux-amd64" or "railguard-windows-amd64.exe".
func (p Platform) ArtifactName() string {
	name := fmt.Sprintf("%s-%s-%s", paths.ToolName, p.OS, p.Arch)
	if p.OS == "windows" {
		name += ".exe"
	}
	return name
}

// IsSupported reports whether prebuilt artifacts exist for this platform.
func (p Platform) IsSupported() bool {
	supported := map[string][]string{
		"darwin":  {"amd64", "arm64"},
		"linux":   {"amd64", "arm64"},
		"windows": {"amd64", "arm64"},
	}
	for _, arch := range supported[p.OS] {
		if p.Arch == arch {
			return true
		}
	}
	return false
}
