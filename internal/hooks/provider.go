// Package hooks manages railguard's hook entries in the settings of the
// supported AI coding assistants.
//
// Each assistant is a Provider. The registry is the only surface the rest of
// the tool depends on: list providers, find the ones with hooks installed,
// and remove hooks per provider with independent per-provider results.
package hooks

import (
	"os"
	"path/filepath"
)

// Provider manages hooks for one AI coding assistant.
type Provider interface {
	// ID is the stable identifier used on the command line and in reports.
	ID() string
	// DisplayName is the human-readable tool name.
	DisplayName() string
	// Detect reports whether the assistant appears to be present on this
	// machine. Detection never creates anything on disk.
	Detect() bool
	// HooksInstalled reports whether railguard hooks are currently wired
	// into the assistant's settings.
	HooksInstalled() bool
	// Install wires the hook, invoking the binary at binaryPath.
	Install(binaryPath string) error
	// Remove unwires the hook. Removing an absent hook is a no-op.
	Remove() error
}

// RemovalResult is the per-provider outcome of a hook removal pass.
type RemovalResult struct {
	ProviderID  string
	DisplayName string
	Err         error
}

// Registry holds all known providers.
type Registry struct {
	providers []Provider
}

// NewRegistry builds the registry rooted at the user's home directory.
func NewRegistry() (*Registry, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewRegistryAt(home), nil
}

// NewRegistryAt builds the registry against an explicit home directory.
// Tests use this to run against a scratch tree.
func NewRegistryAt(home string) *Registry {
	return &Registry{
		providers: []Provider{
			newSettingsProvider("claude", "Claude Code",
				filepath.Join(home, ".claude"), "claude-callback"),
			newSettingsProvider("cursor", "Cursor",
				filepath.Join(home, ".cursor"), "cursor-callback"),
			newSettingsProvider("gemini", "Gemini CLI",
				filepath.Join(home, ".gemini"), "gemini-callback"),
		},
	}
}

// All returns every registered provider.
func (r *Registry) All() []Provider {
	return r.providers
}

// Get returns the provider with the given ID, or nil.
func (r *Registry) Get(id string) Provider {
	for _, p := range r.providers {
		if p.ID() == id {
			return p
		}
	}
	return nil
}

// WithHooks returns the providers that currently have railguard hooks
// installed.
func (r *Registry) WithHooks() []Provider {
	var out []Provider
	for _, p := range r.providers {
		if p.HooksInstalled() {
			out = append(out, p)
		}
	}
	return out
}

// RemoveAll removes hooks from every provider that has them, continuing past
// individual failures and reporting each independently.
func (r *Registry) RemoveAll() []RemovalResult {
	var results []RemovalResult
	for _, p := range r.WithHooks() {
		results = append(results, RemovalResult{
			ProviderID:  p.ID(),
			DisplayName: p.DisplayName(),
			Err:         p.Remove(),
		})
	}
	return results
}
