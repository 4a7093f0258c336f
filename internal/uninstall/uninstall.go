// Package uninstall orchestrates hook removal and install teardown.
//
// Two modes exist. Hooks-only removes railguard's hook entries from the AI
// assistants and keeps everything else in place. Full additionally deletes the
// binary, the configuration directory, the data directory, the upgrade lock
// file, and any leftover upgrade artifacts. Every component is attempted
// independently: a symlink refusal or permission failure on one never stops
// the others, and the aggregate exit code goes non-zero only at the end.
package uninstall

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/railguard-dev/railguard/internal/hooks"
	"github.com/railguard-dev/railguard/internal/output"
	"github.com/railguard-dev/railguard/internal/paths"
	"github.com/railguard-dev/railguard/internal/safefs"
	"github.com/railguard-dev/railguard/internal/selfdelete"
	"github.com/railguard-dev/railguard/internal/upgrade"
)

// Component identifies one independently-removable piece of the installation.
type Component string

const (
	ComponentHooks     Component = "hooks"
	ComponentBinary    Component = "binary"
	ComponentConfig    Component = "config"
	ComponentData      Component = "data"
	ComponentLockFile  Component = "lock-file"
	ComponentTempFiles Component = "temp-files"
)

// ComponentResult is the outcome of one component's removal attempt.
type ComponentResult struct {
	Component Component      `json:"component" yaml:"component"`
	Outcome   safefs.Outcome `json:"outcome" yaml:"outcome"`
	Detail    string         `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Report aggregates an uninstall run.
type Report struct {
	Mode       string            `json:"mode" yaml:"mode"`
	Components []ComponentResult `json:"components" yaml:"components"`
	Retained   []string          `json:"retained,omitempty" yaml:"retained,omitempty"`
}

// OK reports whether every component ended Removed or AlreadyAbsent.
func (r *Report) OK() bool {
	for _, c := range r.Components {
		if !c.Outcome.OK() {
			return false
		}
	}
	return true
}

func (r *Report) add(component Component, outcome safefs.Outcome, detail string) {
	r.Components = append(r.Components, ComponentResult{
		Component: component,
		Outcome:   outcome,
		Detail:    detail,
	})
}

// HookRegistry is the slice of the hook-provider registry the orchestrator
// needs. *hooks.Registry satisfies it.
type HookRegistry interface {
	WithHooks() []hooks.Provider
	RemoveAll() []hooks.RemovalResult
}

// Orchestrator runs the uninstall modes.
type Orchestrator struct {
	registry HookRegistry
	deleter  selfdelete.Capability
	out      *output.Writer
}

// New builds an orchestrator. out carries the per-component progress lines;
// they only render in text mode.
func New(registry HookRegistry, deleter selfdelete.Capability, out *output.Writer) *Orchestrator {
	return &Orchestrator{registry: registry, deleter: deleter, out: out}
}

// RemoveHooks is the hooks-only mode: hooks go, everything else is retained
// and reported as such.
func (o *Orchestrator) RemoveHooks() *Report {
	report := &Report{Mode: "hooks-only"}
	o.removeHooks(report)
	o.reportRetained(report)
	return report
}

// RemoveAll is the full mode. Each component is resolved and removed on its
// own; a bad binary-location override degrades only the components under that
// directory and config/data teardown still proceeds. The upgrade lock file is
// treated as an ordinary file here, never acquired as a lock, so a concurrent
// upgrade can not deadlock an uninstall.
func (o *Orchestrator) RemoveAll() *Report {
	report := &Report{Mode: "full"}

	o.removeHooks(report)

	binDir, binErr := paths.BinDir()
	if binErr != nil {
		detail := binErr.Error()
		report.add(ComponentBinary, safefs.Failed, detail)
		report.add(ComponentLockFile, safefs.Failed, detail)
		report.add(ComponentTempFiles, safefs.Failed, detail)
		o.out.Line("Binary location invalid: %v", binErr)
	} else {
		o.removeBinary(report, binDir)
		o.removeLockFile(report, binDir)
		o.sweepTempFiles(report, binDir)
	}

	o.removeDir(report, ComponentConfig, "Configuration", paths.ConfigDir)
	o.removeDir(report, ComponentData, "Data directory", paths.DataDir)

	if report.OK() {
		o.out.Line("Full cleanup complete")
	} else {
		o.out.Line("Cleanup finished with failures, see above")
	}
	return report
}

func (o *Orchestrator) removeHooks(report *Report) {
	withHooks := o.registry.WithHooks()
	if len(withHooks) == 0 {
		report.add(ComponentHooks, safefs.AlreadyAbsent, "")
		o.out.Line("No hooks are currently installed")
		return
	}

	outcome := safefs.Removed
	var failed []string
	for _, result := range o.registry.RemoveAll() {
		if result.Err != nil {
			outcome = safefs.Failed
			failed = append(failed, fmt.Sprintf("%s: %v", result.DisplayName, result.Err))
			o.out.Line("Failed to remove hooks from %s: %v", result.DisplayName, result.Err)
			continue
		}
		o.out.Line("Removed hooks from %s", result.DisplayName)
	}

	var detail string
	if len(failed) > 0 {
		detail = fmt.Sprintf("%d provider(s) failed", len(failed))
	}
	report.add(ComponentHooks, outcome, detail)
}

func (o *Orchestrator) removeBinary(report *Report, binDir string) {
	exe := filepath.Join(binDir, paths.ToolName)
	if runtime.GOOS == "windows" {
		exe += ".exe"
	}
	outcome, err := o.deleter.Remove(exe)
	report.add(ComponentBinary, outcome, errDetail(err))
	o.lineFor(outcome, "Binary removed", "Binary already absent", "Binary", err)
}

func (o *Orchestrator) removeLockFile(report *Report, binDir string) {
	outcome, err := safefs.RemoveFile(filepath.Join(binDir, paths.LockFileName))
	report.add(ComponentLockFile, outcome, errDetail(err))
	o.lineFor(outcome, "Lock file removed", "Lock file already absent", "Lock file", err)
}

func (o *Orchestrator) sweepTempFiles(report *Report, binDir string) {
	removed, blocked := upgrade.SweepArtifacts(binDir)
	switch {
	case blocked > 0:
		report.add(ComponentTempFiles, safefs.Failed, fmt.Sprintf("%d artifact(s) could not be removed", blocked))
		o.out.Line("Failed to remove %d upgrade artifact(s)", blocked)
	case removed > 0:
		report.add(ComponentTempFiles, safefs.Removed, fmt.Sprintf("%d artifact(s)", removed))
		o.out.Line("Removed %d upgrade artifact(s)", removed)
	default:
		report.add(ComponentTempFiles, safefs.AlreadyAbsent, "")
	}
}

func (o *Orchestrator) removeDir(report *Report, component Component, label string, resolve func() (string, error)) {
	dir, err := resolve()
	if err != nil {
		report.add(component, safefs.Failed, err.Error())
		o.out.Line("%s location invalid: %v", label, err)
		return
	}
	outcome, err := safefs.RemoveDirAll(dir)
	report.add(component, outcome, errDetail(err))
	o.lineFor(outcome, label+" removed", label+" already absent", label, err)
}

func (o *Orchestrator) reportRetained(report *Report) {
	for _, loc := range []struct {
		label   string
		resolve func() (string, error)
	}{
		{"Binary", paths.ExecutablePath},
		{"Configuration", paths.ConfigDir},
		{"Data directory", paths.DataDir},
	} {
		path, err := loc.resolve()
		if err != nil {
			continue
		}
		report.Retained = append(report.Retained, path)
		o.out.Line("%s retained at %s", loc.label, path)
	}
}

func (o *Orchestrator) lineFor(outcome safefs.Outcome, removed, absent, label string, err error) {
	switch outcome {
	case safefs.Removed:
		o.out.Line("%s", removed)
	case safefs.AlreadyAbsent:
		o.out.Line("%s", absent)
	case safefs.Refused:
		o.out.Line("%s removal refused: %v", label, err)
	default:
		o.out.Line("%s removal failed: %v", label, err)
	}
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
