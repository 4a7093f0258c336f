package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/railguard-dev/railguard/internal/paths"
)

// hookEvent is the settings event railguard attaches to: it fires before the
// assistant executes a tool so the invocation can be authorized remotely.
const hookEvent = "PreToolUse"

// settingsProvider implements Provider for assistants that keep their hook
// configuration in a JSON settings file under a per-tool dot directory
// (Claude Code, Cursor, and Gemini CLI all share this shape).
type settingsProvider struct {
	id       string
	name     string
	dir      string // the tool's dot directory, e.g. ~/.claude
	callback string // railguard subcommand the hook invokes
}

func newSettingsProvider(id, name, dir, callback string) *settingsProvider {
	return &settingsProvider{id: id, name: name, dir: dir, callback: callback}
}

func (p *settingsProvider) ID() string          { return p.id }
func (p *settingsProvider) DisplayName() string { return p.name }

func (p *settingsProvider) settingsPath() string {
	return filepath.Join(p.dir, "settings.json")
}

func (p *settingsProvider) Detect() bool {
	info, err := os.Stat(p.dir)
	return err == nil && info.IsDir()
}

func (p *settingsProvider) HooksInstalled() bool {
	settings, err := p.load()
	if err != nil {
		return false
	}
	for _, group := range hookGroups(settings) {
		if groupHasRailguard(group) {
			return true
		}
	}
	return false
}

// Install adds a PreToolUse hook entry invoking the railguard binary by
// absolute path, so the hook keeps working whether or not the binary
// directory is on PATH. Idempotent: an existing railguard entry is left
// as is.
func (p *settingsProvider) Install(binaryPath string) error {
	if !p.Detect() {
		return fmt.Errorf("%s is not installed (no %s)", p.name, p.dir)
	}
	if p.HooksInstalled() {
		return nil
	}

	settings, err := p.load()
	if err != nil {
		return err
	}
	if settings == nil {
		settings = map[string]any{}
	}

	hooksSection, _ := settings["hooks"].(map[string]any)
	if hooksSection == nil {
		hooksSection = map[string]any{}
		settings["hooks"] = hooksSection
	}
	groups, _ := hooksSection[hookEvent].([]any)
	groups = append(groups, map[string]any{
		"matcher": "*",
		"hooks": []any{
			map[string]any{
				"type":    "command",
				"command": binaryPath + " " + p.callback,
			},
		},
	})
	hooksSection[hookEvent] = groups

	return p.save(settings)
}

// Remove strips every hook command that invokes railguard, leaving all other
// hooks and settings untouched. A missing settings file means there is
// nothing to remove.
func (p *settingsProvider) Remove() error {
	settings, err := p.load()
	if err != nil {
		return err
	}
	if settings == nil {
		return nil
	}

	hooksSection, _ := settings["hooks"].(map[string]any)
	if hooksSection == nil {
		return nil
	}
	groups, _ := hooksSection[hookEvent].([]any)

	var kept []any
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok || !groupHasRailguard(group) {
			kept = append(kept, g)
			continue
		}
		if pruned := pruneRailguard(group); pruned != nil {
			kept = append(kept, pruned)
		}
	}

	if len(kept) == 0 {
		delete(hooksSection, hookEvent)
	} else {
		hooksSection[hookEvent] = kept
	}
	if len(hooksSection) == 0 {
		delete(settings, "hooks")
	}

	return p.save(settings)
}

// load parses the settings file; a missing file yields (nil, nil).
func (p *settingsProvider) load() (map[string]any, error) {
	data, err := os.ReadFile(p.settingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", p.settingsPath(), err)
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.settingsPath(), err)
	}
	return settings, nil
}

func (p *settingsProvider) save(settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	path := p.settingsPath()
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// hookGroups returns the matcher groups under our event, tolerating any
// shape deviations in the user's file.
func hookGroups(settings map[string]any) []map[string]any {
	if settings == nil {
		return nil
	}
	hooksSection, _ := settings["hooks"].(map[string]any)
	raw, _ := hooksSection[hookEvent].([]any)
	var groups []map[string]any
	for _, g := range raw {
		if group, ok := g.(map[string]any); ok {
			groups = append(groups, group)
		}
	}
	return groups
}

func groupHasRailguard(group map[string]any) bool {
	entries, _ := group["hooks"].([]any)
	for _, e := range entries {
		if entryIsRailguard(e) {
			return true
		}
	}
	return false
}

// pruneRailguard returns the group with railguard entries removed, or nil if
// nothing else remains.
func pruneRailguard(group map[string]any) map[string]any {
	entries, _ := group["hooks"].([]any)
	var kept []any
	for _, e := range entries {
		if !entryIsRailguard(e) {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	out := make(map[string]any, len(group))
	for k, v := range group {
		out[k] = v
	}
	out["hooks"] = kept
	return out
}

func entryIsRailguard(e any) bool {
	entry, ok := e.(map[string]any)
	if !ok {
		return false
	}
	command, _ := entry["command"].(string)
	return strings.Contains(command, paths.ToolName)
}
