package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/railguard-dev/railguard/internal/authz"
	"github.com/railguard-dev/railguard/internal/paths"
	"github.com/railguard-dev/railguard/internal/upgrade"
)

// hookInput is the event each assistant writes to the hook's stdin. Only the
// fields railguard forwards are decoded; the rest of the payload is opaque.
type hookInput struct {
	ToolName  string `json:"tool_name"`
	SessionID string `json:"session_id"`
}

// blockExitCode tells the calling assistant to refuse the tool invocation.
const blockExitCode = 2

// newCallbackCmds builds the hidden per-assistant hook entry points. These are
// what the installed hooks invoke; they are not part of the user-facing CLI.
func newCallbackCmds() []*cobra.Command {
	assistants := []struct{ id, use string }{
		{"claude", "claude-callback"},
		{"cursor", "cursor-callback"},
		{"gemini", "gemini-callback"},
	}

	var cmds []*cobra.Command
	for _, a := range assistants {
		assistant := a.id
		cmds = append(cmds, &cobra.Command{
			Use:    a.use,
			Hidden: true,
			Args:   cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				runCallback(assistant, cmd.InOrStdin())
			},
		})
	}
	return cmds
}

// runCallback authorizes one intercepted tool invocation and then gives the
// background upgrade poll a chance to run. The poll can never change the
// decision or the exit code.
func runCallback(assistant string, stdin io.Reader) {
	cfg, err := loadConfig()
	if err != nil {
		log.Warn("config unreadable in hook callback, using defaults", "error", err)
	}

	decision := decide(assistant, stdin, cfg.TeamURL, cfg.FailOpen)

	if cfg.AutoUpgrade {
		pollForUpgrade(cfg.UpgradeURL)
	}

	if !decision.Allow {
		fmt.Fprintf(os.Stderr, "railguard blocked this tool invocation: %s\n", decision.Reason)
		os.Exit(blockExitCode)
	}
}

func decide(assistant string, stdin io.Reader, teamURL string, failOpen bool) authz.Decision {
	var input hookInput
	if err := json.NewDecoder(stdin).Decode(&input); err != nil {
		// A payload railguard cannot parse is not the user's fault; never
		// brick the assistant over it.
		log.Debug("unparseable hook payload, allowing", "error", err)
		return authz.Decision{Allow: true}
	}

	client := authz.NewClient(teamURL, failOpen)
	decision, err := client.Check(context.Background(), authz.Event{
		Assistant: assistant,
		ToolName:  input.ToolName,
		SessionID: input.SessionID,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		log.Debug("authorization check degraded", "error", err)
	}
	return decision
}

// pollForUpgrade runs the silent rate-limited upgrade check. Everything is
// best effort; errors are logged and swallowed inside the coordinator.
func pollForUpgrade(upgradeURL string) {
	exePath, err := os.Executable()
	if err != nil {
		return
	}
	exePath, err = filepath.EvalSymlinks(exePath)
	if err != nil {
		return
	}
	dataDir, err := paths.EnsureDataDir()
	if err != nil {
		return
	}
	upgrade.NewCoordinator(toolVersion, exePath, dataDir, upgradeURL).Poll()
}
