package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/railguard-dev/railguard/internal/hooks"
	"github.com/railguard-dev/railguard/internal/paths"
	"github.com/railguard-dev/railguard/internal/upgrade"
)

// statusReport is the structured result of the status command.
type statusReport struct {
	Version     string   `json:"version" yaml:"version"`
	Executable  string   `json:"executable" yaml:"executable"`
	ConfigDir   string   `json:"config_dir" yaml:"config_dir"`
	DataDir     string   `json:"data_dir" yaml:"data_dir"`
	Hooks       []string `json:"hooks" yaml:"hooks"`
	LastPoll    string   `json:"last_poll" yaml:"last_poll"`
	LastUpgrade string   `json:"last_upgrade" yaml:"last_upgrade"`
}

func (r statusReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "railguard %s\n", r.Version)
	fmt.Fprintf(&b, "Executable:   %s\n", r.Executable)
	fmt.Fprintf(&b, "Config:       %s\n", r.ConfigDir)
	fmt.Fprintf(&b, "Data:         %s\n", r.DataDir)
	if len(r.Hooks) == 0 {
		b.WriteString("Hooks:        none installed\n")
	} else {
		fmt.Fprintf(&b, "Hooks:        %s\n", strings.Join(r.Hooks, ", "))
	}
	fmt.Fprintf(&b, "Last poll:    %s\n", r.LastPoll)
	fmt.Fprintf(&b, "Last upgrade: %s", r.LastUpgrade)
	return b.String()
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show install locations, hook status, and upgrade history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writer, err := newWriter()
			if err != nil {
				return err
			}

			locations, err := paths.Resolve()
			if err != nil {
				return err
			}
			registry, err := hooks.NewRegistry()
			if err != nil {
				return fmt.Errorf("locate home directory: %w", err)
			}

			report := statusReport{
				Version:     toolVersion,
				Executable:  locations.Executable,
				ConfigDir:   locations.ConfigDir,
				DataDir:     locations.DataDir,
				LastPoll:    "never",
				LastUpgrade: "never",
			}
			for _, provider := range registry.WithHooks() {
				report.Hooks = append(report.Hooks, provider.DisplayName())
			}

			state := upgrade.LoadState(locations.DataDir)
			if state.LastPoll > 0 {
				report.LastPoll = time.Unix(state.LastPoll, 0).Format(time.RFC3339)
			}
			if state.LastUpgrade > 0 {
				report.LastUpgrade = time.Unix(state.LastUpgrade, 0).Format(time.RFC3339)
			}

			return writer.Write(report)
		},
	}
}
