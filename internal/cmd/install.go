package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/railguard-dev/railguard/internal/hooks"
	"github.com/railguard-dev/railguard/internal/paths"
)

func newInstallHooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install-hooks",
		Short: "Install railguard hooks into detected AI assistants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			binaryPath, err := paths.ExecutablePath()
			if err != nil {
				return err
			}
			registry, err := hooks.NewRegistry()
			if err != nil {
				return fmt.Errorf("locate home directory: %w", err)
			}

			installed := 0
			for _, provider := range registry.All() {
				if !provider.Detect() {
					continue
				}
				if err := provider.Install(binaryPath); err != nil {
					return fmt.Errorf("install hooks for %s: %w", provider.DisplayName(), err)
				}
				fmt.Printf("Installed hooks for %s\n", provider.DisplayName())
				installed++
			}
			if installed == 0 {
				fmt.Println("No supported AI assistants detected")
			}
			return nil
		},
	}
}
