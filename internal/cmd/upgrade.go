package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/railguard-dev/railguard/internal/paths"
	"github.com/railguard-dev/railguard/internal/upgrade"
)

func newUpgradeCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade railguard to the latest released version",
		Long: `Check the release endpoint for a newer version and install it in place.

The running binary is replaced atomically; a copy of railguard that is already
executing keeps running on the old image until it exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reinstall even if already on the latest version")

	return cmd
}

func runUpgrade(force bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate running binary: %w", err)
	}
	exePath, err = filepath.EvalSymlinks(exePath)
	if err != nil {
		return fmt.Errorf("resolve running binary: %w", err)
	}

	dataDir, err := paths.EnsureDataDir()
	if err != nil {
		return err
	}

	coordinator := upgrade.NewCoordinator(toolVersion, exePath, dataDir, cfg.UpgradeURL)
	coordinator.SetOutput(os.Stdout)

	result, err := coordinator.Run(force)
	if err != nil {
		return err
	}
	if result.Status == upgrade.StatusBusy {
		return errors.New("upgrade lock is held by another process")
	}
	if result.Status == upgrade.StatusUpToDate {
		fmt.Println("Already running the latest version.")
	}
	return nil
}
