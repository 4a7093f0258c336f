package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/railguard-dev/railguard/internal/hooks"
	"github.com/railguard-dev/railguard/internal/interactive"
	"github.com/railguard-dev/railguard/internal/output"
	"github.com/railguard-dev/railguard/internal/selfdelete"
	"github.com/railguard-dev/railguard/internal/uninstall"
)

func newUninstallHooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall-hooks",
		Aliases: []string{"uninstall"},
		Short:   "Remove railguard hooks from all AI assistants",
		Long: `Remove railguard's hook entries from every assistant that has them.

The binary, configuration, and data directory are kept, so reinstalling the
hooks later needs no other setup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writer, err := newWriter()
			if err != nil {
				return err
			}
			registry, err := hooks.NewRegistry()
			if err != nil {
				return fmt.Errorf("locate home directory: %w", err)
			}

			report := uninstall.New(registry, selfdelete.New(), writer).RemoveHooks()
			if writer.Format() != output.FormatText {
				if err := writer.Write(report); err != nil {
					return err
				}
			}
			if !report.OK() {
				return errors.New("some hooks could not be removed")
			}
			return nil
		},
	}
}

func newUninstallAllCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "uninstall-all",
		Short: "Completely remove railguard from this machine",
		Long: `Remove hooks from every assistant, then delete the railguard binary, the
configuration directory, the data directory, the upgrade lock file, and any
leftover upgrade artifacts.

Each component is removed independently: a failure on one is reported but
does not stop the others.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writer, err := newWriter()
			if err != nil {
				return err
			}

			if !yes {
				// The confirmation prompt only ever blocks on an
				// interactive stdin; anything else aborts untouched.
				if !interactive.IsTerminal() {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted (confirmation requires a terminal; pass --yes to proceed)")
					return nil
				}
				prompter := interactive.NewPrompter()
				confirmed := prompter.Confirm("Are you sure you want to uninstall railguard? This will permanently remove the binary, configuration, and all data.")
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}

			registry, err := hooks.NewRegistry()
			if err != nil {
				return fmt.Errorf("locate home directory: %w", err)
			}

			report := uninstall.New(registry, selfdelete.New(), writer).RemoveAll()
			if writer.Format() != output.FormatText {
				if err := writer.Write(report); err != nil {
					return err
				}
			}
			if !report.OK() {
				return errors.New("one or more components could not be removed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
