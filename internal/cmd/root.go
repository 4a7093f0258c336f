package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/railguard-dev/railguard/internal/logging"
	"github.com/railguard-dev/railguard/internal/paths"
)

var (
	// Global flags
	outputFormat string
	verbose      bool

	// Build metadata injected through Execute.
	toolVersion = "dev"
	toolCommit  = "none"
	toolDate    = "unknown"
)

func Execute(version, commit, date string) error {
	toolVersion = version
	toolCommit = commit
	toolDate = date

	rootCmd := &cobra.Command{
		Use:   "railguard",
		Short: "Tool-invocation guardrails for AI coding assistants",
		Long: `railguard intercepts AI coding-assistant tool invocations, checks them
against your team's policy service, and manages its own installed lifecycle.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Logging must never create the data directory: an uninstall
			// that just removed it would otherwise bring it back.
			dataDir, err := paths.DataDir()
			if err != nil {
				dataDir = ""
			}
			logger, _ := logging.New(dataDir, verbose)
			log.SetDefault(logger)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(newUpgradeCmd())
	rootCmd.AddCommand(newUninstallHooksCmd())
	rootCmd.AddCommand(newUninstallAllCmd())
	rootCmd.AddCommand(newInstallHooksCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())
	for _, c := range newCallbackCmds() {
		rootCmd.AddCommand(c)
	}

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd.Execute()
}
