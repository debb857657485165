package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the tokensavings command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "tokensavings",
		Short: "File summary token savings tracker",
		Long: `A CLI tool for recording file summarizations and reporting the tokens
and cost saved by reading summaries instead of whole files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.register(rootCmd)

	rootCmd.AddCommand(
		newRecordCommand(g),
		newFilesCommand(g),
		newDailyCommand(g),
		newMonthlyCommand(g),
		newReportCommand(g),
		newMonitorCommand(g),
		newConfigCommand(g),
	)

	return rootCmd
}
