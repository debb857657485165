package commands

import (
	"github.com/sdpower/token-savings-go/internal/output"
	"github.com/spf13/cobra"
)

func newDailyCommand(g *globalOptions) *cobra.Command {
	return newGranularityCommand(g,
		"daily",
		"Generate daily savings report",
		`Generate a per-day savings report with a breakdown of every summary logged that day.`,
		output.GranularityDaily,
	)
}

func newFilesCommand(g *globalOptions) *cobra.Command {
	return newGranularityCommand(g,
		"files",
		"Generate per-file savings report",
		`Generate a cumulative savings report using the latest summary of each file.`,
		output.GranularityFiles,
	)
}
