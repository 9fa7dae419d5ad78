package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/pharmint/internal/classify"
	"github.com/ShayCichocki/pharmint/internal/decompose"
	"github.com/ShayCichocki/pharmint/internal/format"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <query>",
	Short: "Show the entities, intent and plan for a query",
	Long: `Classify a query without running any analysis.

Prints the extracted subject, condition and category, the intent with
the keyword that selected it, and the worklist that run would dispatch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := classify.Classify(strings.Join(args, " "))
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, format.Classification(tableMode(), c, decompose.Decompose(c.Intent)))
		fmt.Fprintln(out, faintStyle.Render(c.Reason))
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the intent to worklist table",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := decompose.Table()
		for _, row := range rows {
			if err := decompose.Validate(row.Worklist).Err(); err != nil {
				return fmt.Errorf("decomposition table: %w", err)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), format.Plan(tableMode(), rows))
		return nil
	},
}
