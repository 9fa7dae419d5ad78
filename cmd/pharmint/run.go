package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/pharmint/pkg/models"
)

var (
	runAttach   string
	runFormat   string
	runOut      string
	runNoWrite  bool
	runVerbose  bool
	runExamples bool
)

var runCmd = &cobra.Command{
	Use:   "run <query>",
	Short: "Run one research query",
	Long: `Run one research query end to end.

The query is classified into an intent, planned into an ordered list of
analyses, each analysis runs once in order, and a report is compiled.

Report formats (--format): markdown, text, html, xlsx.
Reports are written to report.dir unless --no-write is given, in which
case the rendered report is printed.

Use --attach to include a markdown or text document in the internal
document analysis.`,
	RunE: runQuery,
}

func init() {
	runCmd.Flags().StringVar(&runAttach, "attach", "", "Internal document to analyze (markdown or text)")
	runCmd.Flags().StringVar(&runFormat, "format", "", "Report format: markdown, text, html or xlsx (default from config)")
	runCmd.Flags().StringVar(&runOut, "out", "", "Report directory (default from config)")
	runCmd.Flags().BoolVar(&runNoWrite, "no-write", false, "Print the report instead of writing it")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Show the dispatch timeline")
	runCmd.Flags().BoolVar(&runExamples, "examples", false, "List example queries and exit")
}

func runQuery(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if runExamples {
		printExamples(out)
		return nil
	}
	if len(args) == 0 {
		return errors.New("a query is required (see --examples)")
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	rc := a.reportConfig()
	if runFormat != "" {
		rc.Format = models.ArtifactFormat(strings.ToLower(runFormat))
		if !rc.Format.Valid() {
			return fmt.Errorf("unknown report format %q", runFormat)
		}
	}
	if runOut != "" {
		rc.Dir = runOut
	}
	if runNoWrite {
		rc.Write = false
	}

	res, err := a.execute(cmd.Context(), runOptions{
		Query:  strings.Join(args, " "),
		Attach: runAttach,
		Report: rc,
		Trace:  runVerbose,
	})
	if err != nil {
		return err
	}

	renderResult(out, res, runVerbose)
	if !rc.Write && rc.Format != models.FormatXLSX {
		renderArtifact(out, res.Outcome.Artifact)
	}
	return nil
}
