package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/ShayCichocki/pharmint/internal/format"
	"github.com/ShayCichocki/pharmint/internal/report"
	"github.com/ShayCichocki/pharmint/pkg/models"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	digestStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	faintStyle = lipgloss.NewStyle().Faint(true)
)

// exampleQueries are offered by run --examples and the interactive prompt.
var exampleQueries = []string{
	"Which respiratory diseases show low competition but high patient burden in India?",
	"Analyze market opportunity for repurposing metformin for cancer treatment",
	"What are the patent expiry timelines for statin drugs?",
	"Find clinical trials for diabetes drugs in Phase 3",
	"Analyze trade flows for paracetamol API",
	"What are the unmet needs in cardiovascular therapy area?",
	"Search for repurposing opportunities for aspirin",
	"Analyze FTO risks for developing a new formulation of ibuprofen",
	"What are the market trends for oncology drugs in India?",
	"Find opportunities for developing extended-release formulations",
}

// printStatus prints a status line with color
func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}

func printExamples(w io.Writer) {
	fmt.Fprintln(w, headingStyle.Render("Example queries"))
	for i, q := range exampleQueries {
		fmt.Fprintf(w, "%2d. %s\n", i+1, q)
	}
}

// renderResult writes the per-worker status lines, the digest and the
// report location for one run.
func renderResult(w io.Writer, res *runResult, verbose bool) {
	out := res.Outcome
	state := out.State
	entities := state.Entities()

	fmt.Fprintln(w, headingStyle.Render(report.Title+": "+report.Subject(entities)))
	fmt.Fprintln(w, faintStyle.Render(fmt.Sprintf("request %s · intent %s · plan %s",
		out.RequestID, state.Intent(), format.Worklist(state.Worklist()))))

	for _, id := range state.Worklist() {
		env, ok := state.Result(id)
		switch {
		case !ok:
			printStatus(w, "✗", id.Title()+": not run", color.FgRed)
		case env.OK():
			printStatus(w, "✓", id.Title(), color.FgGreen)
		default:
			printStatus(w, "⚠", id.Title()+": "+env.Summary, color.FgYellow)
		}
	}
	if out.Fault != nil {
		printStatus(w, "✗", "Aborted: "+out.Fault.Error(), color.FgRed)
	}

	fmt.Fprintln(w, digestStyle.Render(report.Digest(state, out.Artifact)))

	art := out.Artifact
	switch {
	case art.Degraded:
		printStatus(w, "⚠", "Report degraded to text", color.FgYellow)
	case art.Path != "":
		printStatus(w, "✓", fmt.Sprintf("Report written to %s (%s)", art.Path, art.Format), color.FgGreen)
	}

	if verbose {
		fmt.Fprintln(w, format.Timeline(tableMode(), res.Events))
		if res.Dropped > 0 {
			printStatus(w, "⚠", fmt.Sprintf("%d events dropped", res.Dropped), color.FgYellow)
		}
		fmt.Fprintf(w, "%s %d steps, phase %s\n", faintStyle.Render("›"), out.Steps, out.Phase)
	}
}

// renderArtifact prints the report body when it was not written to disk.
func renderArtifact(w io.Writer, art models.Artifact) {
	if art.Path != "" || strings.TrimSpace(art.Content) == "" {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, art.Content)
}
