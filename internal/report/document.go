// Package report turns a finished request into a report artifact: a
// markdown, text, HTML or spreadsheet rendering of every worker's result.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ShayCichocki/pharmint/pkg/models"
)

const (
	// SummaryLimit caps a section summary.
	SummaryLimit = 500
	// FieldLimit caps a scalar payload field.
	FieldLimit = 200
	// ListItems is how many list entries a section shows.
	ListItems = 5
	// ListItemLimit caps each shown list entry.
	ListItemLimit = 50
	// DigestInternalLimit caps the internal worker's summary in Digest.
	DigestInternalLimit = 200

	// NoData is shown for a section whose worker has no recorded result.
	NoData = "No data available for this section."
	// Title heads every report.
	Title = "Pharmaceutical Intelligence Report"
)

// sectionTitles are the report headings per worker, in report order.
var sectionTitles = []struct {
	id    models.WorkerID
	title string
}{
	{models.WorkerMarket, "Market Intelligence"},
	{models.WorkerTrade, "Trade Analysis"},
	{models.WorkerPatent, "Patent Landscape"},
	{models.WorkerClinical, "Clinical Trials Pipeline"},
	{models.WorkerInternal, "Internal Document Summary"},
	{models.WorkerWeb, "Web Intelligence"},
}

// Field is one labelled payload value in a section.
type Field struct {
	Label string
	Value string
}

// Section is one worker's part of the report.
type Section struct {
	Worker  models.WorkerID
	Title   string
	Status  models.Status
	Summary string
	Fields  []Field
	// Missing is set when the worker has no recorded result.
	Missing bool
}

// Document is the format-independent report content.
type Document struct {
	Title            string
	GeneratedAt      time.Time
	Query            string
	Subject          string
	ExecutiveSummary string
	Sections         []Section
	Partial          bool
}

// NewDocument assembles the report content for state.
func NewDocument(state *models.RequestState, now time.Time) Document {
	subject := Subject(state.Entities())
	doc := Document{
		Title:       Title,
		GeneratedAt: now,
		Query:       state.RawQuery(),
		Subject:     subject,
		ExecutiveSummary: fmt.Sprintf("This report provides comprehensive intelligence on %s across market dynamics, "+
			"trade flows, patent landscape, clinical development, internal insights, and web intelligence.", subject),
		Partial: !state.AllCompleted(),
	}
	if doc.Partial {
		doc.ExecutiveSummary += fmt.Sprintf(" Analysis stopped early: %d of %d planned analyses completed.",
			len(state.Completed()), len(state.Worklist()))
	}

	for _, st := range sectionTitles {
		sec := Section{Worker: st.id, Title: st.title}
		env, ok := state.Result(st.id)
		if !ok {
			sec.Missing = true
			doc.Sections = append(doc.Sections, sec)
			continue
		}
		sec.Status = env.Status
		sec.Summary = truncate(env.Summary, SummaryLimit, "...")
		sec.Fields = fields(env.Payload)
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}

// Subject picks the report subject: the entity subject, else the category,
// else the condition, else "Query".
func Subject(e models.Entities) string {
	switch {
	case e.Subject != "":
		return e.Subject
	case e.Category != "":
		return cases.Title(language.English).String(e.Category)
	case e.Condition != "":
		return e.Condition
	default:
		return "Query"
	}
}

// fields renders the displayable payload values in key order. Empty values
// and nested maps are skipped.
func fields(payload map[string]any) []Field {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k == "summary" || k == "status" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	caser := cases.Title(language.English)
	var out []Field
	for _, k := range keys {
		value, ok := fieldValue(payload[k])
		if !ok {
			continue
		}
		out = append(out, Field{
			Label: caser.String(strings.ReplaceAll(k, "_", " ")),
			Value: value,
		})
	}
	return out
}

func fieldValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		if val == "" {
			return "", false
		}
		return truncate(val, FieldLimit, ""), true
	case bool:
		return fmt.Sprint(val), val
	case int, int64, uint64, float64:
		s := fmt.Sprint(val)
		return s, s != "0"
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return listValue(items)
	case []any:
		return listValue(val)
	default:
		return "", false
	}
}

func listValue(items []any) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	if len(items) > ListItems {
		items = items[:ListItems]
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = truncate(fmt.Sprint(item), ListItemLimit, "")
	}
	return strings.Join(parts, ", "), true
}

// truncate cuts s to n runes, appending suffix when it cut.
func truncate(s string, n int, suffix string) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + suffix
}
