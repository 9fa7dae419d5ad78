package format

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ShayCichocki/pharmint/internal/catalog"
	"github.com/ShayCichocki/pharmint/internal/classify"
	"github.com/ShayCichocki/pharmint/internal/decompose"
	"github.com/ShayCichocki/pharmint/internal/orchestrator"
	"github.com/ShayCichocki/pharmint/pkg/models"
)

const none = "-"

// Classification renders the entities, intent and worklist for one query.
func Classification(m Mode, c classify.Classification, worklist []models.WorkerID) string {
	t := NewTable(m)
	t.Header("Field", "Value")
	t.Row("Subject", orNone(c.Entities.Subject))
	t.Row("Subject source", string(c.SubjectSource))
	t.Row("Condition", orNone(c.Entities.Condition))
	t.Row("Category", orNone(c.Entities.Category))
	t.Row("Intent", string(c.Intent))
	t.Row("Matched keyword", orNone(c.MatchedKeyword))
	t.Row("Worklist", Worklist(worklist))
	return t.String()
}

// Plan renders the decomposition table.
func Plan(m Mode, rows []decompose.Row) string {
	t := NewTable(m)
	t.Header("Intent", "Worklist", "Workers")
	for _, row := range rows {
		intents := make([]string, len(row.Intents))
		for i, in := range row.Intents {
			intents[i] = string(in)
		}
		t.Row(strings.Join(intents, ", "), Worklist(row.Worklist), len(row.Worklist))
	}
	t.Columns(ColumnConfig{Number: 3, Align: AlignRight})
	return t.String()
}

// Records renders catalog entries as key plus field names.
func Records(m Mode, table catalog.Table, keys []string, records map[string]catalog.Record) string {
	t := NewTable(m)
	t.Title(fmt.Sprintf("%s (%d)", table, len(keys)))
	t.Header("Key", "Fields")
	for _, k := range keys {
		t.Row(k, orNone(strings.Join(fieldNames(records[k]), ", ")))
	}
	t.Columns(ColumnConfig{Number: 2, MaxWidth: 60})
	return t.String()
}

// Timeline renders worker events in arrival order.
func Timeline(m Mode, events []orchestrator.Event) string {
	t := NewTable(m)
	t.Header("#", "Event", "Worker", "Status", "Phase", "Took")
	for i, e := range events {
		t.Row(i+1, string(e.Type), orNone(string(e.Worker)), orNone(string(e.Status)), string(e.Phase), Duration(e.Duration))
	}
	t.Columns(
		ColumnConfig{Number: 1, Align: AlignRight},
		ColumnConfig{Number: 6, Align: AlignRight},
	)
	return t.String()
}

// Worklist joins ids with arrows, or "-" for an empty list.
func Worklist(ids []models.WorkerID) string {
	if len(ids) == 0 {
		return none
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, " → ")
}

// Duration formats d as milliseconds with one decimal, or "-" for zero.
func Duration(d time.Duration) string {
	if d <= 0 {
		return none
	}
	if d >= time.Second {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
}

// Truncate shortens s to max runes, appending "..." if truncated.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func fieldNames(rec catalog.Record) []string {
	names := make([]string, 0, len(rec))
	for k := range rec {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func orNone(s string) string {
	if s == "" {
		return none
	}
	return s
}
