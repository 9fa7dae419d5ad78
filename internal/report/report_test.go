package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ShayCichocki/pharmint/pkg/models"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func clock() time.Time { return fixedNow }

// newState builds a classified, planned state with results for done.
func newState(t *testing.T, worklist []models.WorkerID, done map[models.WorkerID]models.ResultEnvelope) *models.RequestState {
	t.Helper()
	s := models.NewRequestState("Search for repurposing opportunities for aspirin", "")
	require.NoError(t, s.Classify(models.Entities{Subject: "Aspirin"}, models.IntentOpportunity))
	require.NoError(t, s.Plan(worklist))
	for _, id := range worklist {
		if env, ok := done[id]; ok {
			require.NoError(t, s.Record(id, env))
		}
	}
	return s
}

func TestNewDocument_Sections(t *testing.T) {
	s := newState(t, []models.WorkerID{models.WorkerMarket, models.WorkerTrade}, map[models.WorkerID]models.ResultEnvelope{
		models.WorkerMarket: models.Success("market ok", map[string]any{"market_trend": "stable"}),
		models.WorkerTrade:  models.Failure("No trade data found for Aspirin", nil),
	})

	doc := NewDocument(s, fixedNow)
	require.Len(t, doc.Sections, 6)
	assert.Equal(t, "Aspirin", doc.Subject)
	assert.False(t, doc.Partial)

	assert.Equal(t, "Market Intelligence", doc.Sections[0].Title)
	assert.Equal(t, []Field{{Label: "Market Trend", Value: "stable"}}, doc.Sections[0].Fields)
	assert.Equal(t, models.StatusError, doc.Sections[1].Status)
	for _, sec := range doc.Sections[2:] {
		assert.True(t, sec.Missing, sec.Title)
	}
}

func TestNewDocument_Truncation(t *testing.T) {
	long := strings.Repeat("a", 600)
	items := []any{strings.Repeat("b", 80), "two", "three", "four", "five", "six"}
	s := newState(t, []models.WorkerID{models.WorkerWeb}, map[models.WorkerID]models.ResultEnvelope{
		models.WorkerWeb: models.Success(long, map[string]any{
			"note":     strings.Repeat("c", 300),
			"news":     items,
			"zero":     0,
			"empty":    "",
			"none":     []any{},
			"nested":   map[string]any{"x": 1},
			"status":   "ignored",
			"flag_off": false,
		}),
	})

	sec := NewDocument(s, fixedNow).Sections[5]
	assert.Equal(t, SummaryLimit+3, len(sec.Summary))
	assert.True(t, strings.HasSuffix(sec.Summary, "..."))

	require.Len(t, sec.Fields, 2)
	assert.Equal(t, "News", sec.Fields[0].Label)
	assert.Equal(t, strings.Repeat("b", 50)+", two, three, four, five", sec.Fields[0].Value)
	assert.Equal(t, "Note", sec.Fields[1].Label)
	assert.Len(t, sec.Fields[1].Value, FieldLimit)
}

func TestSubject(t *testing.T) {
	tests := []struct {
		in   models.Entities
		want string
	}{
		{models.Entities{Subject: "XR-17", Category: "oncology"}, "XR-17"},
		{models.Entities{Category: "oncology"}, "Oncology"},
		{models.Entities{Condition: "Chronic Kidney Disease"}, "Chronic Kidney Disease"},
		{models.Entities{}, "Query"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Subject(tt.in))
	}
}

func TestMarkdown(t *testing.T) {
	s := newState(t, []models.WorkerID{models.WorkerMarket}, map[models.WorkerID]models.ResultEnvelope{
		models.WorkerMarket: models.Success("Market analysis for Aspirin", map[string]any{"competitors": []any{"Bayer"}}),
	})
	md := NewDocument(s, fixedNow).Markdown()

	assert.True(t, strings.HasPrefix(md, "# Pharmaceutical Intelligence Report\n"))
	assert.Contains(t, md, "- **Generated:** 2025-03-14 09:26:53")
	assert.Contains(t, md, "- **Molecule/Therapy Area:** Aspirin")
	assert.Contains(t, md, "## Market Intelligence\n\n**Summary:** Market analysis for Aspirin\n\n- **Competitors:** Bayer\n")
	assert.Contains(t, md, "## Web Intelligence\n\n"+NoData)
}

func TestBuilder_Formats(t *testing.T) {
	s := newState(t, []models.WorkerID{models.WorkerMarket}, map[models.WorkerID]models.ResultEnvelope{
		models.WorkerMarket: models.Success("Market analysis for Aspirin", nil),
	})

	tests := []struct {
		format models.ArtifactFormat
		check  func(t *testing.T, art models.Artifact)
	}{
		{models.FormatMarkdown, func(t *testing.T, art models.Artifact) {
			assert.Contains(t, art.Content, "# Pharmaceutical Intelligence Report")
		}},
		{models.FormatText, func(t *testing.T, art models.Artifact) {
			assert.Contains(t, art.Content, "PHARMACEUTICAL INTELLIGENCE REPORT")
			assert.Contains(t, art.Content, "MARKET INTELLIGENCE\nSummary: Market analysis for Aspirin")
		}},
		{models.FormatHTML, func(t *testing.T, art models.Artifact) {
			assert.Contains(t, art.Content, "<h1>Pharmaceutical Intelligence Report</h1>")
			assert.Contains(t, art.Content, "<title>Pharmaceutical Intelligence Report: Aspirin</title>")
		}},
		{models.FormatXLSX, func(t *testing.T, art models.Artifact) {
			data, err := os.ReadFile(art.Path)
			require.NoError(t, err)
			f, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer f.Close()
			title, err := f.GetCellValue(SheetName, "A1")
			require.NoError(t, err)
			assert.Equal(t, Title, title)
			subject, err := f.GetCellValue(SheetName, "B4")
			require.NoError(t, err)
			assert.Equal(t, "Aspirin", subject)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			dir := t.TempDir()
			b := NewBuilder(Config{Format: tt.format, Dir: dir, Write: true, Now: clock}, nil)
			art := b.Finalize(context.Background(), s)

			require.False(t, art.Degraded)
			assert.Equal(t, tt.format, art.Format)
			assert.Equal(t, fixedNow, art.GeneratedAt)
			assert.Equal(t,
				filepath.Join(dir, "pharma_intelligence_report_Aspirin_20250314_092653"+tt.format.Extension()),
				art.Path)
			assert.FileExists(t, art.Path)
			tt.check(t, art)
		})
	}
}

func TestBuilder_NoWrite(t *testing.T) {
	s := newState(t, []models.WorkerID{models.WorkerMarket}, nil)
	art := NewBuilder(Config{Format: models.FormatMarkdown, Now: clock}, nil).Finalize(context.Background(), s)

	assert.Empty(t, art.Path)
	assert.NotEmpty(t, art.Content)
	assert.True(t, art.Partial)
}

func TestBuilder_InvalidFormatFallsBackToMarkdown(t *testing.T) {
	b := NewBuilder(Config{Format: "pdf", Now: clock}, nil)
	art := b.Finalize(context.Background(), newState(t, []models.WorkerID{models.WorkerWeb}, nil))
	assert.Equal(t, models.FormatMarkdown, art.Format)
}

func TestBuilder_DegradesOnWriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	s := newState(t, []models.WorkerID{models.WorkerMarket}, map[models.WorkerID]models.ResultEnvelope{
		models.WorkerMarket: models.Success("m", nil),
	})
	b := NewBuilder(Config{Format: models.FormatMarkdown, Dir: filepath.Join(blocker, "reports"), Write: true, Now: clock}, nil)
	art := b.Finalize(context.Background(), s)

	assert.True(t, art.Degraded)
	assert.Equal(t, models.FormatText, art.Format)
	assert.Equal(t,
		"Analysis completed for: Search for repurposing opportunities for aspirin\nTimestamp: 2025-03-14 09:26:53\n"+DegradedNotice,
		art.Content)
	assert.False(t, art.Partial)
}

func TestBuilder_PartialReport(t *testing.T) {
	s := newState(t,
		[]models.WorkerID{models.WorkerMarket, models.WorkerTrade, models.WorkerPatent},
		map[models.WorkerID]models.ResultEnvelope{models.WorkerMarket: models.Success("m", nil)})

	art := NewBuilder(Config{Format: models.FormatMarkdown, Now: clock}, nil).Finalize(context.Background(), s)
	assert.True(t, art.Partial)
	assert.Contains(t, art.Summary, "Analysis stopped early: 1 of 3 planned analyses completed.")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "pharma_intelligence_report_Chronic_Kidney_Disease_20250314_092653.html",
		Filename("Chronic Kidney Disease", fixedNow, models.FormatHTML))
	assert.Equal(t, "pharma_intelligence_report_a_b_20250314_092653.md",
		Filename("a/b", fixedNow, models.FormatMarkdown))
	assert.Equal(t, "pharma_intelligence_report_"+strings.Repeat("x", 30)+"_20250314_092653.txt",
		Filename(strings.Repeat("x", 40), fixedNow, models.FormatText))
}

func TestDigest(t *testing.T) {
	s := newState(t,
		[]models.WorkerID{models.WorkerInternal, models.WorkerWeb, models.WorkerMarket},
		map[models.WorkerID]models.ResultEnvelope{
			models.WorkerInternal: models.Success(strings.Repeat("i", 250), nil),
			models.WorkerWeb:      {Status: models.StatusError},
		})

	got := Digest(s, models.Artifact{Path: "/tmp/reports/r.md"})
	want := "Internal Docs: " + strings.Repeat("i", 200) + "...\n\n" +
		"Web Intelligence: Error\n\n" +
		"Market Analysis: Not run\n\n" +
		"Report generated: r.md"
	assert.Equal(t, want, got)
}

func TestDigest_NoWorkers(t *testing.T) {
	s := newState(t, nil, nil)
	assert.Equal(t, "Analysis completed successfully.\n\nReport generation completed.", Digest(s, models.Artifact{}))
}

func TestDigest_Degraded(t *testing.T) {
	s := newState(t, nil, nil)
	art := Degraded(s, fixedNow)
	assert.True(t, strings.HasSuffix(Digest(s, art), DegradedNotice))
}
