package format

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ShayCichocki/pharmint/internal/catalog"
	"github.com/ShayCichocki/pharmint/internal/classify"
	"github.com/ShayCichocki/pharmint/internal/decompose"
	"github.com/ShayCichocki/pharmint/internal/orchestrator"
	"github.com/ShayCichocki/pharmint/pkg/models"
)

func TestTable_ASCII(t *testing.T) {
	tb := NewTable(ASCII)
	tb.Header("Worker", "Status")
	tb.Row("market", "success")
	tb.Row("trade", "error")
	out := tb.String()

	assert.Contains(t, out, "Worker")
	assert.Contains(t, out, "market")
	assert.Contains(t, out, "───", "expected box-drawing characters")
	assert.Equal(t, 2, tb.Len())
}

func TestTable_Markdown(t *testing.T) {
	tb := NewTable(Markdown)
	tb.Header("Worker", "Calls")
	tb.Row("patent", 3)
	tb.Footer("TOTAL", 3)
	out := tb.String()

	assert.Contains(t, out, "| Worker")
	assert.Contains(t, out, "---")
	assert.Contains(t, out, "TOTAL")
	assert.NotContains(t, out, "───")
}

func TestClassification(t *testing.T) {
	c := classify.Classify("Search for repurposing opportunities for aspirin")
	out := Classification(ASCII, c, decompose.Decompose(c.Intent))

	assert.Contains(t, out, "Aspirin")
	assert.Contains(t, out, "opportunity")
	assert.Contains(t, out, "market → trade → patent → clinical → internal → web")
}

func TestPlan(t *testing.T) {
	out := Plan(Markdown, decompose.Table())

	assert.Contains(t, out, "general, opportunity")
	assert.Contains(t, out, "trade → market")
	assert.Equal(t, len(decompose.Table())+2, strings.Count(out, "\n")+1)
}

func TestRecords(t *testing.T) {
	recs := map[string]catalog.Record{
		"aspirin":   {"market_size_usd_mn": 2150, "cagr_percent": 3.2},
		"metformin": {},
	}
	out := Records(ASCII, catalog.TableMarket, []string{"aspirin", "metformin"}, recs)

	assert.Contains(t, out, "market (2)")
	assert.Contains(t, out, "cagr_percent, market_size_usd_mn")
}

func TestTimeline(t *testing.T) {
	events := []orchestrator.Event{
		{Type: orchestrator.EventWorkerStarted, Worker: models.WorkerMarket, Phase: orchestrator.PhaseRunning},
		{Type: orchestrator.EventWorkerCompleted, Worker: models.WorkerMarket, Status: models.StatusSuccess, Phase: orchestrator.PhaseRunning, Duration: 1500 * time.Microsecond},
	}
	out := Timeline(ASCII, events)

	assert.Contains(t, out, "worker_completed")
	assert.Contains(t, out, "1.5ms")
}

func TestWorklist(t *testing.T) {
	assert.Equal(t, "-", Worklist(nil))
	assert.Equal(t, "trade → market", Worklist([]models.WorkerID{models.WorkerTrade, models.WorkerMarket}))
}

func TestDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "-"},
		{300 * time.Microsecond, "0.3ms"},
		{42 * time.Millisecond, "42.0ms"},
		{2500 * time.Millisecond, "2.50s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Duration(tt.d), tt.d.String())
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "hello w...", Truncate("hello world!", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
	assert.Equal(t, "äöü...", Truncate("äöüäöüäöü", 6))
}
