// Package decompose maps a query intent to the ordered worklist of workers
// that should run for it.
package decompose

import "github.com/ShayCichocki/pharmint/pkg/models"

// Row is one entry of the decomposition table.
type Row struct {
	Intents  []models.Intent
	Worklist []models.WorkerID
}

var fullAnalysis = []models.WorkerID{
	models.WorkerMarket,
	models.WorkerTrade,
	models.WorkerPatent,
	models.WorkerClinical,
	models.WorkerInternal,
	models.WorkerWeb,
}

// table is the fixed intent -> worklist mapping. Rows are listed in display order.
var table = []Row{
	{
		Intents:  []models.Intent{models.IntentGeneral, models.IntentOpportunity},
		Worklist: fullAnalysis,
	},
	{
		Intents:  []models.Intent{models.IntentMarket},
		Worklist: []models.WorkerID{models.WorkerMarket, models.WorkerTrade, models.WorkerWeb},
	},
	{
		Intents:  []models.Intent{models.IntentPatent},
		Worklist: []models.WorkerID{models.WorkerPatent, models.WorkerClinical, models.WorkerWeb},
	},
	{
		Intents:  []models.Intent{models.IntentClinical},
		Worklist: []models.WorkerID{models.WorkerClinical, models.WorkerPatent, models.WorkerWeb},
	},
	{
		Intents:  []models.Intent{models.IntentTrade},
		Worklist: []models.WorkerID{models.WorkerTrade, models.WorkerMarket},
	},
}

// Decomposer turns an intent into a worklist. The zero value is ready to use.
type Decomposer struct{}

// New creates a Decomposer.
func New() *Decomposer {
	return &Decomposer{}
}

// Decompose returns the worklist for intent. The result is a fresh slice the
// caller may keep. Intents outside the enum get the full analysis, which
// cannot happen for classifier output.
func (d *Decomposer) Decompose(intent models.Intent) []models.WorkerID {
	return Decompose(intent)
}

// Decompose returns the worklist for intent using the fixed table.
func Decompose(intent models.Intent) []models.WorkerID {
	for _, row := range table {
		for _, i := range row.Intents {
			if i == intent {
				return append([]models.WorkerID(nil), row.Worklist...)
			}
		}
	}
	return append([]models.WorkerID(nil), fullAnalysis...)
}

// Table returns a copy of the decomposition table for display.
func Table() []Row {
	out := make([]Row, len(table))
	for i, row := range table {
		out[i] = Row{
			Intents:  append([]models.Intent(nil), row.Intents...),
			Worklist: append([]models.WorkerID(nil), row.Worklist...),
		}
	}
	return out
}
