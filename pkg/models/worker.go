package models

// WorkerID identifies one of the fixed data-fetching workers.
type WorkerID string

const (
	// WorkerMarket fetches market size, growth and competitors.
	WorkerMarket WorkerID = "market"
	// WorkerTrade fetches export/import volumes.
	WorkerTrade WorkerID = "trade"
	// WorkerPatent fetches the patent landscape.
	WorkerPatent WorkerID = "patent"
	// WorkerClinical fetches the clinical trial pipeline.
	WorkerClinical WorkerID = "clinical"
	// WorkerInternal summarizes internal documents.
	WorkerInternal WorkerID = "internal"
	// WorkerWeb gathers guidelines, publications and news.
	WorkerWeb WorkerID = "web"
	// WorkerReport is the terminal pseudo-worker that assembles the report.
	// It never appears in a worklist.
	WorkerReport WorkerID = "report"
)

// DataWorkers lists the data-fetching workers in canonical report order.
var DataWorkers = []WorkerID{
	WorkerMarket,
	WorkerTrade,
	WorkerPatent,
	WorkerClinical,
	WorkerInternal,
	WorkerWeb,
}

// Valid returns true if the id is a known value, including the report pseudo-worker.
func (w WorkerID) Valid() bool {
	return w.IsDataWorker() || w == WorkerReport
}

// IsDataWorker returns true for ids that may appear in a worklist.
func (w WorkerID) IsDataWorker() bool {
	switch w {
	case WorkerMarket, WorkerTrade, WorkerPatent, WorkerClinical, WorkerInternal, WorkerWeb:
		return true
	default:
		return false
	}
}

// Title returns the human-readable section name for the worker.
func (w WorkerID) Title() string {
	switch w {
	case WorkerMarket:
		return "Market Analysis"
	case WorkerTrade:
		return "Trade Analysis"
	case WorkerPatent:
		return "Patent Analysis"
	case WorkerClinical:
		return "Clinical Trials"
	case WorkerInternal:
		return "Internal Docs"
	case WorkerWeb:
		return "Web Intelligence"
	case WorkerReport:
		return "Report"
	default:
		return string(w)
	}
}
