package models

// Intent is the coarse purpose of a research query. It drives which
// workers run for a request.
type Intent string

const (
	// IntentGeneral is the fallback when no intent rule matches.
	IntentGeneral Intent = "general"
	// IntentMarket targets market size, sales and competitor data.
	IntentMarket Intent = "market"
	// IntentPatent targets patent landscape and freedom-to-operate.
	IntentPatent Intent = "patent"
	// IntentClinical targets clinical trial pipelines.
	IntentClinical Intent = "clinical"
	// IntentTrade targets export/import flows for APIs and formulations.
	IntentTrade Intent = "trade"
	// IntentOpportunity targets repurposing and unmet-need analysis.
	IntentOpportunity Intent = "opportunity"
)

// Intents lists every intent in declaration order.
var Intents = []Intent{
	IntentGeneral,
	IntentMarket,
	IntentPatent,
	IntentClinical,
	IntentTrade,
	IntentOpportunity,
}

// Valid returns true if the intent is a known value.
func (i Intent) Valid() bool {
	switch i {
	case IntentGeneral, IntentMarket, IntentPatent, IntentClinical, IntentTrade, IntentOpportunity:
		return true
	default:
		return false
	}
}
