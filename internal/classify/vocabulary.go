package classify

import "github.com/ShayCichocki/pharmint/pkg/models"

// Vocabulary holds the fixed keyword lists the classifier scans.
// Order is significant in every list: the first entry present wins.
type Vocabulary struct {
	// SubjectMarkers are labels that introduce an explicit subject. The colon
	// is required: "drug: aspirin" is a marker, "drug repurposing" is not.
	SubjectMarkers []string
	// Drugs are known subject names, returned title-cased.
	Drugs []string
	// Categories are therapy-area keywords.
	Categories []string
	// ConditionMarkers introduce a condition phrase, e.g. "indication: asthma".
	ConditionMarkers []string
	// StopWords are never picked as a capitalized-word subject.
	StopWords []string
}

// DefaultVocabulary is the built-in keyword set.
var DefaultVocabulary = Vocabulary{
	SubjectMarkers: []string{"molecule", "drug", "compound"},
	Drugs: []string{
		"metformin",
		"aspirin",
		"paracetamol",
		"ibuprofen",
		"atorvastatin",
		"rosuvastatin",
		"albuterol",
		"salmeterol",
		"insulin",
		"warfarin",
	},
	Categories: []string{
		"respiratory",
		"cardiovascular",
		"oncology",
		"diabetes",
		"neurology",
		"infectious",
		"autoimmune",
		"gastrointestinal",
	},
	ConditionMarkers: []string{"disease", "indication", "therapy", "condition", "disorder"},
	StopWords:        []string{"which", "what", "where", "when", "how", "the", "are", "for", "and", "but"},
}

// IntentRule pairs a predicate with the intent it selects.
type IntentRule struct {
	Intent models.Intent
	// Keywords are listed for display; Match is what decides.
	Keywords []string
	Match    Predicate
}

// Predicate inspects prepared query text and returns the keyword that fired.
type Predicate func(t Text) (keyword string, ok bool)

// DefaultIntentRules is the ordered decision table for intent classification.
// Keyword sets overlap, so rules are evaluated top to bottom and the first
// match wins. Opportunity is listed first because it is the broadest analysis.
var DefaultIntentRules = []IntentRule{
	keywordRule(models.IntentOpportunity, "repurposing", "unmet", "opportunity"),
	keywordRule(models.IntentMarket, "market", "sales", "iqvia"),
	{
		Intent:   models.IntentPatent,
		Keywords: []string{"patent", "ip", "freedom", "fto"},
		// "ip" would fire inside recipient, ship, pipeline.
		Match: FirstOf(Substring("patent"), Word("ip"), Substring("freedom"), Substring("fto")),
	},
	keywordRule(models.IntentClinical, "trial", "clinical"),
	keywordRule(models.IntentTrade, "trade", "export", "import", "exim"),
}

// keywordRule matches any of keywords as a substring of the query.
func keywordRule(intent models.Intent, keywords ...string) IntentRule {
	preds := make([]Predicate, len(keywords))
	for i, kw := range keywords {
		preds[i] = Substring(kw)
	}
	return IntentRule{
		Intent:   intent,
		Keywords: keywords,
		Match:    FirstOf(preds...),
	}
}

// Substring matches when kw occurs anywhere in the lower-cased text, so
// "preclinical" matches "clinical" and "trials" matches "trial".
func Substring(kw string) Predicate {
	return func(t Text) (string, bool) {
		return kw, t.Contains(kw)
	}
}

// Word matches when kw is a whole word of the text.
func Word(kw string) Predicate {
	return func(t Text) (string, bool) {
		return kw, t.HasWord(kw)
	}
}

// FirstOf tries preds in order and reports the first keyword that fires.
func FirstOf(preds ...Predicate) Predicate {
	return func(t Text) (string, bool) {
		for _, p := range preds {
			if kw, ok := p(t); ok {
				return kw, true
			}
		}
		return "", false
	}
}
