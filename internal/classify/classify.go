// Package classify extracts entities and an intent label from a free-text
// research query using fixed keyword and pattern tables.
package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ShayCichocki/pharmint/pkg/models"
)

// SubjectSource records which extraction step produced the subject.
type SubjectSource string

const (
	SubjectFromMarker      SubjectSource = "marker"
	SubjectFromVocabulary  SubjectSource = "vocabulary"
	SubjectFromCategory    SubjectSource = "category"
	SubjectFromCapitalized SubjectSource = "capitalized"
	SubjectNone            SubjectSource = "none"
)

// Classification is the classifier's output for one query.
type Classification struct {
	Entities models.Entities
	Intent   models.Intent
	// SubjectSource is the step that resolved Entities.Subject.
	SubjectSource SubjectSource
	// MatchedKeyword is the keyword that selected Intent, empty for the default.
	MatchedKeyword string
	// Reason explains why Intent was selected.
	Reason string
}

// Text is a query prepared for keyword matching.
type Text struct {
	Raw   string
	Lower string
	Words []string
}

// NewText lower-cases raw and splits it into letter/digit words.
func NewText(raw string) Text {
	lower := strings.ToLower(raw)
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return Text{Raw: raw, Lower: lower, Words: words}
}

// Contains reports whether the lower-cased text contains kw.
func (t Text) Contains(kw string) bool {
	return strings.Contains(t.Lower, strings.ToLower(kw))
}

// HasWord reports whether kw appears as a whole word.
func (t Text) HasWord(kw string) bool {
	kw = strings.ToLower(kw)
	for _, w := range t.Words {
		if w == kw {
			return true
		}
	}
	return false
}

// Classifier applies a Vocabulary and an ordered rule table.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	vocab            Vocabulary
	rules            []IntentRule
	subjectPatterns  []*regexp.Regexp
	conditionPattern []*regexp.Regexp
	stopWords        map[string]struct{}
}

// New creates a Classifier with the default vocabulary and rule table.
func New() *Classifier {
	return NewWith(DefaultVocabulary, DefaultIntentRules)
}

// NewWith creates a Classifier with a custom vocabulary and rule table.
// Both are copied.
func NewWith(vocab Vocabulary, rules []IntentRule) *Classifier {
	c := &Classifier{
		vocab:     vocab,
		rules:     append([]IntentRule(nil), rules...),
		stopWords: make(map[string]struct{}, len(vocab.StopWords)),
	}
	for _, m := range vocab.SubjectMarkers {
		c.subjectPatterns = append(c.subjectPatterns,
			regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(m)+`\s*:\s*([A-Za-z0-9-]+)`))
	}
	for _, m := range vocab.ConditionMarkers {
		c.conditionPattern = append(c.conditionPattern,
			regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(m)+`[:\s]+([A-Za-z\s]+)`))
	}
	for _, w := range vocab.StopWords {
		c.stopWords[strings.ToLower(w)] = struct{}{}
	}
	return c
}

// Classify extracts entities and intent from raw. It never fails; entities
// that cannot be found are left empty and the intent defaults to general.
func (c *Classifier) Classify(raw string) Classification {
	text := NewText(raw)

	category := c.category(text)
	subject, source := c.subject(text, category)

	out := Classification{
		Entities: models.Entities{
			Subject:   subject,
			Condition: c.condition(text),
			Category:  category,
		},
		SubjectSource: source,
	}
	out.Intent, out.MatchedKeyword = c.intent(text)
	if out.MatchedKeyword == "" {
		out.Reason = "no intent rule matched, defaulting to general"
	} else {
		out.Reason = "matched " + string(out.Intent) + " keyword"
	}
	return out
}

func (c *Classifier) subject(text Text, category string) (string, SubjectSource) {
	for _, p := range c.subjectPatterns {
		if m := p.FindStringSubmatch(text.Raw); m != nil {
			return m[1], SubjectFromMarker
		}
	}

	for _, drug := range c.vocab.Drugs {
		if text.Contains(drug) {
			return titleCase(drug), SubjectFromVocabulary
		}
	}

	if category != "" {
		return titleCase(category), SubjectFromCategory
	}

	for _, word := range strings.Fields(text.Raw) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if utf8.RuneCountInString(word) <= 3 {
			continue
		}
		first, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsUpper(first) {
			continue
		}
		if _, stop := c.stopWords[strings.ToLower(word)]; stop {
			continue
		}
		return word, SubjectFromCapitalized
	}

	return "", SubjectNone
}

func (c *Classifier) category(text Text) string {
	for _, area := range c.vocab.Categories {
		if text.Contains(area) {
			return area
		}
	}
	return ""
}

func (c *Classifier) condition(text Text) string {
	for _, p := range c.conditionPattern {
		m := p.FindStringSubmatch(text.Raw)
		if m == nil {
			continue
		}
		if phrase := strings.TrimSpace(m[1]); phrase != "" {
			return titleCase(phrase)
		}
	}
	return ""
}

func (c *Classifier) intent(text Text) (models.Intent, string) {
	for _, rule := range c.rules {
		if kw, ok := rule.Match(text); ok {
			return rule.Intent, kw
		}
	}
	return models.IntentGeneral, ""
}

// titleCase builds a fresh Caser per call; Casers are not safe to share.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Classify runs the default classifier over raw.
func Classify(raw string) Classification {
	return defaultClassifier.Classify(raw)
}

var defaultClassifier = New()
