// Package categorize assigns a content category to document text with
// fixed regular-expression rule tables.
package categorize

import (
	"encoding/json"

	"github.com/joseph-ayodele/doc-readiness/constants"
	"github.com/joseph-ayodele/doc-readiness/internal/quality"
)

// Prediction is the per-document content type record.
type Prediction struct {
	Category   constants.ContentCategory `json:"content_type_pred"`
	Confidence float64                   `json:"content_type_confidence"`
	Signals    string                    `json:"content_type_signals"`
}

// Totals are the summary statistics the density boosts read.
type Totals struct {
	LineCount      int
	EmailCount     int
	PhoneCount     int
	UnderscoreRuns int
}

func (t Totals) maxContactDensity() float64 {
	if t.LineCount == 0 {
		return 0
	}
	e := float64(t.EmailCount) / float64(t.LineCount)
	p := float64(t.PhoneCount) / float64(t.LineCount)
	return max(e, p)
}

// Accumulator counts rule hits page by page. Counts are sums, so page
// order does not matter.
type Accumulator struct {
	rules  []CategoryRules
	hits   map[constants.ContentCategory]map[string]int
	totals Totals
}

// NewAccumulator uses DefaultRules.
func NewAccumulator() *Accumulator {
	return NewAccumulatorWithRules(DefaultRules)
}

func NewAccumulatorWithRules(rules []CategoryRules) *Accumulator {
	hits := make(map[constants.ContentCategory]map[string]int, len(rules))
	for _, cr := range rules {
		hits[cr.Category] = map[string]int{}
	}
	return &Accumulator{rules: rules, hits: hits}
}

// Add counts one page of text.
func (a *Accumulator) Add(text string) {
	if text == "" {
		return
	}
	a.totals.LineCount += len(quality.SplitLines(text))
	for _, cr := range a.rules {
		for _, r := range cr.Rules {
			if n := len(r.Pattern.FindAllStringIndex(text, -1)); n > 0 {
				a.hits[cr.Category][r.Name] += n
			}
		}
	}
	a.totals.EmailCount += len(reEmail.FindAllStringIndex(text, -1))
	a.totals.PhoneCount += len(rePhone.FindAllStringIndex(text, -1))
	a.totals.UnderscoreRuns += len(reBlank.FindAllStringIndex(text, -1))
}

// Scores returns the weighted rule score plus boosts for every category.
func (a *Accumulator) Scores() map[constants.ContentCategory]float64 {
	scores := make(map[constants.ContentCategory]float64, len(a.rules))
	for _, cr := range a.rules {
		var s float64
		for _, r := range cr.Rules {
			s += float64(a.hits[cr.Category][r.Name]) * r.Weight
		}
		scores[cr.Category] = s
	}
	for _, group := range DefaultBoosts {
		for _, b := range group.Boosts {
			if b.Applies(a.totals) {
				if _, ok := scores[b.Category]; ok {
					scores[b.Category] += b.Score
				}
				break
			}
		}
	}
	return scores
}

// Finalize picks the highest-scoring category. A best score of zero or
// less predicts OTHER_TEXT with zero confidence.
func (a *Accumulator) Finalize() Prediction {
	scores := a.Scores()
	best, bestScore := constants.OtherText, 0.0
	var total float64
	for _, cr := range a.rules {
		s := scores[cr.Category]
		total += s
		if s > bestScore {
			best, bestScore = cr.Category, s
		}
	}
	p := Prediction{Category: constants.OtherText, Signals: a.signals()}
	if bestScore <= 0 || total <= 0 {
		return p
	}
	p.Category = best
	p.Confidence = bestScore / total
	return p
}

// signals serializes rule hits and totals with sorted keys.
func (a *Accumulator) signals() string {
	ruleHits := make(map[string]map[string]int, len(a.hits))
	for cat, h := range a.hits {
		ruleHits[string(cat)] = h
	}
	payload := map[string]any{
		"rule_hits": ruleHits,
		"stats": map[string]int{
			"line_count":          a.totals.LineCount,
			"email_address_count": a.totals.EmailCount,
			"phone_number_count":  a.totals.PhoneCount,
			"underscore_runs":     a.totals.UnderscoreRuns,
		},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Categorize is a convenience over a document's page texts.
func Categorize(pages []string) Prediction {
	acc := NewAccumulator()
	for _, p := range pages {
		acc.Add(p)
	}
	return acc.Finalize()
}
