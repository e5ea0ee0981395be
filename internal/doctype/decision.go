package doctype

import (
	"math"
	"strings"

	"github.com/joseph-ayodele/doc-readiness/constants"
)

// Signals are the three competing inputs for a document's final type.
// ModelConfidence is NaN when the model produced nothing.
type Signals struct {
	Truth           string
	ModelLabel      string
	ModelConfidence float64
	Heuristic       string
}

// Decision is the resolved label and the signal that produced it.
type Decision struct {
	Final           string               `json:"doc_type_final"`
	Source          constants.Provenance `json:"doc_type_source"`
	Truth           string               `json:"doc_type_truth,omitempty"`
	ModelLabel      string               `json:"doc_type_model,omitempty"`
	ModelConfidence *float64             `json:"doc_type_model_confidence,omitempty"`
	Heuristic       string               `json:"doc_type_heuristic,omitempty"`
}

// DecisionRule is one row of the priority table.
type DecisionRule struct {
	Source  constants.Provenance
	Applies func(s Signals, r *Resolver) bool
	Label   func(s Signals) string
}

// DecisionRules is evaluated top to bottom; the first rule that applies
// decides. The last rule always applies.
var DecisionRules = []DecisionRule{
	{
		Source:  constants.SourceTruth,
		Applies: func(s Signals, _ *Resolver) bool { return strings.TrimSpace(s.Truth) != "" },
		Label:   func(s Signals) string { return strings.TrimSpace(s.Truth) },
	},
	{
		Source: constants.SourceModel,
		Applies: func(s Signals, r *Resolver) bool {
			return r.useModel &&
				strings.TrimSpace(s.ModelLabel) != "" &&
				!math.IsNaN(s.ModelConfidence) &&
				s.ModelConfidence >= r.minConfidence
		},
		Label: func(s Signals) string { return strings.TrimSpace(s.ModelLabel) },
	},
	{
		Source:  constants.SourceHeuristic,
		Applies: func(Signals, *Resolver) bool { return true },
		Label:   func(s Signals) string { return strings.TrimSpace(s.Heuristic) },
	},
}

// Resolver picks a final label. It is a pure function of its inputs.
type Resolver struct {
	useModel      bool
	minConfidence float64
	rules         []DecisionRule
}

func NewResolver(cfg Config) *Resolver {
	return &Resolver{useModel: cfg.UseModel, minConfidence: cfg.MinModelConfidence, rules: DecisionRules}
}

// Resolve applies the first matching rule.
func (r *Resolver) Resolve(s Signals) Decision {
	d := Decision{
		Truth:      strings.TrimSpace(s.Truth),
		ModelLabel: strings.TrimSpace(s.ModelLabel),
		Heuristic:  strings.TrimSpace(s.Heuristic),
	}
	if !math.IsNaN(s.ModelConfidence) && d.ModelLabel != "" {
		conf := s.ModelConfidence
		d.ModelConfidence = &conf
	}
	for _, rule := range r.rules {
		if rule.Applies(s, r) {
			d.Final = rule.Label(s)
			d.Source = rule.Source
			return d
		}
	}
	return d
}

// NoModel is the Signals value for a document without a prediction.
func NoModel(truth, heuristic string) Signals {
	return Signals{Truth: truth, Heuristic: heuristic, ModelConfidence: math.NaN()}
}
