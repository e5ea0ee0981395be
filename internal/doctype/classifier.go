package doctype

import (
	"log/slog"
	"math"
	"sort"

	"github.com/joseph-ayodele/doc-readiness/constants"
	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/features"
)

// Reason is one feature's contribution to the predicted class.
type Reason struct {
	Feature      string         `json:"feature"`
	Value        features.Value `json:"value"`
	Contribution float64        `json:"contribution"`
}

// Prediction is the classifier output for one document. Probabilities
// cover the full label set; labels the model never saw get 0.
type Prediction struct {
	Label         constants.DocType  `json:"label"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	Reasons       []Reason           `json:"reasons,omitempty"`
}

// ReasonValues flattens reasons into feature name -> raw value.
func (p Prediction) ReasonValues() map[string]features.Value {
	out := make(map[string]features.Value, len(p.Reasons))
	for _, r := range p.Reasons {
		out[r.Feature] = r.Value
	}
	return out
}

// Classifier applies a loaded artifact.
type Classifier struct {
	artifact *Artifact
	pipe     *pipeline
	topK     int
	logger   *slog.Logger
}

func NewClassifier(a *Artifact, topK int, logger *slog.Logger) (*Classifier, error) {
	if err := a.checkShape(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{artifact: a, pipe: a.pipeline(), topK: topK, logger: logger}, nil
}

// Artifact exposes the loaded model card.
func (c *Classifier) Artifact() *Artifact { return c.artifact }

// Sampling is the feature sampling the model was trained with. Feature
// vectors for inference must be built with it.
func (c *Classifier) Sampling() features.Sampling { return c.artifact.FeatureConfig }

// Predict classifies a feature vector. The vector must carry the
// artifact's sampling.
func (c *Classifier) Predict(v features.Vector) (Prediction, error) {
	if v.Sampling != c.artifact.FeatureConfig {
		return Prediction{}, common.ArtifactMismatchErrorf("vector for %s sampled with %+v, model %s expects %+v",
			v.RelPath, v.Sampling, c.artifact.ModelID, c.artifact.FeatureConfig)
	}
	names := features.Names()
	return c.PredictValues(names, v.Ordered(names))
}

// PredictValues classifies values laid out in names order. The names must
// equal the artifact's feature list exactly.
func (c *Classifier) PredictValues(names []string, values []features.Value) (Prediction, error) {
	want := c.artifact.Features
	if len(names) != len(want) || len(values) != len(want) {
		return Prediction{}, common.ArtifactMismatchErrorf("model %s expects %d features, got %d names and %d values",
			c.artifact.ModelID, len(want), len(names), len(values))
	}
	for i, n := range names {
		if n != want[i] {
			return Prediction{}, common.ArtifactMismatchErrorf("model %s feature %d is %q, got %q",
				c.artifact.ModelID, i, want[i], n)
		}
	}

	z := c.pipe.transform(floats(values))
	probs := c.pipe.proba(z)

	out := Prediction{Probabilities: make(map[string]float64, len(constants.DocTypeLabels()))}
	for _, l := range constants.DocTypeLabels() {
		out.Probabilities[l] = 0
	}
	for k, cls := range c.artifact.Classes {
		out.Probabilities[cls] = probs[k]
	}
	best := argmax(probs)
	out.Label = constants.DocType(c.artifact.Classes[best])
	out.Confidence = probs[best]
	out.Reasons = c.reasons(best, z, names, values)
	return out, nil
}

// reasons ranks coef[class][j]*z[j] by magnitude and keeps the top k.
func (c *Classifier) reasons(class int, z []float64, names []string, values []features.Value) []Reason {
	if c.topK <= 0 {
		return nil
	}
	rs := make([]Reason, len(z))
	for j := range z {
		rs[j] = Reason{Feature: names[j], Value: values[j], Contribution: c.artifact.Coef[class][j] * z[j]}
	}
	sort.SliceStable(rs, func(i, j int) bool {
		return math.Abs(rs[i].Contribution) > math.Abs(rs[j].Contribution)
	})
	return rs[:min(c.topK, len(rs))]
}
