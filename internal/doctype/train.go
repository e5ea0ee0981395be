// Package doctype trains and applies the page-feature document type
// classifier and resolves the final label from truth, model and heuristic.
package doctype

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/doc-readiness/constants"
	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/features"
)

// ModelVersion tags the feature layout and model family of an artifact.
const ModelVersion = "doc_type_v1"

// Example is one labeled training row.
type Example struct {
	RelPath string
	Vector  features.Vector
	Label   constants.DocType
}

// Trainer fits classifiers from labeled feature vectors.
type Trainer struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

func NewTrainer(cfg Config, logger *slog.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Trainer{cfg: cfg, logger: logger, now: time.Now}, nil
}

// Train fits the pipeline on a seeded split of examples, evaluates it on
// the held-out rows and returns the artifact. Every example must have
// been built with sampling s.
func (t *Trainer) Train(examples []Example, s features.Sampling) (*Artifact, error) {
	names := features.Names()
	labels := make([]string, 0, len(examples))
	rows := make([][]float64, 0, len(examples))
	dist := map[string]int{}
	for _, ex := range examples {
		if !isDocType(string(ex.Label)) {
			return nil, common.NewAppError(common.CodeBadInput,
				fmt.Sprintf("label %q for %s is not a document type", ex.Label, ex.RelPath), common.ErrInvalidInput)
		}
		if ex.Vector.Sampling != s {
			return nil, common.ArtifactMismatchErrorf("features for %s were built with %+v, want %+v",
				ex.RelPath, ex.Vector.Sampling, s)
		}
		labels = append(labels, string(ex.Label))
		rows = append(rows, floats(ex.Vector.Ordered(names)))
		dist[string(ex.Label)]++
	}
	if len(dist) < 2 {
		return nil, common.NewAppError(common.CodeBadInput,
			fmt.Sprintf("need at least two labels to train, have %d", len(dist)), common.ErrInvalidInput)
	}

	trainIdx, evalIdx, stratified := splitIndices(labels, t.cfg.EvalSplit, s.Seed)
	classes := distinct(labels, trainIdx)
	if len(classes) < 2 {
		return nil, common.NewAppError(common.CodeBadInput,
			"training split holds a single label", common.ErrInvalidInput)
	}
	classIdx := make(map[string]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	xTrain := pick(rows, trainIdx)
	y := make([]int, len(trainIdx))
	for i, r := range trainIdx {
		y[i] = classIdx[labels[r]]
	}

	p := &pipeline{medians: fitMedians(xTrain, len(names))}
	p.mean, p.scale = fitScaler(xTrain, p.medians)
	z := make([][]float64, len(xTrain))
	for i, row := range xTrain {
		z[i] = p.transform(row)
	}
	var iters int
	p.coef, p.intercept, iters = fitSoftmax(z, y, len(classes), balancedWeights(y, len(classes)), t.cfg)

	eval := evaluate(p, classes, pick(rows, evalIdx), pickStrings(labels, evalIdx))
	eval.Stratified = stratified

	hp := t.cfg.hyperparams()
	hp.Iterations = iters
	trainedAt := t.now().UTC()
	a := &Artifact{
		ModelID:           fmt.Sprintf("doc_type_%s_%s", trainedAt.Format("20060102T150405Z"), uuid.NewString()[:8]),
		ModelVersion:      ModelVersion,
		TrainedAt:         trainedAt,
		TrainingRows:      len(trainIdx),
		LabelDistribution: dist,
		Features:          names,
		Medians:           p.medians,
		Mean:              p.mean,
		Scale:             p.scale,
		Classes:           classes,
		Coef:              p.coef,
		Intercept:         p.intercept,
		Hyperparams:       hp,
		FeatureConfig:     s,
		Eval:              eval,
	}
	t.logger.Info("model trained",
		"model_id", a.ModelID,
		"training_rows", a.TrainingRows,
		"eval_rows", eval.Rows,
		"iterations", iters,
		"stratified", stratified)
	return a, nil
}

// ClassReport is the per-class slice of an evaluation.
type ClassReport struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Eval summarizes held-out performance. Labels are the sorted labels
// observed in the eval rows; Accuracy is nil when nothing was held out.
type Eval struct {
	Rows            int                    `json:"rows"`
	Stratified      bool                   `json:"stratified"`
	Labels          []string               `json:"labels"`
	ConfusionMatrix [][]int                `json:"confusion_matrix"`
	PerClass        map[string]ClassReport `json:"per_class"`
	Accuracy        *float64               `json:"accuracy"`
}

func evaluate(p *pipeline, classes []string, x [][]float64, truth []string) Eval {
	ev := Eval{
		Rows:            len(x),
		Labels:          []string{},
		ConfusionMatrix: [][]int{},
		PerClass:        map[string]ClassReport{},
	}
	if len(x) == 0 {
		return ev
	}
	pred := make([]string, len(x))
	correct := 0
	for i, row := range x {
		probs := p.proba(p.transform(row))
		pred[i] = classes[argmax(probs)]
		if pred[i] == truth[i] {
			correct++
		}
	}
	acc := float64(correct) / float64(len(x))
	ev.Accuracy = &acc

	ev.Labels = distinct(truth, seq(len(truth)))
	pos := make(map[string]int, len(ev.Labels))
	for i, l := range ev.Labels {
		pos[l] = i
		ev.ConfusionMatrix = append(ev.ConfusionMatrix, make([]int, len(ev.Labels)))
	}
	for i := range truth {
		pi, ok := pos[pred[i]]
		if !ok {
			continue
		}
		ev.ConfusionMatrix[pos[truth[i]]][pi]++
	}
	for i, l := range ev.Labels {
		r := ClassReport{}
		var predicted int
		for k := range truth {
			if truth[k] == l {
				r.Support++
			}
			if pred[k] == l {
				predicted++
			}
		}
		tp := ev.ConfusionMatrix[i][i]
		if predicted > 0 {
			r.Precision = float64(tp) / float64(predicted)
		}
		if r.Support > 0 {
			r.Recall = float64(tp) / float64(r.Support)
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		ev.PerClass[l] = r
	}
	return ev
}

func isDocType(label string) bool {
	for _, l := range constants.DocTypeLabels() {
		if l == label {
			return true
		}
	}
	return false
}

func argmax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}

func floats(vals []features.Value) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = v.Float()
	}
	return out
}

func pick(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, r := range idx {
		out[i] = rows[r]
	}
	return out
}

func pickStrings(xs []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, r := range idx {
		out[i] = xs[r]
	}
	return out
}

func distinct(xs []string, idx []int) []string {
	seen := map[string]bool{}
	var out []string
	for _, i := range idx {
		if !seen[xs[i]] {
			seen[xs[i]] = true
			out = append(out, xs[i])
		}
	}
	sort.Strings(out)
	return out
}
