package doctype

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/features"
)

const (
	// LatestRef resolves through the LATEST.json pointer.
	LatestRef = "LATEST"

	latestFile    = "LATEST.json"
	modelCardFile = "model_card.json"
)

// LabelReconciliation counts how the truth labels lined up with the
// documents available for training.
type LabelReconciliation struct {
	LabelsMatched  int `json:"labels_matched"`
	LabelsOrphaned int `json:"labels_orphaned"`
	DocsUnlabeled  int `json:"docs_unlabeled"`
}

// Artifact is a trained model together with its feature ordering and the
// sampling used to build its features. It is read-only once saved.
type Artifact struct {
	ModelID             string               `json:"model_id"`
	ModelVersion        string               `json:"model_version"`
	TrainedAt           time.Time            `json:"trained_at"`
	TrainingRows        int                  `json:"training_rows"`
	LabelDistribution   map[string]int       `json:"label_distribution"`
	Features            []string             `json:"features"`
	Medians             []float64            `json:"imputer_medians"`
	Mean                []float64            `json:"scaler_mean"`
	Scale               []float64            `json:"scaler_scale"`
	Classes             []string             `json:"classes"`
	Coef                [][]float64          `json:"coef"`
	Intercept           []float64            `json:"intercept"`
	Hyperparams         Hyperparams          `json:"hyperparams"`
	FeatureConfig       features.Sampling    `json:"feature_config"`
	Eval                Eval                 `json:"eval"`
	LabelReconciliation *LabelReconciliation `json:"label_reconciliation,omitempty"`
}

type latestPointer struct {
	ModelID   string    `json:"model_id"`
	RunDir    string    `json:"run_dir"`
	ModelCard string    `json:"model_card"`
	TrainedAt time.Time `json:"trained_at"`
}

func (a *Artifact) pipeline() *pipeline {
	return &pipeline{
		medians:   a.Medians,
		mean:      a.Mean,
		scale:     a.Scale,
		coef:      a.Coef,
		intercept: a.Intercept,
	}
}

// checkShape verifies the parameter arrays agree with the feature and
// class lists.
func (a *Artifact) checkShape() error {
	d := len(a.Features)
	if d == 0 {
		return common.ArtifactMismatchErrorf("artifact %s has no features", a.ModelID)
	}
	for name, n := range map[string]int{
		"imputer_medians": len(a.Medians),
		"scaler_mean":     len(a.Mean),
		"scaler_scale":    len(a.Scale),
	} {
		if n != d {
			return common.ArtifactMismatchErrorf("artifact %s: %s has %d values for %d features", a.ModelID, name, n, d)
		}
	}
	if len(a.Classes) < 2 || len(a.Coef) != len(a.Classes) || len(a.Intercept) != len(a.Classes) {
		return common.ArtifactMismatchErrorf("artifact %s: %d classes, %d coefficient rows, %d intercepts",
			a.ModelID, len(a.Classes), len(a.Coef), len(a.Intercept))
	}
	for i, row := range a.Coef {
		if len(row) != d {
			return common.ArtifactMismatchErrorf("artifact %s: coefficient row %d has %d values for %d features",
				a.ModelID, i, len(row), d)
		}
	}
	for j, s := range a.Scale {
		if s == 0 {
			return common.ArtifactMismatchErrorf("artifact %s: zero scale for %s", a.ModelID, a.Features[j])
		}
	}
	return nil
}

// Save writes the model card under dir/<model_id>/ and repoints
// LATEST.json at it. An existing card is never overwritten.
func (a *Artifact) Save(dir string) (string, error) {
	if err := a.checkShape(); err != nil {
		return "", err
	}
	runDir := filepath.Join(dir, a.ModelID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}
	card := filepath.Join(runDir, modelCardFile)
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal model card: %w", err)
	}
	f, err := os.OpenFile(card, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create model card: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return "", fmt.Errorf("write model card: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close model card: %w", err)
	}

	ptr, err := json.MarshalIndent(latestPointer{
		ModelID:   a.ModelID,
		RunDir:    runDir,
		ModelCard: card,
		TrainedAt: a.TrainedAt,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal pointer: %w", err)
	}
	tmp := filepath.Join(dir, latestFile+".tmp")
	if err := os.WriteFile(tmp, ptr, 0o644); err != nil {
		return "", fmt.Errorf("write pointer: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, latestFile)); err != nil {
		return "", fmt.Errorf("replace pointer: %w", err)
	}
	return card, nil
}

// ResolveModelCard maps ref to a model card path: "" or LATEST follow the
// pointer in dir; otherwise ref is a card file, a run directory, or a
// model id under dir.
func ResolveModelCard(dir, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.EqualFold(ref, LatestRef) {
		b, err := os.ReadFile(filepath.Join(dir, latestFile))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", common.NewAppError(common.CodeNotFound, "no trained model in "+dir, common.ErrNotFound)
			}
			return "", fmt.Errorf("read pointer: %w", err)
		}
		var p latestPointer
		if err := json.Unmarshal(b, &p); err != nil {
			return "", common.NewAppError(common.CodeArtifact, "decode "+latestFile, err)
		}
		if p.ModelCard != "" && fileExists(p.ModelCard) {
			return p.ModelCard, nil
		}
		return filepath.Join(dir, p.ModelID, modelCardFile), nil
	}
	if st, err := os.Stat(ref); err == nil {
		if st.IsDir() {
			return filepath.Join(ref, modelCardFile), nil
		}
		return ref, nil
	}
	card := filepath.Join(dir, ref, modelCardFile)
	if !fileExists(card) {
		return "", common.NewAppError(common.CodeNotFound, "model "+ref+" not found in "+dir, common.ErrNotFound)
	}
	return card, nil
}

// LoadArtifact resolves ref, validates the card against the artifact
// schema and checks its shape.
func LoadArtifact(dir, ref string) (*Artifact, error) {
	card, err := ResolveModelCard(dir, ref)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(card)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.NewAppError(common.CodeNotFound, "model card "+card, common.ErrNotFound)
		}
		return nil, fmt.Errorf("read model card: %w", err)
	}
	if err := validateArtifactJSON(b); err != nil {
		return nil, common.NewAppError(common.CodeArtifact, "invalid model card "+card, err)
	}
	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, common.NewAppError(common.CodeArtifact, "decode model card "+card, err)
	}
	if err := a.checkShape(); err != nil {
		return nil, err
	}
	return &a, nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
