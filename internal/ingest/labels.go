package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/joseph-ayodele/doc-readiness/constants"
	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/readiness"
)

// Labels is the truth map keyed by normalized relative path.
type Labels struct {
	ByRelPath map[string]constants.DocType
	// Invalid lists rel paths whose raw label is not a document type.
	Invalid []string
}

// Get returns the truth label for relPath, or "".
func (l Labels) Get(relPath string) string {
	if l.ByRelPath == nil {
		return ""
	}
	return string(l.ByRelPath[readiness.NormalizeRelPath(relPath)])
}

// LoadLabelsCSV reads rel_path plus label_raw (or label). A missing file is
// an empty label set. Later rows for the same path win.
func LoadLabelsCSV(path string) (Labels, error) {
	out := Labels{ByRelPath: map[string]constants.DocType{}}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return out, nil
	}
	if err != nil {
		return out, common.NewAppError(common.CodeBadInput, "read labels header", err)
	}
	col := columnIndex(header)
	relIdx, ok := col["rel_path"]
	if !ok {
		return out, common.NewAppError(common.CodeBadInput, "labels file has no rel_path column", common.ErrInvalidInput)
	}
	labelIdx, ok := col["label_raw"]
	if !ok {
		if labelIdx, ok = col["label"]; !ok {
			return out, common.NewAppError(common.CodeBadInput, "labels file has no label_raw column", common.ErrInvalidInput)
		}
	}

	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, common.NewAppError(common.CodeBadInput, fmt.Sprintf("labels line %d", line), err)
		}
		if relIdx >= len(rec) || labelIdx >= len(rec) {
			continue
		}
		rel := readiness.NormalizeRelPath(rec[relIdx])
		raw := strings.TrimSpace(rec[labelIdx])
		if rel == "" || raw == "" {
			continue
		}
		label, ok := constants.NormalizeLabel(raw)
		if !ok {
			out.Invalid = append(out.Invalid, rel)
			continue
		}
		out.ByRelPath[rel] = label
	}
	return out, nil
}

// Reconciliation lines the truth labels up against the candidates.
type Reconciliation struct {
	Matched   []string
	Orphaned  []string
	Unlabeled []string
}

// Reconcile matches labels to candidates by normalized relative path.
func Reconcile(candidates []Candidate, labels Labels) Reconciliation {
	var rec Reconciliation
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		rel := readiness.NormalizeRelPath(c.RelPath)
		seen[rel] = true
		if _, ok := labels.ByRelPath[rel]; ok {
			rec.Matched = append(rec.Matched, rel)
		} else {
			rec.Unlabeled = append(rec.Unlabeled, rel)
		}
	}
	for rel := range labels.ByRelPath {
		if !seen[rel] {
			rec.Orphaned = append(rec.Orphaned, rel)
		}
	}
	sort.Strings(rec.Matched)
	sort.Strings(rec.Orphaned)
	sort.Strings(rec.Unlabeled)
	return rec
}
