package features

import (
	"sort"
)

// Vector is a document's aggregated features plus the sampling that
// produced them.
type Vector struct {
	RelPath       string           `json:"rel_path"`
	Sampling      Sampling         `json:"sampling"`
	PagesInSample int              `json:"pages_in_sample"`
	Values        map[string]Value `json:"values"`
}

// Names returns the full ordered feature list: probe scalars, then the mean
// and median of every page key.
func Names() []string {
	names := append([]string(nil), ProbeKeys...)
	for _, k := range PageKeys {
		names = append(names, k+"_mean", k+"_median")
	}
	return names
}

// Get returns the named value, Missing when absent.
func (v Vector) Get(name string) Value {
	if v.Values == nil {
		return Missing
	}
	return v.Values[name]
}

// Ordered returns values in the order of names.
func (v Vector) Ordered(names []string) []Value {
	out := make([]Value, len(names))
	for i, n := range names {
		out[i] = v.Get(n)
	}
	return out
}

// ProbeMetrics carries the readiness and darkness scalars for a document.
type ProbeMetrics struct {
	PageCount           Value
	PagesWithText       Value
	TextCoveragePct     Value
	AvgTextCharsPerPage Value
	MostlyBlackPct      Value
}

func (p ProbeMetrics) values() map[string]Value {
	return map[string]Value{
		"probe_page_count":              p.PageCount,
		"probe_pages_with_text":         p.PagesWithText,
		"probe_text_coverage_pct":       p.TextCoveragePct,
		"probe_avg_text_chars_per_page": p.AvgTextCharsPerPage,
		"probe_mostly_black_pct":        p.MostlyBlackPct,
	}
}

// Aggregate folds per-page features into a vector. Missing page values are
// skipped; a key missing on every page is missing in the vector.
func Aggregate(relPath string, s Sampling, pages []map[string]Value, probe *ProbeMetrics) Vector {
	v := Vector{RelPath: relPath, Sampling: s, PagesInSample: len(pages), Values: make(map[string]Value)}
	for _, k := range PageKeys {
		xs := make([]float64, 0, len(pages))
		for _, p := range pages {
			if val := p[k]; val.Valid {
				xs = append(xs, val.V)
			}
		}
		v.Values[k+"_mean"] = mean(xs)
		v.Values[k+"_median"] = median(xs)
	}
	if probe != nil {
		for k, val := range probe.values() {
			v.Values[k] = val
		}
	}
	return v
}

func mean(xs []float64) Value {
	if len(xs) == 0 {
		return Missing
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return Of(s / float64(len(xs)))
}

func median(xs []float64) Value {
	if len(xs) == 0 {
		return Missing
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return Of(sorted[mid])
	}
	return Of((sorted[mid-1] + sorted[mid]) / 2)
}
