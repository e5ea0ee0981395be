package darkness

import "sort"

// Summary is the document-level darkness aggregate. Pointer fields are nil
// when no page was checked, which is distinct from a checked clean document.
type Summary struct {
	PagesChecked     int      `json:"pages_black_checked"`
	PagesSkipped     int      `json:"pages_black_skipped"`
	PagesMostlyBlack int      `json:"pages_mostly_black"`
	MostlyBlackPct   *float64 `json:"mostly_black_pct"`
	BlackRatioAvg    *float64 `json:"black_ratio_avg"`
	MedianOfMedians  *float64 `json:"median_luminance_median"`
}

// Aggregate folds per-page metrics in page order. A nil entry is a page that
// could not be rendered.
func Aggregate(pages []*Metrics) Summary {
	var s Summary
	var ratioSum float64
	medians := make([]float64, 0, len(pages))
	for _, m := range pages {
		if m == nil {
			s.PagesSkipped++
			continue
		}
		s.PagesChecked++
		if m.IsMostlyBlack {
			s.PagesMostlyBlack++
		}
		ratioSum += m.BlackRatio
		medians = append(medians, m.Median)
	}
	if s.PagesChecked == 0 {
		return s
	}
	n := float64(s.PagesChecked)
	pct := float64(s.PagesMostlyBlack) / n
	avg := ratioSum / n
	med := median(medians)
	s.MostlyBlackPct = &pct
	s.BlackRatioAvg = &avg
	s.MedianOfMedians = &med
	return s
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
