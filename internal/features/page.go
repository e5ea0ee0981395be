package features

import (
	"github.com/joseph-ayodele/doc-readiness/internal/pdfio"
	"github.com/joseph-ayodele/doc-readiness/internal/raster"
)

// PageKeys are the raw per-page features in vector order.
var PageKeys = []string{
	"font_present",
	"font_count",
	"image_present",
	"image_count",
	"gray_mean",
	"gray_std",
	"gray_median",
	"gray_p10",
	"gray_p90",
	"histogram_entropy",
	"edge_density",
	"otsu_threshold",
	"binarized_ratio",
	"projection_var_row",
	"projection_var_col",
}

// ProbeKeys are the probe-level scalars merged into every vector.
var ProbeKeys = []string{
	"probe_page_count",
	"probe_pages_with_text",
	"probe_text_coverage_pct",
	"probe_avg_text_chars_per_page",
	"probe_mostly_black_pct",
}

// PageFeatures computes one page's raw features. ps is nil when the
// document structure could not be read; g is nil when rendering failed.
func PageFeatures(ps *pdfio.PageStructure, g *raster.Gray) map[string]Value {
	f := make(map[string]Value, len(PageKeys))
	if ps != nil {
		f["font_present"] = Of(boolFloat(ps.FontCount > 0))
		f["font_count"] = Of(float64(ps.FontCount))
		f["image_present"] = Of(boolFloat(ps.ImageCount > 0))
		f["image_count"] = Of(float64(ps.ImageCount))
	}
	if g.Empty() {
		return f
	}
	st := g.Summarize()
	f["gray_mean"] = Of(st.Mean)
	f["gray_std"] = Of(st.Std)
	f["gray_median"] = Of(st.Median)
	f["gray_p10"] = Of(st.P10)
	f["gray_p90"] = Of(st.P90)
	if e, ok := g.HistogramEntropy(); ok {
		f["histogram_entropy"] = Of(e)
	}
	if d, ok := g.EdgeDensity(raster.DefaultEdgeThreshold); ok {
		f["edge_density"] = Of(d)
	}
	t := g.OtsuThreshold()
	f["otsu_threshold"] = Of(float64(t))
	bin := g.Binarize(t)
	f["binarized_ratio"] = Of(bin.InkRatio())
	if row, col, ok := bin.ProjectionVariance(); ok {
		f["projection_var_row"] = Of(row)
		f["projection_var_col"] = Of(col)
	}
	return f
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
