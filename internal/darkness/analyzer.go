// Package darkness flags redaction-like and solid-dark pages from pixel
// intensity statistics.
package darkness

import (
	"github.com/joseph-ayodele/doc-readiness/internal/raster"
)

// Metrics is the per-page darkness record.
type Metrics struct {
	Mean   float64 `json:"mean_luminance"`
	Median float64 `json:"median_luminance"`
	P10    float64 `json:"p10_luminance"`
	P25    float64 `json:"p25_luminance"`
	P75    float64 `json:"p75_luminance"`
	Std    float64 `json:"std_luminance"`

	FixedRatioFull   float64 `json:"black_ratio_full"`
	FixedRatioCenter float64 `json:"black_ratio_center"`

	AdaptiveRatioFull       float64 `json:"adaptive_black_ratio_full"`
	AdaptiveRatioCenter     float64 `json:"adaptive_black_ratio_center"`
	AdaptiveRatio           float64 `json:"adaptive_black_ratio"`
	AdaptiveThresholdFull   float64 `json:"black_threshold_adapt_full"`
	AdaptiveThresholdCenter float64 `json:"black_threshold_adapt_center"`
	AdaptiveThreshold       float64 `json:"black_threshold_adapt"`

	// BlackRatio is the larger fixed ratio of full page and center crop.
	BlackRatio    float64 `json:"black_ratio"`
	IsMostlyBlack bool    `json:"is_mostly_black"`
	MatchedRule   string  `json:"matched_rule,omitempty"`
}

// Rule is one way a page can qualify as mostly black.
type Rule struct {
	Name  string
	Match func(m Metrics, c Config) bool
}

// Rules are evaluated in order; the first match names the verdict.
var Rules = []Rule{
	{
		Name: "fixed_ratio",
		Match: func(m Metrics, c Config) bool {
			return m.BlackRatio >= c.MostlyBlackRatioFixed
		},
	},
	{
		Name: "redaction_contrast",
		Match: func(m Metrics, c Config) bool {
			return m.BlackRatio >= c.RedactionDarkRatioMin && m.Std >= c.RedactionContrastMin
		},
	},
	{
		Name: "uniform_dark",
		Match: func(m Metrics, c Config) bool {
			return m.Median <= c.DarkPageMedianCutoff && m.Std <= c.RedactionLowContrastMax
		},
	},
}

// Analyzer computes page darkness under a fixed configuration.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer validates cfg.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg}, nil
}

// Config returns the thresholds in effect.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze computes darkness metrics for one page. An empty buffer yields
// zero metrics and no verdict.
func (a *Analyzer) Analyze(g *raster.Gray) Metrics {
	if g.Empty() {
		return Metrics{}
	}
	c := a.cfg
	st := g.Summarize()
	m := Metrics{
		Mean:   st.Mean,
		Median: st.Median,
		P10:    st.P10,
		P25:    st.P25,
		P75:    st.P75,
		Std:    st.Std,
	}

	m.FixedRatioFull = g.RatioAtOrBelow(c.FixedBlackIntensity)
	m.AdaptiveThresholdFull = g.Percentile(c.AdaptivePercentile)
	m.AdaptiveRatioFull = g.RatioAtOrBelow(m.AdaptiveThresholdFull)

	if c.UseCenterCrop {
		if crop := g.CenterCrop(c.CenterCropPct); !crop.Empty() {
			m.FixedRatioCenter = crop.RatioAtOrBelow(c.FixedBlackIntensity)
			m.AdaptiveThresholdCenter = crop.Percentile(c.AdaptivePercentile)
			m.AdaptiveRatioCenter = crop.RatioAtOrBelow(m.AdaptiveThresholdCenter)
		}
	}

	// ties favor the full page
	m.AdaptiveRatio, m.AdaptiveThreshold = m.AdaptiveRatioFull, m.AdaptiveThresholdFull
	if m.AdaptiveRatioCenter > m.AdaptiveRatioFull {
		m.AdaptiveRatio, m.AdaptiveThreshold = m.AdaptiveRatioCenter, m.AdaptiveThresholdCenter
	}

	m.BlackRatio = max(m.FixedRatioFull, m.FixedRatioCenter)
	for _, r := range Rules {
		if r.Match(m, c) {
			m.IsMostlyBlack = true
			m.MatchedRule = r.Name
			break
		}
	}
	return m
}
