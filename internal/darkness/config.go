package darkness

import "github.com/joseph-ayodele/doc-readiness/internal/common"

// Config holds the darkness thresholds. Defaults are calibration starting
// points, not physical constants.
type Config struct {
	FixedBlackIntensity     float64 `yaml:"fixed_black_intensity"`
	MostlyBlackRatioFixed   float64 `yaml:"mostly_black_ratio_fixed"`
	AdaptivePercentile      float64 `yaml:"adaptive_percentile"`
	DarkPageMedianCutoff    float64 `yaml:"dark_page_median_cutoff"`
	RedactionDarkRatioMin   float64 `yaml:"redaction_dark_ratio_min"`
	RedactionContrastMin    float64 `yaml:"redaction_contrast_min"`
	RedactionLowContrastMax float64 `yaml:"redaction_low_contrast_max"`
	CenterCropPct           float64 `yaml:"center_crop_pct"`
	UseCenterCrop           bool    `yaml:"use_center_crop"`
	RenderDPI               int     `yaml:"render_dpi"`
	Skip                    bool    `yaml:"skip"`
}

func DefaultConfig() Config {
	return Config{
		FixedBlackIntensity:     40,
		MostlyBlackRatioFixed:   0.90,
		AdaptivePercentile:      10,
		DarkPageMedianCutoff:    90,
		RedactionDarkRatioMin:   0.02,
		RedactionContrastMin:    30,
		RedactionLowContrastMax: 12,
		CenterCropPct:           0.70,
		UseCenterCrop:           true,
		RenderDPI:               72,
	}
}

// Validate rejects out-of-range thresholds.
func (c Config) Validate() error {
	intensity := common.Between(0, 255)
	v := common.NewValidator()
	v.Field("darkness.fixed_black_intensity", c.FixedBlackIntensity, intensity)
	v.Field("darkness.mostly_black_ratio_fixed", c.MostlyBlackRatioFixed, common.Ratio)
	v.Field("darkness.adaptive_percentile", c.AdaptivePercentile, common.Between(0, 100))
	v.Field("darkness.dark_page_median_cutoff", c.DarkPageMedianCutoff, intensity)
	v.Field("darkness.redaction_dark_ratio_min", c.RedactionDarkRatioMin, common.Ratio)
	v.Field("darkness.redaction_contrast_min", c.RedactionContrastMin, common.NonNegative)
	v.Field("darkness.redaction_low_contrast_max", c.RedactionLowContrastMax, common.NonNegative)
	v.Check(c.CenterCropPct > 0 && c.CenterCropPct <= 1, "darkness.center_crop_pct", c.CenterCropPct, "must be in (0, 1]")
	v.Field("darkness.render_dpi", c.RenderDPI, common.Positive)
	return v.Error()
}
