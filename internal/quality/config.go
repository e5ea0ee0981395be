package quality

import "github.com/joseph-ayodele/doc-readiness/internal/common"

// Config holds the text quality thresholds.
type Config struct {
	EmptyMinChars        int      `yaml:"empty_min_chars"`
	EmptyMinWords        int      `yaml:"empty_min_words"`
	MinAlphaRatio        float64  `yaml:"min_alpha_ratio"`
	MinPrintableRatio    float64  `yaml:"min_printable_ratio"`
	MaxGibberish         float64  `yaml:"max_gibberish"`
	GibberishMinWords    int      `yaml:"gibberish_min_words"`
	GibberishSymbolRatio float64  `yaml:"gibberish_symbol_ratio"`
	RepeatedRunMin       int      `yaml:"repeated_run_min"`
	RepeatedRunRatio     float64  `yaml:"repeated_run_ratio"`
	SnippetMaxChars      int      `yaml:"snippet_max_chars"`
	StoreSnippet         bool     `yaml:"store_snippet"`
	DetectLanguage       bool     `yaml:"detect_language"`
	Languages            []string `yaml:"languages"` // ISO 639-1 codes
}

func DefaultConfig() Config {
	return Config{
		EmptyMinChars:        50,
		EmptyMinWords:        10,
		MinAlphaRatio:        0.45,
		MinPrintableRatio:    0.95,
		MaxGibberish:         0.60,
		GibberishMinWords:    30,
		GibberishSymbolRatio: 0.45,
		RepeatedRunMin:       4,
		RepeatedRunRatio:     0.12,
		SnippetMaxChars:      200,
		Languages:            []string{"en", "es", "fr", "de", "it", "pt"},
	}
}

func (c Config) Validate() error {
	v := common.NewValidator()
	v.Field("quality.empty_min_chars", c.EmptyMinChars, common.NonNegative)
	v.Field("quality.empty_min_words", c.EmptyMinWords, common.NonNegative)
	v.Field("quality.min_alpha_ratio", c.MinAlphaRatio, common.Ratio)
	v.Field("quality.min_printable_ratio", c.MinPrintableRatio, common.Ratio)
	v.Field("quality.max_gibberish", c.MaxGibberish, common.Ratio)
	v.Field("quality.gibberish_min_words", c.GibberishMinWords, common.NonNegative)
	v.Field("quality.gibberish_symbol_ratio", c.GibberishSymbolRatio, common.Ratio)
	v.Field("quality.repeated_run_min", c.RepeatedRunMin, common.Positive)
	v.Field("quality.repeated_run_ratio", c.RepeatedRunRatio, common.Ratio)
	v.Field("quality.snippet_max_chars", c.SnippetMaxChars, common.NonNegative)
	v.Check(!c.DetectLanguage || len(c.Languages) >= 2, "quality.languages", c.Languages,
		"language detection needs at least two candidate languages")
	return v.Error()
}
