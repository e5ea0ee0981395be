package readiness

import "github.com/joseph-ayodele/doc-readiness/internal/common"

// Config holds the text readiness thresholds.
type Config struct {
	TextCharThreshold      int     `yaml:"text_char_threshold"`
	DocTextPctText         float64 `yaml:"doc_text_pct_text"`
	DocTextPctScanned      float64 `yaml:"doc_text_pct_scanned"`
	DocTextMinCharsPerPage float64 `yaml:"doc_text_min_chars_per_page"`
}

func DefaultConfig() Config {
	return Config{
		TextCharThreshold:      25,
		DocTextPctText:         0.50,
		DocTextPctScanned:      0.10,
		DocTextMinCharsPerPage: 200,
	}
}

func (c Config) Validate() error {
	v := common.NewValidator()
	v.Field("readiness.text_char_threshold", c.TextCharThreshold, common.NonNegative)
	v.Field("readiness.doc_text_pct_text", c.DocTextPctText, common.Ratio)
	v.Field("readiness.doc_text_pct_scanned", c.DocTextPctScanned, common.Ratio)
	v.Field("readiness.doc_text_min_chars_per_page", c.DocTextMinCharsPerPage, common.NonNegative)
	v.Check(c.DocTextPctScanned <= c.DocTextPctText, "readiness.doc_text_pct_scanned", c.DocTextPctScanned,
		"must not exceed doc_text_pct_text")
	return v.Error()
}
