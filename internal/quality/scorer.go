package quality

import (
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/doc-readiness/constants"
)

// Scorer turns a document's page texts into quality statistics.
type Scorer struct {
	cfg      Config
	detector LanguageDetector
	logger   *slog.Logger
}

// NewScorer validates cfg. detector may be nil, which disables language
// detection regardless of cfg.DetectLanguage.
func NewScorer(cfg Config, detector LanguageDetector, logger *slog.Logger) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{cfg: cfg, detector: detector, logger: logger}, nil
}

// Score accumulates every page and finalizes. textPages is the number of
// pages the readiness check found to carry text.
func (s *Scorer) Score(pages []string, textPages int) Stats {
	acc := NewAccumulator(s.cfg.RepeatedRunMin)
	for _, p := range pages {
		acc.Add(p)
	}
	st := acc.Finalize(s.cfg, textPages)

	if s.cfg.StoreSnippet || (s.cfg.DetectLanguage && s.detector != nil) {
		joined := strings.Join(pages, "\n")
		if s.cfg.StoreSnippet {
			st.Snippet = SanitizeSnippet(joined, s.cfg.SnippetMaxChars)
		}
		if s.cfg.DetectLanguage && s.detector != nil && st.Label != constants.QualityEmpty {
			code, conf := s.detector.Detect(joined)
			st.Language = code
			s.logger.Debug("language detected", "language", code, "confidence", conf)
		}
	}
	return st
}
