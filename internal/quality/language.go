package quality

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// maxLanguageSample bounds the text handed to the detector.
const maxLanguageSample = 4000

// LanguageDetector reports the ISO 639-1 code of the dominant language.
type LanguageDetector interface {
	Detect(text string) (code string, confidence float64)
}

// LinguaDetector detects language among a fixed candidate set.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector builds a detector over the given ISO 639-1 codes.
// Unknown codes are skipped; nil is returned when fewer than two remain.
func NewLinguaDetector(codes []string) *LinguaDetector {
	var langs []lingua.Language
	for _, c := range codes {
		iso := lingua.GetIsoCode639_1FromValue(strings.ToLower(strings.TrimSpace(c)))
		lang := lingua.GetLanguageFromIsoCode639_1(iso)
		if lang == lingua.Unknown {
			continue
		}
		langs = append(langs, lang)
	}
	if len(langs) < 2 {
		return nil
	}
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		WithMinimumRelativeDistance(0.1).
		Build()
	return &LinguaDetector{detector: d}
}

func (d *LinguaDetector) Detect(text string) (string, float64) {
	if d == nil {
		return "", 0
	}
	sample := text
	if r := []rune(sample); len(r) > maxLanguageSample {
		sample = string(r[:maxLanguageSample])
	}
	lang, ok := d.detector.DetectLanguageOf(sample)
	if !ok {
		return "", 0
	}
	conf := d.detector.ComputeLanguageConfidence(sample, lang)
	return strings.ToLower(lang.IsoCode639_1().String()), conf
}
