// Package quality scores extracted text with shallow character and word
// statistics and labels it EMPTY, LOW or GOOD.
package quality

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/doc-readiness/constants"
)

// Stats is the per-document text quality record.
type Stats struct {
	TotalChars           int                    `json:"total_chars"`
	TotalWords           int                    `json:"total_words"`
	TextPagesScanned     int                    `json:"text_pages_scanned"`
	AvgCharsPerTextPage  float64                `json:"avg_chars_per_text_page"`
	AvgWordsPerTextPage  float64                `json:"avg_words_per_text_page"`
	AlphaRatio           float64                `json:"alpha_ratio"`
	DigitRatio           float64                `json:"digit_ratio"`
	PrintableRatio       float64                `json:"printable_ratio"`
	UniqueCharRatio      float64                `json:"unique_char_ratio"`
	SymbolRatio          float64                `json:"symbol_ratio"`
	AvgLineLen           float64                `json:"avg_line_len"`
	StdLineLen           float64                `json:"std_line_len"`
	ControlCharCount     int                    `json:"control_char_count"`
	ReplacementCharCount int                    `json:"replacement_char_count"`
	RepeatedRunScore     float64                `json:"repeated_run_score"`
	GibberishScore       float64                `json:"gibberish_score"`
	GibberishFlags       []string               `json:"gibberish_flags,omitempty"`
	Score                float64                `json:"text_quality_score"`
	Label                constants.QualityLabel `json:"text_quality_label"`
	Language             string                 `json:"language,omitempty"`
	Snippet              string                 `json:"snippet,omitempty"`
}

// Accumulator collects counts over page texts. Every field is a sum or a
// set union, so pages may be added in any order and partial accumulators
// may be merged.
type Accumulator struct {
	runMin int

	pages            int
	totalChars       int
	totalWords       int
	nonWhitespace    int
	alpha            int
	digit            int
	printable        int
	control          int
	replacement      int
	repeatedRunChars int
	lineCount        int
	lineLenSum       int
	lineLenSqSum     int
	unique           map[rune]struct{}
}

// NewAccumulator counts runs of at least repeatedRunMin identical symbols.
func NewAccumulator(repeatedRunMin int) *Accumulator {
	if repeatedRunMin <= 0 {
		repeatedRunMin = 1
	}
	return &Accumulator{runMin: repeatedRunMin, unique: make(map[rune]struct{})}
}

// Add accumulates one page. Empty pages are ignored.
func (a *Accumulator) Add(text string) {
	if text == "" {
		return
	}
	a.pages++
	a.totalChars += utf8.RuneCountInString(text)
	a.totalWords += len(strings.Fields(text))

	for _, line := range SplitLines(text) {
		n := utf8.RuneCountInString(strings.TrimSpace(line))
		a.lineLenSum += n
		a.lineLenSqSum += n * n
		a.lineCount++
	}

	var prev rune
	havePrev := false
	run := 0
	for _, r := range text {
		a.unique[r] = struct{}{}
		if r == utf8.RuneError {
			a.replacement++
		}
		if unicode.IsSpace(r) {
			if unicode.IsPrint(r) {
				a.printable++
			}
		} else {
			a.nonWhitespace++
			if unicode.IsLetter(r) {
				a.alpha++
			} else if unicode.IsDigit(r) {
				a.digit++
			}
			if unicode.IsPrint(r) {
				a.printable++
			} else {
				a.control++
			}
		}

		if !havePrev || r != prev {
			a.closeRun(prev, havePrev, run)
			prev, havePrev, run = r, true, 1
		} else {
			run++
		}
	}
	a.closeRun(prev, havePrev, run)
}

func (a *Accumulator) closeRun(r rune, ok bool, n int) {
	if ok && n >= a.runMin && !isAlnum(r) && !unicode.IsSpace(r) {
		a.repeatedRunChars += n
	}
}

// Merge folds other into a.
func (a *Accumulator) Merge(other *Accumulator) {
	a.pages += other.pages
	a.totalChars += other.totalChars
	a.totalWords += other.totalWords
	a.nonWhitespace += other.nonWhitespace
	a.alpha += other.alpha
	a.digit += other.digit
	a.printable += other.printable
	a.control += other.control
	a.replacement += other.replacement
	a.repeatedRunChars += other.repeatedRunChars
	a.lineCount += other.lineCount
	a.lineLenSum += other.lineLenSum
	a.lineLenSqSum += other.lineLenSqSum
	for r := range other.unique {
		a.unique[r] = struct{}{}
	}
}

// Finalize derives ratios, the gibberish score and the label. textPages is
// the number of pages that carried text, used for the per-page averages;
// zero falls back to the number of non-empty pages added.
func (a *Accumulator) Finalize(cfg Config, textPages int) Stats {
	if textPages <= 0 {
		textPages = a.pages
	}
	s := Stats{
		TotalChars:           a.totalChars,
		TotalWords:           a.totalWords,
		TextPagesScanned:     textPages,
		ControlCharCount:     a.control,
		ReplacementCharCount: a.replacement,
	}
	if textPages > 0 {
		s.AvgCharsPerTextPage = float64(a.totalChars) / float64(textPages)
		s.AvgWordsPerTextPage = float64(a.totalWords) / float64(textPages)
	}
	if a.nonWhitespace > 0 {
		nw := float64(a.nonWhitespace)
		s.AlphaRatio = float64(a.alpha) / nw
		s.DigitRatio = float64(a.digit) / nw
		s.SymbolRatio = float64(a.nonWhitespace-a.alpha-a.digit) / nw
	}
	if a.totalChars > 0 {
		tc := float64(a.totalChars)
		s.PrintableRatio = float64(a.printable) / tc
		s.UniqueCharRatio = float64(len(a.unique)) / tc
		s.RepeatedRunScore = float64(a.repeatedRunChars) / tc
	}
	if a.lineCount > 0 {
		lc := float64(a.lineCount)
		s.AvgLineLen = float64(a.lineLenSum) / lc
		s.StdLineLen = math.Sqrt(math.Max(float64(a.lineLenSqSum)/lc-s.AvgLineLen*s.AvgLineLen, 0))
	}
	s.GibberishScore = GibberishScore(s, cfg)
	s.GibberishFlags = GibberishFlags(s, cfg)
	s.Label = Label(s, cfg)
	s.Score = Score(s)
	return s
}

// penalty is one gibberish condition and its fixed increment.
type penalty struct {
	name   string
	weight float64
	hit    func(s Stats, c Config) bool
}

var penalties = []penalty{
	{"low_alpha", 0.35, func(s Stats, c Config) bool { return s.AlphaRatio < c.MinAlphaRatio }},
	{"low_printable", 0.15, func(s Stats, c Config) bool { return s.PrintableRatio < c.MinPrintableRatio }},
	{"few_words", 0.15, func(s Stats, c Config) bool {
		return s.TotalWords < c.GibberishMinWords && s.TotalChars >= c.EmptyMinChars
	}},
	{"symbol_heavy", 0.15, func(s Stats, c Config) bool { return s.SymbolRatio > c.GibberishSymbolRatio }},
	{"replacement_chars", 0.1, func(s Stats, _ Config) bool { return s.ReplacementCharCount > 0 }},
	{"control_chars", 0.1, func(s Stats, _ Config) bool { return s.ControlCharCount > 0 }},
	{"repeated_runs", 0.15, func(s Stats, c Config) bool { return s.RepeatedRunScore >= c.RepeatedRunRatio }},
}

// GibberishScore sums the penalties that apply, capped at 1.
func GibberishScore(s Stats, cfg Config) float64 {
	if s.TotalChars == 0 {
		return 0
	}
	var score float64
	for _, p := range penalties {
		if p.hit(s, cfg) {
			score += p.weight
		}
	}
	return math.Min(score, 1)
}

// GibberishFlags names the penalties that apply.
func GibberishFlags(s Stats, cfg Config) []string {
	if s.TotalChars == 0 {
		return nil
	}
	var flags []string
	for _, p := range penalties {
		if p.hit(s, cfg) {
			flags = append(flags, p.name)
		}
	}
	return flags
}

// Label applies the EMPTY, LOW, GOOD ladder.
func Label(s Stats, cfg Config) constants.QualityLabel {
	switch {
	case s.TotalChars < cfg.EmptyMinChars || s.TotalWords < cfg.EmptyMinWords:
		return constants.QualityEmpty
	case s.GibberishScore >= cfg.MaxGibberish,
		s.AlphaRatio < cfg.MinAlphaRatio,
		s.PrintableRatio < cfg.MinPrintableRatio:
		return constants.QualityLow
	default:
		return constants.QualityGood
	}
}

// Score is a continuous ranking value in [0, 1].
func Score(s Stats) float64 {
	words := math.Min(float64(s.TotalWords)/200, 1)
	base := 0.5*s.AlphaRatio + 0.3*s.PrintableRatio + 0.2*words
	return math.Max(math.Min(base*(1-s.GibberishScore), 1), 0)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r)
}

// SplitLines splits on the universal line boundaries, treating \r\n as one
// break. A trailing break does not produce an empty final line.
func SplitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if isLineBreak(r) {
			lines = append(lines, text[start:i])
			i += size
			if r == '\r' && i < len(text) && text[i] == '\n' {
				i++
			}
			start = i
			continue
		}
		i += size
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}
