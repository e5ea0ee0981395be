// Package readiness decides whether a document's text layer is usable
// without OCR.
package readiness

import (
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/doc-readiness/constants"
)

// PageText is the readiness record for one page.
type PageText struct {
	PageNum   int  `json:"page_num"`
	CharCount int  `json:"text_char_count"`
	HasText   bool `json:"has_text"`
}

// Document is the readiness aggregate for one document.
type Document struct {
	PageCount           int                      `json:"page_count"`
	PagesWithText       int                      `json:"pages_with_text"`
	TotalTextChars      int                      `json:"total_text_chars"`
	AvgTextCharsPerPage float64                  `json:"avg_text_chars_per_page"`
	TextCoveragePct     float64                  `json:"text_coverage_pct"`
	Classification      constants.Classification `json:"classification"`
	Pages               []PageText               `json:"-"`
}

// Classifier applies the readiness thresholds.
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg}, nil
}

// Page scores one page of extracted text. Surrounding whitespace does not count.
func (c *Classifier) Page(pageNum int, text string) PageText {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	return PageText{PageNum: pageNum, CharCount: n, HasText: n >= c.cfg.TextCharThreshold}
}

// Document scores the processed pages of a document, page 1 first. The
// page count is the number of processed pages, which may be below the
// document's true page count when a page limit applies.
func (c *Classifier) Document(texts []string) Document {
	d := Document{PageCount: len(texts), Pages: make([]PageText, 0, len(texts))}
	for i, t := range texts {
		p := c.Page(i+1, t)
		d.Pages = append(d.Pages, p)
		d.TotalTextChars += p.CharCount
		if p.HasText {
			d.PagesWithText++
		}
	}
	if d.PageCount == 0 {
		d.Classification = constants.ClassUnknown
		return d
	}
	d.TextCoveragePct = float64(d.PagesWithText) / float64(d.PageCount)
	d.AvgTextCharsPerPage = float64(d.TotalTextChars) / float64(d.PageCount)
	d.Classification = c.Classify(d.TextCoveragePct, d.AvgTextCharsPerPage)
	return d
}

// Classify maps coverage and density to Text-based, Scanned or Mixed.
func (c *Classifier) Classify(coverage, avgChars float64) constants.Classification {
	switch {
	case coverage >= c.cfg.DocTextPctText && avgChars >= c.cfg.DocTextMinCharsPerPage:
		return constants.ClassTextBased
	case coverage < c.cfg.DocTextPctScanned:
		return constants.ClassScanned
	default:
		return constants.ClassMixed
	}
}
