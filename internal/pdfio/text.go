package pdfio

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
)

// TextConfig selects the text extraction binary.
type TextConfig struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
}

// PageTextSource returns extracted text for the first pages of a document.
type PageTextSource interface {
	PageTexts(ctx context.Context, path string, maxPages int) ([]string, error)
}

// TextExtractor runs pdftotext once per document and splits on form feeds.
type TextExtractor struct {
	cfg    TextConfig
	runner Runner
	logger *slog.Logger
}

func NewTextExtractor(cfg TextConfig, runner Runner, logger *slog.Logger) *TextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &TextExtractor{cfg: cfg, runner: runner, logger: logger}
}

// PageTexts returns one string per page, page 1 first. maxPages <= 0 means
// every page.
func (e *TextExtractor) PageTexts(ctx context.Context, path string, maxPages int) ([]string, error) {
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix", "-f", "1"}
	if maxPages > 0 {
		args = append(args, "-l", strconv.Itoa(maxPages))
	}
	args = append(args, path, "-")

	// pdftotext -layout -enc UTF-8 -eol unix -f 1 [-l N] <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classifyExecErr("pdftotext", common.ErrExtract, common.CodeExtract, err, errb)
	}
	pages := SplitPages(string(out))
	if maxPages > 0 && len(pages) > maxPages {
		pages = pages[:maxPages]
	}
	return pages, nil
}

// SplitPages splits pdftotext output on form feed. pdftotext terminates every
// page with \f, so a trailing empty element is dropped.
func SplitPages(text string) []string {
	if text == "" {
		return nil
	}
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
