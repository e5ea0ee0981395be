// Package export writes probe runs as spreadsheets for reviewers.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doc-readiness/internal/probe"
)

const (
	SheetDocuments = "Documents"
	SheetPages     = "Pages"
	SheetErrors    = "Errors"
	SheetSummary   = "Summary"
)

var documentHeaders = []string{
	"doc_id",
	"rel_path",
	"top_level_folder",
	"status",
	"page_count",
	"pages_with_text",
	"text_coverage_pct",
	"avg_text_chars_per_page",
	"classification",
	"pages_black_checked",
	"pages_mostly_black",
	"mostly_black_pct",
	"text_quality_label",
	"text_quality_score",
	"language",
	"content_type_pred",
	"content_type_confidence",
	"doc_type_model",
	"doc_type_model_confidence",
	"doc_type_final",
	"doc_type_source",
	"notes",
	"resolved_file_path",
}

var pageHeaders = []string{
	"doc_id",
	"page_num",
	"text_char_count",
	"has_text",
	"median_luminance",
	"black_ratio",
	"adaptive_black_ratio",
	"is_mostly_black",
	"matched_rule",
	"note",
}

// Service turns a run into XLSX bytes.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// DocumentsXLSX returns a workbook with one row per document, one row per
// page, the sampled run errors and the run summary. Missing values are
// left as empty cells.
func (s *Service) DocumentsXLSX(run *probe.Run) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDocuments); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetPages, SheetErrors, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	writeHeader(f, SheetDocuments, documentHeaders)
	writeHeader(f, SheetPages, pageHeaders)
	writeHeader(f, SheetErrors, []string{"doc_id", "stage", "message", "path"})

	pageRow := 2
	for i, d := range run.Documents {
		row := i + 2
		var modelLabel string
		var modelConf any
		if d.Model != nil {
			modelLabel = string(d.Model.Label)
			modelConf = d.Model.Confidence
		}
		writeRow(f, SheetDocuments, row, []any{
			d.DocID,
			d.RelPath,
			d.TopLevelFolder,
			string(d.Status),
			d.Readiness.PageCount,
			d.Readiness.PagesWithText,
			d.Readiness.TextCoveragePct,
			d.Readiness.AvgTextCharsPerPage,
			string(d.Readiness.Classification),
			d.Darkness.PagesChecked,
			d.Darkness.PagesMostlyBlack,
			optional(d.Darkness.MostlyBlackPct),
			string(d.Quality.Label),
			d.Quality.Score,
			d.Quality.Language,
			string(d.Content.Category),
			d.Content.Confidence,
			modelLabel,
			modelConf,
			d.Decision.Final,
			string(d.Decision.Source),
			truncate(d.NotesString(), 500),
			d.Path,
		})

		for _, p := range d.Pages {
			vals := []any{p.DocID, p.PageNum, p.TextCharCount, p.HasText, nil, nil, nil, nil, "", p.Note}
			if m := p.Darkness; m != nil {
				vals[4], vals[5], vals[6], vals[7], vals[8] = m.Median, m.BlackRatio, m.AdaptiveRatio, m.IsMostlyBlack, m.MatchedRule
			}
			writeRow(f, SheetPages, pageRow, vals)
			pageRow++
		}
	}

	for i, e := range run.Errors {
		writeRow(f, SheetErrors, i+2, []any{e.DocID, e.Stage, truncate(e.Message, 500), e.Path})
	}
	writeSummary(f, run)

	_ = f.SetPanes(SheetDocuments, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	_ = f.SetColWidth(SheetDocuments, "A", "A", 18)
	_ = f.SetColWidth(SheetDocuments, "B", "B", 48)
	_ = f.SetColWidth(SheetDocuments, "V", "V", 60)
	_ = f.SetColWidth(SheetDocuments, "W", "W", 60)
	_ = f.SetColWidth(SheetErrors, "C", "D", 60)
	if idx, err := f.GetSheetIndex(SheetDocuments); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"run_id", run.ID,
		"documents", len(run.Documents),
		"pages", pageRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteFile writes the workbook for run to path, creating parent directories.
func (s *Service) WriteFile(run *probe.Run, path string) error {
	data, err := s.DocumentsXLSX(run)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeSummary(f *excelize.File, run *probe.Run) {
	sum := run.Summary
	rows := [][]any{
		{"run_id", run.ID},
		{"started_at", run.StartedAt.Format(time.RFC3339)},
		{"finished_at", run.FinishedAt.Format(time.RFC3339)},
		{"model_id", run.ModelID},
		{"candidates", sum.Candidates},
		{"documents", sum.Documents},
		{"errors", sum.Errors},
		{"pages_black_checked", sum.PagesChecked},
		{"pages_mostly_black", sum.PagesMostlyBlack},
		{"runtime_seconds", sum.RuntimeSeconds},
	}
	for _, group := range []struct {
		name   string
		counts map[string]int
	}{
		{"status", sum.Statuses},
		{"classification", sum.Classifications},
		{"text_quality_label", sum.QualityLabels},
		{"content_type_pred", sum.ContentTypes},
		{"doc_type_final", sum.DocTypes},
		{"doc_type_source", sum.DocTypeSources},
	} {
		keys := make([]string, 0, len(group.counts))
		for k := range group.counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, []any{group.name + ":" + k, group.counts[k]})
		}
	}
	for i, r := range rows {
		writeRow(f, SheetSummary, i+1, r)
	}
	_ = f.SetColWidth(SheetSummary, "A", "A", 36)
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	vals := make([]any, len(headers))
	for i, h := range headers {
		vals[i] = h
	}
	writeRow(f, sheet, 1, vals)
}

func writeRow(f *excelize.File, sheet string, row int, vals []any) {
	for col, v := range vals {
		if v == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func optional(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
