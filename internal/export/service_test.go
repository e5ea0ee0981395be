package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doc-readiness/constants"
	"github.com/joseph-ayodele/doc-readiness/internal/darkness"
	"github.com/joseph-ayodele/doc-readiness/internal/doctype"
	"github.com/joseph-ayodele/doc-readiness/internal/probe"
	"github.com/joseph-ayodele/doc-readiness/internal/readiness"
)

func testRun() *probe.Run {
	return &probe.Run{
		ID: "run-x",
		Documents: []probe.DocumentResult{
			{
				DocID: "d1", RelPath: "a/one.pdf", Status: constants.DocStatusOK,
				Readiness: readiness.Document{PageCount: 2, PagesWithText: 1, Classification: constants.ClassMixed},
				Decision:  doctype.Decision{Final: "MIXED_PDF", Source: constants.SourceHeuristic},
				Pages: []probe.PageRecord{
					{DocID: "d1", PageNum: 1, TextCharCount: 300, HasText: true, Darkness: &darkness.Metrics{Median: 250, BlackRatio: 0.01}},
					{DocID: "d1", PageNum: 2, Note: "darkness not checked"},
				},
			},
		},
		Errors:  []probe.ErrorEntry{{DocID: "d1", Stage: "darkness", Message: "page 2: boom"}},
		Summary: probe.Summary{Documents: 1, Statuses: map[string]int{"OK": 1}},
	}
}

func TestDocumentsXLSX(t *testing.T) {
	data, err := NewService(nil).DocumentsXLSX(testRun())
	if err != nil {
		t.Fatalf("DocumentsXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{SheetDocuments, SheetPages, SheetErrors, SheetSummary}, f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}

	docs, err := f.GetRows(SheetDocuments)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("document rows = %d", len(docs))
	}
	if diff := cmp.Diff(documentHeaders, docs[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	row := docs[1]
	if row[0] != "d1" || row[8] != "Mixed" || row[19] != "MIXED_PDF" || row[20] != "HEURISTIC" {
		t.Errorf("document row = %v", row)
	}
	if row[11] != "" {
		t.Errorf("mostly_black_pct = %q, want empty", row[11])
	}

	pages, err := f.GetRows(SheetPages)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 3 {
		t.Fatalf("page rows = %d", len(pages))
	}
	if pages[1][4] != "250" || pages[1][3] != "TRUE" {
		t.Errorf("page 1 = %v", pages[1])
	}
	if got := pages[2][len(pages[2])-1]; got != "darkness not checked" {
		t.Errorf("page 2 note = %q", got)
	}

	summary, err := f.GetRows(SheetSummary)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, r := range summary {
		if len(r) == 2 && r[0] == "status:OK" && r[1] == "1" {
			found = true
		}
	}
	if !found {
		t.Errorf("summary missing status count: %v", summary)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "run.xlsx")
	if err := NewService(nil).WriteFile(testRun(), path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}
