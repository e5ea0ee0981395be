package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/doc-readiness/constants"
	"github.com/joseph-ayodele/doc-readiness/internal/common"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "vol1", "a.pdf"), "%PDF-a")
	writeFile(t, filepath.Join(root, "vol1", "notes.txt"), "skip")
	writeFile(t, filepath.Join(root, "B.PDF"), "%PDF-b")
	writeFile(t, filepath.Join(root, ".cache", "c.pdf"), "%PDF-c")

	s := NewFSScanner(nil)
	got, failures, stats, err := s.ScanDirectory(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("failures = %v", failures)
	}
	if stats.Matched != 2 || stats.Succeeded != 2 {
		t.Errorf("stats = %+v", stats)
	}
	byRel := map[string]Candidate{}
	for _, c := range got {
		byRel[c.RelPath] = c
	}
	a, ok := byRel["vol1/a.pdf"]
	if !ok {
		t.Fatalf("vol1/a.pdf missing from %v", got)
	}
	sum := sha256.Sum256([]byte("%PDF-a"))
	if a.SHA256 != hex.EncodeToString(sum[:]) || a.DocID != a.SHA256 {
		t.Errorf("hash/doc id = %s/%s", a.SHA256, a.DocID)
	}
	if a.TopLevelFolder != "vol1" || a.SizeBytes != 6 {
		t.Errorf("candidate = %+v", a)
	}
	if b := byRel["B.PDF"]; b.TopLevelFolder != "" {
		t.Errorf("root file folder = %q", b.TopLevelFolder)
	}
}

func TestScanWithoutHashFallsBackToPathID(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x.pdf"), "%PDF")
	s := NewFSScanner(nil)
	s.Hash = false
	c, err := s.ScanPath(root, filepath.Join(root, "x.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if c.SHA256 != "" || c.DocID == "" || c.DocID[:6] != "x.pdf|" {
		t.Errorf("doc id = %q", c.DocID)
	}
	if _, err := s.ScanPath(root, filepath.Join(root, "x.txt")); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("non-pdf: err = %v", err)
	}
}

func TestScanDirectoryRequiresRoot(t *testing.T) {
	if _, _, _, err := NewFSScanner(nil).ScanDirectory(context.Background(), " "); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestInventoryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := []Candidate{
		{DocID: "d1", RelPath: "vol1/a.pdf", Path: "/data/vol1/a.pdf", TopLevelFolder: "vol1", SizeBytes: 10, SHA256: "d1"},
		{DocID: "d2", RelPath: "b.pdf", Path: "/data/b.pdf", SizeBytes: 3},
	}
	path := filepath.Join(dir, "inventory.csv")
	if err := WriteInventoryCSV(path, in); err != nil {
		t.Fatal(err)
	}
	out, err := LoadInventoryCSV(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestLoadInventoryDerivesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inv.csv")
	writeFile(t, path, "rel_path,size_bytes\n./vol2\\\\c.pdf,7\n,1\n")
	out, err := LoadInventoryCSV(path, "/root/docs")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %v", out)
	}
	c := out[0]
	if c.RelPath != "vol2/c.pdf" || c.TopLevelFolder != "vol2" || c.DocID != "vol2/c.pdf|7|" {
		t.Errorf("candidate = %+v", c)
	}
	if c.Path != filepath.Join("/root/docs", "vol2", "c.pdf") {
		t.Errorf("path = %q", c.Path)
	}

	writeFile(t, path, "doc_id\nx\n")
	if _, err := LoadInventoryCSV(path, ""); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("missing rel_path column: err = %v", err)
	}
}

func TestLabelsAndReconcile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pdf_type_labels.csv")
	writeFile(t, path, "rel_path,label_raw,notes\n"+
		"vol1/a.pdf,image_pdf,\n"+
		"vol1/b.pdf,TEXT_PDF,legacy\n"+
		"vol1/c.pdf,RECEIPT,\n"+
		"gone.pdf,MIXED_PDF,\n"+
		"vol1/d.pdf,,\n")
	labels, err := LoadLabelsCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]constants.DocType{
		"vol1/a.pdf": constants.ImagePDF,
		"vol1/b.pdf": constants.ImageOfTextPDF,
		"gone.pdf":   constants.MixedPDF,
	}
	if diff := cmp.Diff(want, labels.ByRelPath); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"vol1/c.pdf"}, labels.Invalid); diff != "" {
		t.Errorf("invalid (-want +got):\n%s", diff)
	}
	if got := labels.Get("./vol1/a.pdf"); got != "IMAGE_PDF" {
		t.Errorf("Get = %q", got)
	}

	rec := Reconcile([]Candidate{{RelPath: "vol1/a.pdf"}, {RelPath: "vol1/b.pdf"}, {RelPath: "vol1/z.pdf"}}, labels)
	if diff := cmp.Diff(Reconciliation{
		Matched:   []string{"vol1/a.pdf", "vol1/b.pdf"},
		Orphaned:  []string{"gone.pdf"},
		Unlabeled: []string{"vol1/z.pdf"},
	}, rec); diff != "" {
		t.Errorf("reconciliation (-want +got):\n%s", diff)
	}
}

func TestLoadLabelsMissingFile(t *testing.T) {
	labels, err := LoadLabelsCSV(filepath.Join(t.TempDir(), "none.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(labels.ByRelPath) != 0 || labels.Get("a.pdf") != "" {
		t.Errorf("labels = %+v", labels)
	}
}
