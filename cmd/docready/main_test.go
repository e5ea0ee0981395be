package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
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

func TestLabelCheck(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	writeFile(t, filepath.Join(docs, "a", "one.pdf"), "%PDF-1.4 one")
	writeFile(t, filepath.Join(docs, "b", "two.pdf"), "%PDF-1.4 two")
	writeFile(t, filepath.Join(docs, "b", "notes.txt"), "skip me")
	labels := filepath.Join(dir, "labels.csv")
	writeFile(t, labels, "rel_path,label_raw\na/one.pdf,IMAGE_PDF\nc/gone.pdf,MIXED_PDF\n")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	args := []string{"docready", "--log-level", "error", "label-check", "--dir", docs, "--labels", labels, "--list"}
	if err := app.Run(args); err != nil {
		t.Fatalf("label-check: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"documents:        2",
		"labels_matched:   1",
		"labels_orphaned:  1",
		"docs_unlabeled:   1",
		"  c/gone.pdf",
		"  b/two.pdf",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestLabelCheckRequiresInput(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"docready", "--log-level", "error", "label-check", "--labels", "x.csv"})
	if err == nil || !strings.Contains(err.Error(), "--dir or --inventory") {
		t.Fatalf("err = %v", err)
	}
}

func TestConfigErrorStopsStartup(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, cfg, "log:\n  format: xml\n")
	app := newApp()
	app.Writer = &bytes.Buffer{}
	if err := app.Run([]string{"docready", "--config", cfg, "runs"}); err == nil {
		t.Fatal("expected config validation error")
	}
}
