package readiness

import (
	"errors"
	"strings"
	"testing"

	"github.com/joseph-ayodele/doc-readiness/constants"
	"github.com/joseph-ayodele/doc-readiness/internal/common"
)

func newClassifier(t *testing.T, cfg Config) *Classifier {
	t.Helper()
	c, err := NewClassifier(cfg)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func TestPageTrimsWhitespace(t *testing.T) {
	c := newClassifier(t, DefaultConfig())
	p := c.Page(3, "  \n"+strings.Repeat("x", 24)+"\n\t ")
	if p.CharCount != 24 || p.HasText {
		t.Errorf("got %+v, want 24 chars without text", p)
	}
	p = c.Page(3, strings.Repeat("é", 25))
	if p.CharCount != 25 || !p.HasText {
		t.Errorf("runes should be counted, got %+v", p)
	}
}

func TestTenPageScenario(t *testing.T) {
	cfg := Config{TextCharThreshold: 25, DocTextPctText: 0.5, DocTextMinCharsPerPage: 200, DocTextPctScanned: 0.1}
	c := newClassifier(t, cfg)

	build := func(perPage int) []string {
		pages := make([]string, 10)
		for i := 0; i < 9; i++ {
			pages[i] = strings.Repeat("a", perPage)
		}
		return pages
	}

	dense := c.Document(build(250))
	if dense.TextCoveragePct != 0.9 {
		t.Fatalf("coverage = %v, want 0.9", dense.TextCoveragePct)
	}
	if dense.AvgTextCharsPerPage != 225 || dense.Classification != constants.ClassTextBased {
		t.Errorf("dense: avg=%v class=%s", dense.AvgTextCharsPerPage, dense.Classification)
	}

	sparse := c.Document(build(30))
	if sparse.TextCoveragePct != 0.9 || sparse.Classification != constants.ClassMixed {
		t.Errorf("sparse: coverage=%v class=%s", sparse.TextCoveragePct, sparse.Classification)
	}
	if sparse.PagesWithText != 9 || sparse.PageCount != 10 || len(sparse.Pages) != 10 {
		t.Errorf("sparse counts: %+v", sparse)
	}
	if sparse.Pages[9].PageNum != 10 || sparse.Pages[9].HasText {
		t.Errorf("last page: %+v", sparse.Pages[9])
	}
}

func TestClassifyMonotonicInCoverage(t *testing.T) {
	c := newClassifier(t, DefaultConfig())
	const avg = 500.0
	prev := -1
	rank := map[constants.Classification]int{
		constants.ClassScanned:   0,
		constants.ClassMixed:     1,
		constants.ClassTextBased: 2,
	}
	for i := 0; i <= 100; i++ {
		cov := float64(i) / 100
		got := c.Classify(cov, avg)
		switch {
		case cov < 0.10 && got != constants.ClassScanned:
			t.Errorf("coverage %v -> %s, want Scanned", cov, got)
		case cov >= 0.50 && got != constants.ClassTextBased:
			t.Errorf("coverage %v -> %s, want Text-based", cov, got)
		case cov >= 0.10 && cov < 0.50 && got != constants.ClassMixed:
			t.Errorf("coverage %v -> %s, want Mixed", cov, got)
		}
		if rank[got] < prev {
			t.Fatalf("classification regressed at coverage %v", cov)
		}
		prev = rank[got]
	}
}

func TestNoPagesIsUnknown(t *testing.T) {
	c := newClassifier(t, DefaultConfig())
	d := c.Document(nil)
	if d.Classification != constants.ClassUnknown || d.TextCoveragePct != 0 {
		t.Errorf("got %+v", d)
	}
}

func TestConfigRejectsInvertedThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DocTextPctScanned = 0.8
	if _, err := NewClassifier(cfg); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func TestStableDocID(t *testing.T) {
	if got := StableDocID(" abc ", "a/b.pdf", 10, "t"); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := StableDocID("", "a/b.pdf", 10, "2024-01-01T00:00:00Z"); got != "a/b.pdf|10|2024-01-01T00:00:00Z" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeRelPath(t *testing.T) {
	tests := map[string]string{
		"":                          "",
		"  ./a/b.pdf ":              "a/b.pdf",
		"\\\\share\\x\\.\\y.pdf":    "share/x/y.pdf",
		"/abs//path/./f.pdf":        "abs/path/f.pdf",
		"./box.zip::./inner\\a.pdf": "box.zip::inner/a.pdf",
	}
	for in, want := range tests {
		if got := NormalizeRelPath(in); got != want {
			t.Errorf("NormalizeRelPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTopLevelFolder(t *testing.T) {
	tests := map[string]string{
		"DataSet 1/sub/a.pdf":    "DataSet 1",
		"a.pdf":                  "",
		"vol2/box.zip::in/a.pdf": "vol2",
	}
	for in, want := range tests {
		if got := TopLevelFolder(in); got != want {
			t.Errorf("TopLevelFolder(%q) = %q, want %q", in, got, want)
		}
	}
}
