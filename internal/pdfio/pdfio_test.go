package pdfio

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
)

type stubRunner struct {
	calls  [][]string
	stdout []byte
	err    error
	// onRun writes side effects such as the rendered page file.
	onRun func(args []string) error
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	if s.onRun != nil {
		if err := s.onRun(args); err != nil {
			return nil, []byte("boom"), err
		}
	}
	return s.stdout, nil, s.err
}

func writeGrayPNG(t *testing.T, path string, w, h int, v uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestRenderGrayDecodesSinglePage(t *testing.T) {
	stub := &stubRunner{onRun: func(args []string) error {
		prefix := args[len(args)-1]
		writeGrayPNG(t, prefix+".png", 8, 4, 17)
		return nil
	}}
	r := NewRenderer(RenderConfig{TempDir: t.TempDir()}, stub, nil)

	g, err := r.RenderGray(context.Background(), "doc.pdf", 2, 100)
	if err != nil {
		t.Fatalf("RenderGray: %v", err)
	}
	if g.W != 8 || g.H != 4 {
		t.Fatalf("size = %dx%d, want 8x4", g.W, g.H)
	}
	for _, p := range g.Pix {
		if p != 17 {
			t.Fatalf("pixel = %d, want 17", p)
		}
	}
	want := []string{"pdftoppm", "-r", "100", "-gray", "-f", "3", "-l", "3", "-singlefile", "-png", "doc.pdf"}
	got := stub.calls[0][:len(want)]
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderGrayMissingBinary(t *testing.T) {
	stub := &stubRunner{err: &exec.Error{Name: "pdftoppm", Err: exec.ErrNotFound}}
	r := NewRenderer(RenderConfig{TempDir: t.TempDir()}, stub, nil)

	_, err := r.RenderGray(context.Background(), "doc.pdf", 0, 72)
	if !common.IsBackendUnavailable(err) {
		t.Fatalf("err = %v, want backend unavailable", err)
	}
}

func TestRenderGrayFailureIsRenderError(t *testing.T) {
	stub := &stubRunner{err: errors.New("exit status 1")}
	r := NewRenderer(RenderConfig{TempDir: t.TempDir()}, stub, nil)

	_, err := r.RenderGray(context.Background(), "doc.pdf", 0, 72)
	if !errors.Is(err, common.ErrRender) {
		t.Fatalf("err = %v, want ErrRender", err)
	}
	if common.IsBackendUnavailable(err) {
		t.Fatal("ordinary failure reported as backend outage")
	}
}

func TestRenderGrayNoOutput(t *testing.T) {
	r := NewRenderer(RenderConfig{TempDir: t.TempDir()}, &stubRunner{}, nil)
	_, err := r.RenderGray(context.Background(), "doc.pdf", 0, 72)
	if !errors.Is(err, common.ErrRender) {
		t.Fatalf("err = %v, want ErrRender", err)
	}
}

func TestDecodeRasterConvertsColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{255, 255, 255, 255})
	img.Set(1, 0, color.RGBA{0, 0, 0, 255})
	var sb strings.Builder
	if err := png.Encode(&sb, img); err != nil {
		t.Fatal(err)
	}
	g, err := decodeRaster([]byte(sb.String()), "png")
	if err != nil {
		t.Fatalf("decodeRaster: %v", err)
	}
	if diff := cmp.Diff([]uint8{255, 0}, g.Pix); diff != "" {
		t.Errorf("pixels (-want +got):\n%s", diff)
	}
}

func TestPageTextsSplitsOnFormFeed(t *testing.T) {
	stub := &stubRunner{stdout: []byte("page one\fpage two\f\f")}
	e := NewTextExtractor(TextConfig{}, stub, nil)

	pages, err := e.PageTexts(context.Background(), "doc.pdf", 0)
	if err != nil {
		t.Fatalf("PageTexts: %v", err)
	}
	if diff := cmp.Diff([]string{"page one", "page two", ""}, pages); diff != "" {
		t.Errorf("pages (-want +got):\n%s", diff)
	}
	if got := stub.calls[0]; got[len(got)-2] != "doc.pdf" || got[len(got)-1] != "-" {
		t.Errorf("unexpected args %v", got)
	}
}

func TestPageTextsHonorsMaxPages(t *testing.T) {
	stub := &stubRunner{stdout: []byte("a\fb\fc\f")}
	e := NewTextExtractor(TextConfig{Pdftotext: "/opt/pdftotext"}, stub, nil)

	pages, err := e.PageTexts(context.Background(), "doc.pdf", 2)
	if err != nil {
		t.Fatalf("PageTexts: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("len = %d, want 2", len(pages))
	}
	call := strings.Join(stub.calls[0], " ")
	if !strings.HasPrefix(call, "/opt/pdftotext ") || !strings.Contains(call, "-l 2") {
		t.Errorf("call = %q", call)
	}
}

func TestPageTextsExtractError(t *testing.T) {
	stub := &stubRunner{err: errors.New("exit status 1")}
	e := NewTextExtractor(TextConfig{}, stub, nil)
	if _, err := e.PageTexts(context.Background(), "doc.pdf", 0); !errors.Is(err, common.ErrExtract) {
		t.Fatalf("err = %v, want ErrExtract", err)
	}
}

func TestSplitPages(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"only", []string{"only"}},
		{"a\f", []string{"a"}},
		{"a\f\fc", []string{"a", "", "c"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, SplitPages(tt.in)); diff != "" {
			t.Errorf("SplitPages(%q) (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestInspectMissingFile(t *testing.T) {
	_, err := NewInspector(nil).Inspect("/nonexistent/doc.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if common.ErrorCode(err) != common.CodeExtract {
		t.Errorf("code = %s", common.ErrorCode(err))
	}
}

func TestStructurePageBounds(t *testing.T) {
	s := Structure{PageCount: 1, Pages: []PageStructure{{FontCount: 2}}}
	if p, ok := s.Page(0); !ok || p.FontCount != 2 {
		t.Errorf("Page(0) = %+v, %v", p, ok)
	}
	if _, ok := s.Page(1); ok {
		t.Error("Page(1) should be out of range")
	}
}
