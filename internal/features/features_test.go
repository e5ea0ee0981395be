package features

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
	"github.com/joseph-ayodele/doc-readiness/internal/pdfio"
	"github.com/joseph-ayodele/doc-readiness/internal/raster"
)

func TestSamplePagesDeterministic(t *testing.T) {
	a := SamplePages(100, 5, 42, "vol1/doc.pdf")
	b := SamplePages(100, 5, 42, "vol1/doc.pdf")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same inputs, different sample (-a +b):\n%s", diff)
	}
	if len(a) != 5 {
		t.Fatalf("len = %d", len(a))
	}
	seen := map[int]bool{}
	for i, p := range a {
		if p < 0 || p >= 100 || seen[p] {
			t.Fatalf("bad sample %v", a)
		}
		seen[p] = true
		if i > 0 && a[i-1] >= p {
			t.Fatalf("not sorted: %v", a)
		}
	}
}

func TestSamplePagesVariesWithInputs(t *testing.T) {
	base := SamplePages(500, 5, 42, "a.pdf")
	if cmp.Equal(base, SamplePages(500, 5, 42, "b.pdf")) && cmp.Equal(base, SamplePages(500, 5, 43, "a.pdf")) {
		t.Error("sample ignores both path and seed")
	}
}

func TestSamplePagesSmallDocuments(t *testing.T) {
	if diff := cmp.Diff([]int{0, 1, 2}, SamplePages(3, 5, 1, "x")); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, SamplePages(3, 3, 1, "x")); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if got := SamplePages(0, 5, 1, "x"); got != nil {
		t.Errorf("got %v", got)
	}
	if got := SamplePages(10, 0, 1, "x"); len(got) != 1 {
		t.Errorf("at least one page is sampled, got %v", got)
	}
}

func TestPageFeaturesMissingRender(t *testing.T) {
	f := PageFeatures(&pdfio.PageStructure{FontCount: 3}, nil)
	if !f["font_present"].Valid || f["font_present"].V != 1 || f["font_count"].V != 3 {
		t.Errorf("font features = %+v", f)
	}
	if f["image_present"].V != 0 || !f["image_present"].Valid {
		t.Errorf("image features = %+v", f["image_present"])
	}
	if f["gray_mean"].Valid {
		t.Error("raster features must be missing without a render")
	}

	f = PageFeatures(nil, raster.New(10, 10, 255))
	if f["font_present"].Valid {
		t.Error("structure features must be missing without structure")
	}
	if f["gray_mean"].V != 255 || f["edge_density"].V != 0 {
		t.Errorf("raster features = %+v", f)
	}
}

func TestAggregateSkipsMissing(t *testing.T) {
	pages := []map[string]Value{
		{"gray_mean": Of(100), "font_count": Of(2)},
		{"font_count": Of(4)},
		{"gray_mean": Of(200), "font_count": Of(9)},
	}
	v := Aggregate("a.pdf", Sampling{PagesSampled: 3, DPI: 72, Seed: 1}, pages, nil)
	if got := v.Get("gray_mean_mean"); got != Of(150) {
		t.Errorf("gray_mean_mean = %+v", got)
	}
	if got := v.Get("font_count_median"); got != Of(4) {
		t.Errorf("font_count_median = %+v", got)
	}
	if got := v.Get("edge_density_mean"); got.Valid {
		t.Errorf("edge_density_mean should be missing, got %+v", got)
	}
	if got := v.Get("probe_page_count"); got.Valid {
		t.Error("probe features should be missing without probe metrics")
	}
	if len(v.Ordered(Names())) != len(ProbeKeys)+2*len(PageKeys) {
		t.Error("ordered length mismatch")
	}
}

func TestValueJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Value{"a": Of(1.5), "b": Missing})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"a":1.5,"b":null}` {
		t.Errorf("json = %s", b)
	}
	var back map[string]Value
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back["a"] != Of(1.5) || back["b"].Valid {
		t.Errorf("round trip = %+v", back)
	}
}

type stubInspector struct {
	s   pdfio.Structure
	err error
}

func (s stubInspector) Inspect(string) (pdfio.Structure, error) { return s.s, s.err }

type stubRenderer struct {
	mu    sync.Mutex
	calls []int
	fail  map[int]error
}

func (r *stubRenderer) RenderGray(_ context.Context, _ string, pageIndex, _ int) (*raster.Gray, error) {
	r.mu.Lock()
	r.calls = append(r.calls, pageIndex)
	r.mu.Unlock()
	if err := r.fail[pageIndex]; err != nil {
		return nil, err
	}
	return raster.New(20, 20, uint8(10*pageIndex)), nil
}

func newExtractor(t *testing.T, r pdfio.PageRenderer, i pdfio.StructureSource) *Extractor {
	t.Helper()
	e, err := NewExtractor(DefaultConfig(), r, i, nil)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return e
}

func TestExtractRendersSampleAndDegrades(t *testing.T) {
	structure := pdfio.Structure{PageCount: 3, Pages: []pdfio.PageStructure{{FontCount: 1}, {ImageCount: 1}, {}}}
	r := &stubRenderer{fail: map[int]error{1: common.NewAppError(common.CodeRender, "bad page", common.ErrRender)}}
	e := newExtractor(t, r, stubInspector{s: structure})

	probe := &ProbeMetrics{PageCount: Of(3)}
	res, err := e.Extract(context.Background(), Request{Path: "x.pdf", RelPath: "x.pdf", Probe: probe}, Sampling{PagesSampled: 5, DPI: 72, Seed: 42})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, res.SampledIdx); diff != "" {
		t.Errorf("sample (-want +got):\n%s", diff)
	}
	if res.PagesFailed != 1 || len(res.Notes) != 1 {
		t.Errorf("failed = %d, notes = %v", res.PagesFailed, res.Notes)
	}
	// pages 0 and 2 rendered at intensities 0 and 20
	if got := res.Vector.Get("gray_mean_mean"); got != Of(10) {
		t.Errorf("gray_mean_mean = %+v", got)
	}
	// structure features still counted for the failed page
	if got := res.Vector.Get("image_present_mean"); got != Of(1.0/3) {
		t.Errorf("image_present_mean = %+v", got)
	}
	if got := res.Vector.Get("probe_page_count"); got != Of(3) {
		t.Errorf("probe_page_count = %+v", got)
	}
	if res.Vector.Sampling.Seed != 42 {
		t.Errorf("sampling not recorded: %+v", res.Vector.Sampling)
	}
}

func TestExtractWithoutStructureUsesHint(t *testing.T) {
	r := &stubRenderer{}
	e := newExtractor(t, r, stubInspector{err: errors.New("encrypted")})
	res, err := e.Extract(context.Background(), Request{Path: "x.pdf", RelPath: "x.pdf", PageCountHint: 2}, Sampling{PagesSampled: 5, DPI: 72})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(r.calls) != 2 {
		t.Errorf("render calls = %v", r.calls)
	}
	if res.Vector.Get("font_count_mean").Valid {
		t.Error("font features should be missing")
	}
	if !res.Vector.Get("gray_mean_mean").Valid {
		t.Error("raster features should be present")
	}
}

func TestExtractNoPages(t *testing.T) {
	e := newExtractor(t, &stubRenderer{}, stubInspector{err: errors.New("broken")})
	res, err := e.Extract(context.Background(), Request{Path: "x.pdf", RelPath: "x.pdf"}, DefaultConfig().Sampling)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, n := range Names() {
		if res.Vector.Get(n).Valid {
			t.Errorf("%s should be missing", n)
		}
	}
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &stubRenderer{fail: map[int]error{0: context.Canceled}}
	e := newExtractor(t, r, stubInspector{s: pdfio.Structure{PageCount: 1, Pages: []pdfio.PageStructure{{}}}})
	if _, err := e.Extract(ctx, Request{Path: "x.pdf", RelPath: "x.pdf"}, DefaultConfig().Sampling); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
