package raster

import (
	"image"
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestSummarizeMatchesLinearPercentiles(t *testing.T) {
	// values 0..9 once each
	g := &Gray{W: 10, H: 1, Pix: []uint8{9, 3, 1, 0, 4, 7, 2, 8, 5, 6}}
	s := g.Summarize()
	if !approx(s.Mean, 4.5) {
		t.Errorf("mean = %v", s.Mean)
	}
	if !approx(s.Median, 4.5) {
		t.Errorf("median = %v", s.Median)
	}
	if !approx(s.P10, 0.9) {
		t.Errorf("p10 = %v", s.P10)
	}
	if !approx(s.P25, 2.25) {
		t.Errorf("p25 = %v", s.P25)
	}
	if !approx(s.Std, math.Sqrt(8.25)) {
		t.Errorf("std = %v", s.Std)
	}
}

func TestEmptyBuffer(t *testing.T) {
	g := &Gray{}
	if !g.Empty() {
		t.Fatal("zero buffer should be empty")
	}
	if s := g.Summarize(); s != (Stats{}) {
		t.Errorf("stats = %+v", s)
	}
	if _, ok := g.HistogramEntropy(); ok {
		t.Error("entropy of empty buffer should be missing")
	}
	if _, ok := g.EdgeDensity(DefaultEdgeThreshold); ok {
		t.Error("edge density of empty buffer should be missing")
	}
	if c := g.CenterCrop(0.7); !c.Empty() {
		t.Error("crop of empty buffer should be empty")
	}
}

func TestCenterCrop(t *testing.T) {
	g := New(10, 10, 255)
	for y := 3; y < 7; y++ {
		for x := 3; x < 7; x++ {
			g.Pix[y*10+x] = 0
		}
	}
	c := g.CenterCrop(0.4)
	if c.W != 4 || c.H != 4 {
		t.Fatalf("crop = %dx%d", c.W, c.H)
	}
	if r := c.RatioAtOrBelow(40); r != 1 {
		t.Errorf("crop dark ratio = %v, want 1", r)
	}
	if r := g.RatioAtOrBelow(40); !approx(r, 0.16) {
		t.Errorf("full dark ratio = %v, want 0.16", r)
	}
}

func TestFromImageSubImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = uint8(i)
	}
	sub := src.SubImage(image.Rect(1, 1, 3, 3))
	g := FromImage(sub)
	want := []uint8{5, 6, 9, 10}
	for i, v := range want {
		if g.Pix[i] != v {
			t.Fatalf("pix = %v, want %v", g.Pix, want)
		}
	}
}

func TestEntropy(t *testing.T) {
	if e, _ := New(4, 4, 128).HistogramEntropy(); e != 0 {
		t.Errorf("uniform entropy = %v", e)
	}
	g := &Gray{W: 2, H: 1, Pix: []uint8{0, 255}}
	if e, _ := g.HistogramEntropy(); !approx(e, 1) {
		t.Errorf("two-level entropy = %v", e)
	}
}

func TestEdgeDensity(t *testing.T) {
	if d, ok := New(5, 5, 200).EdgeDensity(DefaultEdgeThreshold); !ok || d != 0 {
		t.Errorf("flat edge density = %v, %v", d, ok)
	}
	// left half black, right half white: the two interior columns at the seam are edges
	g := New(6, 3, 255)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			g.Pix[y*6+x] = 0
		}
	}
	d, ok := g.EdgeDensity(DefaultEdgeThreshold)
	if !ok || !approx(d, 0.5) {
		t.Errorf("seam edge density = %v, %v", d, ok)
	}
	if _, ok := New(2, 10, 0).EdgeDensity(DefaultEdgeThreshold); ok {
		t.Error("narrow buffer should report missing")
	}
}

func TestOtsuSeparatesBimodal(t *testing.T) {
	g := &Gray{W: 6, H: 1, Pix: []uint8{10, 12, 14, 200, 210, 220}}
	th := g.OtsuThreshold()
	if th < 14 || th >= 200 {
		t.Fatalf("otsu = %d", th)
	}
	b := g.Binarize(th)
	if !approx(b.InkRatio(), 0.5) {
		t.Errorf("ink ratio = %v", b.InkRatio())
	}
	if New(3, 3, 90).OtsuThreshold() != 0 {
		t.Error("single-level image threshold should be 0")
	}
}

func TestProjectionVariance(t *testing.T) {
	// ink on row 0 only
	b := &Binary{W: 2, H: 2, Bits: []uint8{1, 1, 0, 0}}
	row, col, ok := b.ProjectionVariance()
	if !ok {
		t.Fatal("expected ok")
	}
	if !approx(row, 1) || !approx(col, 0) {
		t.Errorf("row=%v col=%v", row, col)
	}
	if _, _, ok := (&Binary{}).ProjectionVariance(); ok {
		t.Error("empty mask should report missing")
	}
}
