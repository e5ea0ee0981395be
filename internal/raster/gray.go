// Package raster holds the decoded grayscale page buffer and the pixel
// statistics shared by the darkness analyzer and the feature extractor.
package raster

import (
	"image"
	"image/color"
	"math"
)

// Gray is an 8-bit luminance buffer in row-major order.
type Gray struct {
	W, H int
	Pix  []uint8
}

// New allocates a w×h buffer filled with v.
func New(w, h int, v uint8) *Gray {
	if w < 0 || h < 0 {
		w, h = 0, 0
	}
	pix := make([]uint8, w*h)
	if v != 0 {
		for i := range pix {
			pix[i] = v
		}
	}
	return &Gray{W: w, H: h, Pix: pix}
}

// FromImage converts any decoded image to luminance.
func FromImage(img image.Image) *Gray {
	b := img.Bounds()
	g := &Gray{W: b.Dx(), H: b.Dy(), Pix: make([]uint8, b.Dx()*b.Dy())}
	if src, ok := img.(*image.Gray); ok {
		for y := 0; y < g.H; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(g.Pix[y*g.W:(y+1)*g.W], src.Pix[off:off+g.W])
		}
		return g
	}
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			c := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			g.Pix[y*g.W+x] = c.Y
		}
	}
	return g
}

// Len is the pixel count.
func (g *Gray) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Pix)
}

// Empty reports a nil or zero-area buffer.
func (g *Gray) Empty() bool {
	return g == nil || g.W <= 0 || g.H <= 0 || len(g.Pix) == 0
}

// At returns the intensity at (x, y).
func (g *Gray) At(x, y int) uint8 {
	return g.Pix[y*g.W+x]
}

// CenterCrop returns the centered sub-buffer whose sides are frac of the
// original. The result may be empty when frac rounds a side down to zero.
func (g *Gray) CenterCrop(frac float64) *Gray {
	if g.Empty() {
		return &Gray{}
	}
	cw := int(float64(g.W) * frac)
	ch := int(float64(g.H) * frac)
	if cw <= 0 || ch <= 0 {
		return &Gray{}
	}
	if cw > g.W {
		cw = g.W
	}
	if ch > g.H {
		ch = g.H
	}
	x0 := (g.W - cw) / 2
	y0 := (g.H - ch) / 2
	out := &Gray{W: cw, H: ch, Pix: make([]uint8, cw*ch)}
	for y := 0; y < ch; y++ {
		src := (y0+y)*g.W + x0
		copy(out.Pix[y*cw:(y+1)*cw], g.Pix[src:src+cw])
	}
	return out
}

// Histogram counts pixels per intensity.
func (g *Gray) Histogram() [256]int {
	var h [256]int
	if g == nil {
		return h
	}
	for _, p := range g.Pix {
		h[p]++
	}
	return h
}

// RatioAtOrBelow is the fraction of pixels with intensity <= t.
func (g *Gray) RatioAtOrBelow(t float64) float64 {
	if g.Empty() {
		return 0
	}
	n := 0
	for _, p := range g.Pix {
		if float64(p) <= t {
			n++
		}
	}
	return float64(n) / float64(len(g.Pix))
}

// Stats summarizes the intensity distribution of a buffer.
type Stats struct {
	Mean   float64
	Std    float64
	Median float64
	P10    float64
	P25    float64
	P75    float64
	P90    float64
}

// Summarize computes mean, population std and the usual percentiles.
func (g *Gray) Summarize() Stats {
	if g.Empty() {
		return Stats{}
	}
	h := g.Histogram()
	n := float64(len(g.Pix))
	var sum, sq float64
	for v, c := range h {
		if c == 0 {
			continue
		}
		fv := float64(v)
		sum += fv * float64(c)
		sq += fv * fv * float64(c)
	}
	mean := sum / n
	variance := sq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return Stats{
		Mean:   mean,
		Std:    math.Sqrt(variance),
		Median: percentileFromHist(h, len(g.Pix), 50),
		P10:    percentileFromHist(h, len(g.Pix), 10),
		P25:    percentileFromHist(h, len(g.Pix), 25),
		P75:    percentileFromHist(h, len(g.Pix), 75),
		P90:    percentileFromHist(h, len(g.Pix), 90),
	}
}

// Percentile returns the p-th percentile (0..100) using linear interpolation
// between closest ranks.
func (g *Gray) Percentile(p float64) float64 {
	if g.Empty() {
		return 0
	}
	return percentileFromHist(g.Histogram(), len(g.Pix), p)
}

func percentileFromHist(h [256]int, n int, p float64) float64 {
	if n == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	idx := p / 100 * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	vlo := kth(h, lo)
	if hi == lo {
		return vlo
	}
	vhi := kth(h, hi)
	return vlo + (vhi-vlo)*(idx-float64(lo))
}

// kth returns the k-th smallest value (0-based).
func kth(h [256]int, k int) float64 {
	cum := 0
	for v, c := range h {
		cum += c
		if k < cum {
			return float64(v)
		}
	}
	return 255
}
