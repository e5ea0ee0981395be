package raster

import "math"

// DefaultEdgeThreshold is the Sobel gradient magnitude above which a pixel counts as an edge.
const DefaultEdgeThreshold = 50.0

// HistogramEntropy is the Shannon entropy (bits) of the 256-bin intensity
// histogram. ok is false for an empty buffer.
func (g *Gray) HistogramEntropy() (float64, bool) {
	if g.Empty() {
		return 0, false
	}
	h := g.Histogram()
	n := float64(len(g.Pix))
	var e float64
	for _, c := range h {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		e -= p * math.Log2(p)
	}
	return e, true
}

// EdgeDensity is the fraction of interior pixels whose 3×3 Sobel gradient
// magnitude exceeds threshold. ok is false when either side is under 3 pixels.
func (g *Gray) EdgeDensity(threshold float64) (float64, bool) {
	if g.Empty() || g.W < 3 || g.H < 3 {
		return 0, false
	}
	w := g.W
	px := func(x, y int) float64 { return float64(g.Pix[y*w+x]) }
	edges := 0
	for y := 1; y < g.H-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1)
			gy := px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1)
			if math.Hypot(gx, gy) > threshold {
				edges++
			}
		}
	}
	return float64(edges) / float64((g.W-2)*(g.H-2)), true
}

// OtsuThreshold returns the intensity that maximizes between-class variance
// when pixels <= t are ink and pixels > t are background.
func (g *Gray) OtsuThreshold() int {
	if g.Empty() {
		return 0
	}
	h := g.Histogram()
	total := float64(len(g.Pix))
	var sumTotal float64
	for i, c := range h {
		sumTotal += float64(i) * float64(c)
	}
	var sumBg, weightBg float64
	maxVar := -1.0
	threshold := 0
	for i := 0; i < 256; i++ {
		weightBg += float64(h[i])
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(i) * float64(h[i])
		meanBg := sumBg / weightBg
		meanFg := (sumTotal - sumBg) / weightFg
		between := weightBg * weightFg * (meanBg - meanFg) * (meanBg - meanFg)
		if between > maxVar {
			maxVar = between
			threshold = i
		}
	}
	return threshold
}

// Binarize marks ink pixels (intensity <= t) as 1.
func (g *Gray) Binarize(t int) *Binary {
	b := &Binary{W: g.W, H: g.H, Bits: make([]uint8, len(g.Pix))}
	for i, p := range g.Pix {
		if int(p) <= t {
			b.Bits[i] = 1
		}
	}
	return b
}

// Binary is a 0/1 ink mask with the dimensions of its source buffer.
type Binary struct {
	W, H int
	Bits []uint8
}

// InkRatio is the fraction of ink pixels.
func (b *Binary) InkRatio() float64 {
	if b == nil || len(b.Bits) == 0 {
		return 0
	}
	n := 0
	for _, v := range b.Bits {
		n += int(v)
	}
	return float64(n) / float64(len(b.Bits))
}

// ProjectionVariance returns the population variance of per-row and
// per-column ink counts. ok is false for an empty mask.
func (b *Binary) ProjectionVariance() (row, col float64, ok bool) {
	if b == nil || b.W <= 0 || b.H <= 0 || len(b.Bits) == 0 {
		return 0, 0, false
	}
	rows := make([]float64, b.H)
	cols := make([]float64, b.W)
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			v := float64(b.Bits[y*b.W+x])
			rows[y] += v
			cols[x] += v
		}
	}
	return variance(rows), variance(cols), true
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return ss / float64(len(xs))
}
