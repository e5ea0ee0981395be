package doctype

import (
	"math"
	"sort"
)

// pipeline is the fitted transform chain: median imputation, standard
// scaling, then a multinomial linear model over classes.
type pipeline struct {
	medians   []float64
	mean      []float64
	scale     []float64
	coef      [][]float64
	intercept []float64
}

func (p *pipeline) transform(x []float64) []float64 {
	z := make([]float64, len(x))
	for j, v := range x {
		if math.IsNaN(v) {
			v = p.medians[j]
		}
		z[j] = (v - p.mean[j]) / p.scale[j]
	}
	return z
}

func (p *pipeline) proba(z []float64) []float64 {
	return softmax(logits(p.coef, p.intercept, z))
}

func logits(coef [][]float64, intercept []float64, z []float64) []float64 {
	out := make([]float64, len(coef))
	for k, row := range coef {
		s := intercept[k]
		for j, w := range row {
			s += w * z[j]
		}
		out[k] = s
	}
	return out
}

func softmax(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	hi := xs[0]
	for _, x := range xs[1:] {
		hi = max(hi, x)
	}
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// fitMedians returns per-column medians ignoring NaN. A column with no
// observed value gets 0.
func fitMedians(x [][]float64, d int) []float64 {
	med := make([]float64, d)
	col := make([]float64, 0, len(x))
	for j := 0; j < d; j++ {
		col = col[:0]
		for _, row := range x {
			if !math.IsNaN(row[j]) {
				col = append(col, row[j])
			}
		}
		if len(col) == 0 {
			continue
		}
		sort.Float64s(col)
		mid := len(col) / 2
		if len(col)%2 == 1 {
			med[j] = col[mid]
		} else {
			med[j] = (col[mid-1] + col[mid]) / 2
		}
	}
	return med
}

// fitScaler returns column means and population standard deviations of the
// imputed matrix. A constant column gets scale 1.
func fitScaler(x [][]float64, medians []float64) (mean, scale []float64) {
	d := len(medians)
	mean = make([]float64, d)
	scale = make([]float64, d)
	n := float64(len(x))
	for j := 0; j < d; j++ {
		var s float64
		for _, row := range x {
			s += imputed(row[j], medians[j])
		}
		m := s / n
		var ss float64
		for _, row := range x {
			dv := imputed(row[j], medians[j]) - m
			ss += dv * dv
		}
		mean[j] = m
		scale[j] = math.Sqrt(ss / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return mean, scale
}

func imputed(v, median float64) float64 {
	if math.IsNaN(v) {
		return median
	}
	return v
}

// balancedWeights gives each sample n / (k * count of its class).
func balancedWeights(y []int, k int) []float64 {
	counts := make([]int, k)
	for _, c := range y {
		counts[c]++
	}
	w := make([]float64, len(y))
	for i, c := range y {
		w[i] = float64(len(y)) / (float64(k) * float64(counts[c]))
	}
	return w
}

// fitSoftmax runs full-batch gradient descent on the weighted
// cross-entropy with an L2 penalty on the coefficients (not intercepts).
// It returns the number of iterations run.
func fitSoftmax(z [][]float64, y []int, k int, sw []float64, cfg Config) (coef [][]float64, intercept []float64, iters int) {
	d := 0
	if len(z) > 0 {
		d = len(z[0])
	}
	coef = make([][]float64, k)
	gradW := make([][]float64, k)
	for c := range coef {
		coef[c] = make([]float64, d)
		gradW[c] = make([]float64, d)
	}
	intercept = make([]float64, k)
	gradB := make([]float64, k)
	n := float64(len(z))

	for iters = 1; iters <= cfg.MaxIter; iters++ {
		for c := 0; c < k; c++ {
			gradB[c] = 0
			for j := 0; j < d; j++ {
				gradW[c][j] = cfg.L2 * coef[c][j] / n
			}
		}
		for i, row := range z {
			p := softmax(logits(coef, intercept, row))
			for c := 0; c < k; c++ {
				r := p[c]
				if y[i] == c {
					r--
				}
				r *= sw[i] / n
				gradB[c] += r
				for j, v := range row {
					gradW[c][j] += r * v
				}
			}
		}
		var norm float64
		for c := 0; c < k; c++ {
			intercept[c] -= cfg.LearningRate * gradB[c]
			norm = max(norm, math.Abs(gradB[c]))
			for j := 0; j < d; j++ {
				coef[c][j] -= cfg.LearningRate * gradW[c][j]
				norm = max(norm, math.Abs(gradW[c][j]))
			}
		}
		if norm < cfg.Tolerance {
			break
		}
	}
	return coef, intercept, min(iters, cfg.MaxIter)
}
