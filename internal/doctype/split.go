package doctype

import (
	"math"
	"math/rand/v2"
	"sort"
)

const splitStream = 0x5851f42d4c957f2d

// splitIndices holds out ceil(frac*n) rows for evaluation. The split is
// stratified by label when every class has at least two rows and both
// sides can hold one row per class; otherwise it is a plain shuffle.
func splitIndices(labels []string, frac float64, seed int64) (train, eval []int, stratified bool) {
	n := len(labels)
	nEval := int(math.Ceil(frac*float64(n) - 1e-9))
	if frac <= 0 || n < 2 || nEval == 0 {
		return seq(n), nil, false
	}
	nEval = min(nEval, n-1)
	src := rand.NewPCG(uint64(seed), splitStream)

	byClass := map[string][]int{}
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	classes := make([]string, 0, len(byClass))
	minCount := n
	for c, idx := range byClass {
		classes = append(classes, c)
		minCount = min(minCount, len(idx))
	}
	sort.Strings(classes)
	k := len(classes)

	if minCount >= 2 && nEval >= k && n-nEval >= k {
		alloc := allocate(classes, byClass, nEval, n)
		for _, c := range classes {
			idx := append([]int(nil), byClass[c]...)
			shuffle(src, idx)
			eval = append(eval, idx[:alloc[c]]...)
			train = append(train, idx[alloc[c]:]...)
		}
		stratified = true
	} else {
		idx := seq(n)
		shuffle(src, idx)
		eval = append(eval, idx[:nEval]...)
		train = append(train, idx[nEval:]...)
	}
	sort.Ints(train)
	sort.Ints(eval)
	return train, eval, stratified
}

// allocate spreads nEval across classes in proportion to their size,
// handing the rounding remainder to the largest fractional shares. Every
// class keeps at least one training row.
func allocate(classes []string, byClass map[string][]int, nEval, n int) map[string]int {
	alloc := make(map[string]int, len(classes))
	frac := make(map[string]float64, len(classes))
	used := 0
	for _, c := range classes {
		exact := float64(len(byClass[c])) * float64(nEval) / float64(n)
		alloc[c] = min(int(exact), len(byClass[c])-1)
		frac[c] = exact - float64(alloc[c])
		used += alloc[c]
	}
	order := append([]string(nil), classes...)
	sort.SliceStable(order, func(i, j int) bool { return frac[order[i]] > frac[order[j]] })
	for _, c := range order {
		if used >= nEval {
			break
		}
		if alloc[c] < len(byClass[c])-1 {
			alloc[c]++
			used++
		}
	}
	return alloc
}

// shuffle is a Fisher-Yates pass driven only by the raw source output.
func shuffle(src *rand.PCG, idx []int) {
	for i := len(idx) - 1; i > 0; i-- {
		j := int(src.Uint64() % uint64(i+1))
		idx[i], idx[j] = idx[j], idx[i]
	}
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
