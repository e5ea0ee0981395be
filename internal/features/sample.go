package features

import (
	"crypto/sha256"
	"encoding/hex"
	"math/rand/v2"
	"sort"
	"strconv"
)

// SamplePages picks min(pageCount, pagesSampled) distinct 0-based page
// indices, sorted. The generator is seeded from seed plus an offset taken
// from the SHA-256 of relPath, so a document's sample depends only on its
// path and the sampling parameters.
func SamplePages(pageCount, pagesSampled int, seed int64, relPath string) []int {
	if pageCount <= 0 {
		return nil
	}
	total := max(1, min(pageCount, pagesSampled))
	if total >= pageCount {
		out := make([]int, pageCount)
		for i := range out {
			out[i] = i
		}
		return out
	}

	src := rand.NewPCG(uint64(seed)+pathOffset(relPath), 0x9e3779b97f4a7c15)
	idx := make([]int, pageCount)
	for i := range idx {
		idx[i] = i
	}
	// partial Fisher-Yates driven by the raw source only
	for i := 0; i < total; i++ {
		j := i + int(src.Uint64()%uint64(pageCount-i))
		idx[i], idx[j] = idx[j], idx[i]
	}
	out := append([]int(nil), idx[:total]...)
	sort.Ints(out)
	return out
}

func pathOffset(relPath string) uint64 {
	sum := sha256.Sum256([]byte(relPath))
	n, _ := strconv.ParseUint(hex.EncodeToString(sum[:4]), 16, 64)
	return n
}
