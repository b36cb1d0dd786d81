package ml

import (
	"math/rand/v2"
	"sort"
)

// Node is one node of a regression tree. Leaves have Feature == -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a CART regression tree stored as a flat node slice; Nodes[0] is the root.
type Tree struct {
	Nodes []Node
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeBuilder struct {
	x          [][]float64
	y          []float64
	params     ForestParams
	nodes      []Node
	importance []float64
}

func fitTree(x [][]float64, y []float64, sample []int, nFeatures int, p ForestParams) (Tree, []float64) {
	b := &treeBuilder{x: x, y: y, params: p, importance: make([]float64, nFeatures)}
	b.build(sample, 0)
	return Tree{Nodes: b.nodes}, b.importance
}

type split struct {
	feature   int
	threshold float64
	pos       int
	sse       float64
}

// build appends the subtree for idx and returns its node index.
func (b *treeBuilder) build(idx []int, depth int) int {
	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	n := float64(len(idx))
	sse := sumSq - sum*sum/n

	at := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: sum / n})

	if len(idx) < b.params.MinSamplesSplit || len(idx) < 2*b.params.MinSamplesLeaf ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) || sse <= 1e-12 {
		return at
	}

	best, ok := b.bestSplit(idx, sse)
	if !ok {
		return at
	}

	b.sortBy(idx, best.feature)
	b.importance[best.feature] += sse - best.sse

	left := append([]int(nil), idx[:best.pos]...)
	right := append([]int(nil), idx[best.pos:]...)
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[at] = Node{Feature: best.feature, Threshold: best.threshold, Left: l, Right: r, Value: sum / n}
	return at
}

func (b *treeBuilder) sortBy(idx []int, f int) {
	sort.SliceStable(idx, func(i, j int) bool { return b.x[idx[i]][f] < b.x[idx[j]][f] })
}

func (b *treeBuilder) bestSplit(idx []int, parentSSE float64) (split, bool) {
	best := split{sse: parentSSE}
	found := false
	n := len(idx)
	minLeaf := b.params.MinSamplesLeaf
	nf := len(b.importance)

	sorted := make([]int, n)
	for f := 0; f < nf; f++ {
		copy(sorted, idx)
		b.sortBy(sorted, f)

		var totSum, totSq float64
		for _, i := range sorted {
			totSum += b.y[i]
			totSq += b.y[i] * b.y[i]
		}

		var lSum, lSq float64
		for pos := 1; pos < n; pos++ {
			yi := b.y[sorted[pos-1]]
			lSum += yi
			lSq += yi * yi

			if pos < minLeaf || n-pos < minLeaf {
				continue
			}
			lo, hi := b.x[sorted[pos-1]][f], b.x[sorted[pos]][f]
			if lo >= hi {
				continue
			}
			nl, nr := float64(pos), float64(n-pos)
			rSum, rSq := totSum-lSum, totSq-lSq
			sse := (lSq - lSum*lSum/nl) + (rSq - rSum*rSum/nr)
			if sse < best.sse-1e-12 {
				best = split{feature: f, threshold: lo + (hi-lo)/2, pos: pos, sse: sse}
				found = true
			}
		}
	}
	return best, found
}

func bootstrap(n int, rng *rand.Rand) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = rng.IntN(n)
	}
	return out
}
