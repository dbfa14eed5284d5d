package forecast

import (
	"math/rand/v2"
	"sort"
)

// treeNode is a node of a binary regression tree. Leaves carry value;
// inner nodes send x[feature] <= threshold to the left.
type treeNode struct {
	feature     int
	threshold   float64
	left, right *treeNode
	value       float64
}

func (n *treeNode) isLeaf() bool { return n.left == nil }

func (n *treeNode) predict(x []float64) float64 {
	for !n.isLeaf() {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int        // 0 means every feature
	rng            *rand.Rand // only used when maxFeatures > 0
}

// buildTree grows a CART regression tree over the rows in idx using exact
// greedy variance-reduction splits. Candidate features are scanned in index
// order and the first best split wins, so equal inputs give equal trees.
func buildTree(X [][]float64, y []float64, idx []int, depth int, p treeParams) *treeNode {
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	node := &treeNode{value: sum / float64(len(idx))}
	if depth >= p.maxDepth || len(idx) < 2*p.minSamplesLeaf {
		return node
	}

	feature, threshold, ok := bestSplit(X, y, idx, sum, p)
	if !ok {
		return node
	}
	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.feature = feature
	node.threshold = threshold
	node.left = buildTree(X, y, left, depth+1, p)
	node.right = buildTree(X, y, right, depth+1, p)
	return node
}

func bestSplit(X [][]float64, y []float64, idx []int, total float64, p treeParams) (feature int, threshold float64, ok bool) {
	n := len(idx)
	// Maximizing sumL²/nL + sumR²/nR is equivalent to minimizing the SSE of
	// the two children.
	best := total * total / float64(n)
	const eps = 1e-12

	sorted := make([]int, n)
	for _, f := range candidateFeatures(len(X[idx[0]]), p) {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		left := 0.0
		for k := 0; k < n-1; k++ {
			left += y[sorted[k]]
			nl := k + 1
			nr := n - nl
			if nl < p.minSamplesLeaf || nr < p.minSamplesLeaf {
				continue
			}
			lo, hi := X[sorted[k]][f], X[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			right := total - left
			score := left*left/float64(nl) + right*right/float64(nr)
			if score > best+eps {
				best = score
				feature = f
				threshold = lo + (hi-lo)/2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func candidateFeatures(width int, p treeParams) []int {
	all := make([]int, width)
	for i := range all {
		all[i] = i
	}
	if p.maxFeatures <= 0 || p.maxFeatures >= width || p.rng == nil {
		return all
	}
	p.rng.Shuffle(width, func(i, j int) { all[i], all[j] = all[j], all[i] })
	subset := all[:p.maxFeatures]
	sort.Ints(subset)
	return subset
}

func allRows(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
