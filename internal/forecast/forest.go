package forecast

import (
	"math/rand/v2"
)

// RandomForest averages fully grown regression trees, each trained on a
// bootstrap sample drawn from a seeded generator.
type RandomForest struct {
	Trees          int
	MaxDepth       int
	MinSamplesLeaf int
	Seed           uint64

	trees []*treeNode
}

// NewRandomForest returns a 100-tree forest.
func NewRandomForest(seed uint64) *RandomForest {
	return &RandomForest{
		Trees:          100,
		MaxDepth:       32,
		MinSamplesLeaf: 1,
		Seed:           seed,
	}
}

func (f *RandomForest) Fit(X [][]float64, y []float64) error {
	if _, err := checkTrainingSet(X, y); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(f.Seed, f.Seed^0x9e3779b97f4a7c15))
	params := treeParams{maxDepth: f.MaxDepth, minSamplesLeaf: max(f.MinSamplesLeaf, 1)}

	n := len(y)
	f.trees = make([]*treeNode, 0, f.Trees)
	sample := make([]int, n)
	for t := 0; t < f.Trees; t++ {
		for i := range sample {
			sample[i] = rng.IntN(n)
		}
		f.trees = append(f.trees, buildTree(X, y, sample, 0, params))
	}
	return nil
}

func (f *RandomForest) Predict(x []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, errNotFitted
	}
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees)), nil
}
