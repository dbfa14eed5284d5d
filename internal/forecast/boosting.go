package forecast

// GradientBoosting is a least-squares gradient-boosted ensemble of shallow
// regression trees. It is fully deterministic.
type GradientBoosting struct {
	LearningRate   float64
	Iterations     int
	MaxDepth       int
	MinSamplesLeaf int

	init   float64
	trees  []*treeNode
	fitted bool
}

// NewGradientBoosting returns a booster with learning rate 0.1 and 100 rounds
// of depth-3 trees.
func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{
		LearningRate:   0.1,
		Iterations:     100,
		MaxDepth:       3,
		MinSamplesLeaf: 5,
	}
}

func (g *GradientBoosting) Fit(X [][]float64, y []float64) error {
	if _, err := checkTrainingSet(X, y); err != nil {
		return err
	}
	g.trees = g.trees[:0]
	g.fitted = false

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	g.init = mean / float64(len(y))

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = g.init
	}
	residual := make([]float64, len(y))
	idx := allRows(len(y))
	params := treeParams{maxDepth: g.MaxDepth, minSamplesLeaf: max(g.MinSamplesLeaf, 1)}

	for it := 0; it < g.Iterations; it++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		tree := buildTree(X, residual, idx, 0, params)
		g.trees = append(g.trees, tree)
		for i := range pred {
			pred[i] += g.LearningRate * tree.predict(X[i])
		}
	}
	g.fitted = true
	return nil
}

func (g *GradientBoosting) Predict(x []float64) (float64, error) {
	if !g.fitted {
		return 0, errNotFitted
	}
	out := g.init
	for _, t := range g.trees {
		out += g.LearningRate * t.predict(x)
	}
	return out, nil
}
