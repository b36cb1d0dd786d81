// Package ml implements the random-forest regressor behind score prediction.
package ml

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyTrainingSet = errors.New("training set is empty")
	ErrFeatureCount     = errors.New("feature vector length does not match the model")
)

type ForestParams struct {
	NTrees          int
	Seed            uint64
	MinSamplesSplit int
	MinSamplesLeaf  int
	// MaxDepth 0 grows trees until leaves are pure.
	MaxDepth int
	Workers  int
}

func DefaultForestParams() ForestParams {
	return ForestParams{
		NTrees:          100,
		Seed:            42,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

// Forest is a bagged ensemble of regression trees. Fields are exported so
// the model can be gob encoded.
type Forest struct {
	NFeatures   int
	Trees       []Tree
	Importances []float64
}

// FitForest grows p.NTrees trees on bootstrap samples of (x, y). Each tree's
// sampling stream is derived from p.Seed and the tree index, so the result
// does not depend on scheduling.
func FitForest(ctx context.Context, x [][]float64, y []float64, p ForestParams) (*Forest, error) {
	if len(x) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit forest: %d rows but %d targets", len(x), len(y))
	}
	nf := len(x[0])
	for i, row := range x {
		if len(row) != nf {
			return nil, fmt.Errorf("fit forest: row %d has %d features, want %d", i, len(row), nf)
		}
	}
	if p.NTrees <= 0 {
		p.NTrees = 1
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]Tree, p.NTrees)
	imps := make([][]float64, p.NTrees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for t := 0; t < p.NTrees; t++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(p.Seed, uint64(t)))
			trees[t], imps[t] = fitTree(x, y, bootstrap(len(x), rng), nf, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Forest{NFeatures: nf, Trees: trees, Importances: averageImportances(imps, nf)}, nil
}

// averageImportances normalizes each tree's impurity decrease, averages
// across trees and normalizes the result to sum to one.
func averageImportances(perTree [][]float64, nf int) []float64 {
	out := make([]float64, nf)
	for _, imp := range perTree {
		var total float64
		for _, v := range imp {
			total += v
		}
		if total <= 0 {
			continue
		}
		for f, v := range imp {
			out[f] += v / total
		}
	}
	var total float64
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for f := range out {
			out[f] /= total
		}
	}
	return out
}

func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != f.NFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(x), f.NFeatures)
	}
	if len(f.Trees) == 0 {
		return 0, errors.New("forest has no trees")
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

func (f *Forest) PredictBatch(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := f.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
