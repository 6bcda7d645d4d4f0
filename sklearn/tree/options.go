package tree

import (
	"math/rand/v2"
	"time"
)

// params holds the hyperparameters shared by the regressor and classifier.
type params struct {
	criterion      string  // "squared_error" (regressor), "gini" or "entropy" (classifier)
	maxDepth       int     // Maximum depth of tree (0 = unlimited)
	minSamplesLeaf int     // Minimum samples in a leaf
	maxFeatures    float64 // Fraction of features considered per split, in (0, 1]
	rng            *rand.Rand
}

func defaultParams(criterion string) params {
	return params{
		criterion:      criterion,
		maxDepth:       0, // Unlimited
		minSamplesLeaf: 1,
		maxFeatures:    1.0,
	}
}

// random returns the generator used for feature sampling, seeding one
// from the clock when none was given.
func (p *params) random() *rand.Rand {
	if p.rng == nil {
		seed := uint64(time.Now().UnixNano())
		p.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return p.rng
}

// Option configures a DecisionTreeRegressor or DecisionTreeClassifier.
type Option func(*params)

// WithCriterion sets the splitting criterion. The classifier accepts
// "gini" and "entropy"; the regressor only "squared_error".
func WithCriterion(criterion string) Option {
	return func(p *params) {
		p.criterion = criterion
	}
}

// WithMaxDepth sets the maximum tree depth
func WithMaxDepth(depth int) Option {
	return func(p *params) {
		p.maxDepth = depth
	}
}

// WithMinSamplesLeaf sets minimum samples in leaf
func WithMinSamplesLeaf(n int) Option {
	return func(p *params) {
		p.minSamplesLeaf = n
	}
}

// WithMaxFeatures sets the fraction of features drawn at every split.
func WithMaxFeatures(fraction float64) Option {
	return func(p *params) {
		p.maxFeatures = fraction
	}
}

// WithRand sets the random generator used for feature sampling.
func WithRand(r *rand.Rand) Option {
	return func(p *params) {
		p.rng = r
	}
}
