package ensemble

import (
	"math/rand/v2"
	"time"

	"github.com/ezoic/stratx/pkg/errors"
)

// forestParams holds the hyperparameters shared by both forests.
type forestParams struct {
	nEstimators    int     // Number of trees
	bootstrap      bool    // Sample rows with replacement per tree
	maxFeatures    float64 // Fraction of features considered per split
	minSamplesLeaf int     // Minimum samples in a leaf
	maxDepth       int     // Maximum tree depth (0 = unlimited)
	criterion      string  // Classifier criterion: "gini" or "entropy"
	nJobs          int     // Trees trained concurrently (<= 0 = GOMAXPROCS)
	rng            *rand.Rand
}

func defaultForestParams() forestParams {
	return forestParams{
		nEstimators:    100,
		bootstrap:      true,
		maxFeatures:    1.0,
		minSamplesLeaf: 1,
		criterion:      "gini",
	}
}

func (p *forestParams) random() *rand.Rand {
	if p.rng == nil {
		seed := uint64(time.Now().UnixNano())
		p.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return p.rng
}

func (p *forestParams) validate(op string) error {
	if p.nEstimators < 1 {
		return errors.NewValueError(op, "n_estimators must be >= 1")
	}
	if p.minSamplesLeaf < 1 {
		return errors.NewValueError(op, "min_samples_leaf must be >= 1")
	}
	if !(p.maxFeatures > 0 && p.maxFeatures <= 1) {
		return errors.NewValueError(op, "max_features must be in (0, 1]")
	}
	return nil
}

func (p *forestParams) asMap() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     p.nEstimators,
		"bootstrap":        p.bootstrap,
		"max_features":     p.maxFeatures,
		"min_samples_leaf": p.minSamplesLeaf,
		"max_depth":        p.maxDepth,
		"criterion":        p.criterion,
		"n_jobs":           p.nJobs,
	}
}

// Option configures a RandomForestRegressor or RandomForestClassifier.
type Option func(*forestParams)

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) Option {
	return func(p *forestParams) {
		p.nEstimators = n
	}
}

// WithBootstrap enables or disables per-tree row resampling.
func WithBootstrap(bootstrap bool) Option {
	return func(p *forestParams) {
		p.bootstrap = bootstrap
	}
}

// WithMaxFeatures sets the fraction of features drawn at every split.
func WithMaxFeatures(fraction float64) Option {
	return func(p *forestParams) {
		p.maxFeatures = fraction
	}
}

// WithMinSamplesLeaf sets minimum samples in leaf
func WithMinSamplesLeaf(n int) Option {
	return func(p *forestParams) {
		p.minSamplesLeaf = n
	}
}

// WithMaxDepth sets the maximum depth of every tree
func WithMaxDepth(depth int) Option {
	return func(p *forestParams) {
		p.maxDepth = depth
	}
}

// WithCriterion sets the classifier splitting criterion.
func WithCriterion(criterion string) Option {
	return func(p *forestParams) {
		p.criterion = criterion
	}
}

// WithNJobs bounds the number of trees trained concurrently.
func WithNJobs(n int) Option {
	return func(p *forestParams) {
		p.nJobs = n
	}
}

// WithRand sets the generator from which per-tree seeds are drawn. Without
// it the forest seeds one from the clock.
func WithRand(r *rand.Rand) Option {
	return func(p *forestParams) {
		p.rng = r
	}
}
