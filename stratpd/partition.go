package stratpd

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/stratx/core/table"
	"github.com/ezoic/stratx/metrics"
	"github.com/ezoic/stratx/pkg/errors"
	"github.com/ezoic/stratx/pkg/log"
	"github.com/ezoic/stratx/sklearn/ensemble"
)

// Forest is the trained partition forest. Only Apply is needed to
// compute partial dependence; Predict is used for diagnostics.
type Forest interface {
	Apply(X mat.Matrix) ([][]int, error)
	Predict(X mat.Matrix) (mat.Matrix, error)
	NLeaves() int
}

// Partitioning groups the rows of a dataset by the leaves of a forest
// trained without one column.
type Partitioning struct {
	// Leaves holds the row indices of every non-empty leaf, ordered by
	// tree and then by leaf id.
	Leaves [][]int
	// Forest is set only when diagnostics are enabled.
	Forest Forest
	// Score is the forest's training R² (supervised) or accuracy on the
	// real-vs-scrambled problem (unsupervised). NaN unless diagnostics
	// are enabled.
	Score float64
}

// Partition trains the partition forest on X without column and groups
// the rows of X by leaf. In unsupervised mode the forest is trained to
// separate X from a scrambled copy, but the leaves are still those of
// the real rows.
func Partition(X *table.Table, y []float64, column int, cfg Config) (*Partitioning, error) {
	start := time.Now()
	logger := cfg.logging().With(log.OperationKey, log.OperationPartition)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n, c := X.Dims()
	if column < 0 || column >= c {
		return nil, errors.NewConfigurationError("Partition", "column", "column index out of range")
	}
	if len(y) != n {
		return nil, errors.NewDimensionError("Partition", n, len(y), 0)
	}
	notCol, err := X.Drop(column)
	if err != nil {
		return nil, err
	}

	var (
		forest   Forest
		trainX   mat.Matrix
		trainY   *mat.VecDense
		scoreFor func(pred mat.Matrix) (float64, error)
	)
	opts := []ensemble.Option{
		ensemble.WithNEstimators(cfg.NTrees),
		ensemble.WithMinSamplesLeaf(cfg.MinSamplesLeaf),
		ensemble.WithBootstrap(cfg.Bootstrap),
		ensemble.WithMaxFeatures(cfg.MaxFeatures),
		ensemble.WithNJobs(cfg.Workers),
		ensemble.WithRand(cfg.random()),
	}

	if cfg.Supervised {
		rf := ensemble.NewRandomForestRegressor(opts...)
		trainX = notCol.Matrix()
		trainY = mat.NewVecDense(n, append([]float64(nil), y...))
		if err := rf.Fit(trainX, trainY); err != nil {
			return nil, err
		}
		forest = rf
		scoreFor = func(pred mat.Matrix) (float64, error) {
			return metrics.R2Score(trainY, mat.NewVecDense(n, mat.Col(nil, 0, pred)))
		}
	} else {
		synth, labels := ConjureTwoClass(X.Matrix(), cfg.random())
		synthTable, err := table.New(synth, X.Columns())
		if err != nil {
			return nil, err
		}
		synthNotCol, err := synthTable.Drop(column)
		if err != nil {
			return nil, err
		}
		rf := ensemble.NewRandomForestClassifier(opts...)
		trainX = synthNotCol.Matrix()
		trainY = mat.NewVecDense(len(labels), labels)
		if err := rf.Fit(trainX, trainY); err != nil {
			return nil, err
		}
		forest = rf
		scoreFor = func(pred mat.Matrix) (float64, error) {
			return metrics.Accuracy(trainY, mat.NewVecDense(len(labels), mat.Col(nil, 0, pred)))
		}
	}

	ids, err := forest.Apply(notCol.Matrix())
	if err != nil {
		return nil, err
	}
	p := &Partitioning{Leaves: groupLeaves(ids), Score: math.NaN()}

	if cfg.Diagnostics {
		p.Forest = forest
		if pred, err := forest.Predict(trainX); err == nil {
			if score, err := scoreFor(pred); err == nil {
				p.Score = score
			} else {
				logger.Debug("Partition score unavailable", log.ErrorKey, err)
			}
		}
	}

	logger.Debug("Partition completed",
		log.SamplesKey, n,
		log.TreesKey, cfg.NTrees,
		log.LeavesKey, len(p.Leaves),
		"supervised", cfg.Supervised,
		"score", p.Score,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return p, nil
}

// groupLeaves turns per-tree leaf ids into row index groups.
func groupLeaves(ids [][]int) [][]int {
	var leaves [][]int
	for _, treeIDs := range ids {
		byLeaf := make(map[int][]int)
		for row, id := range treeIDs {
			byLeaf[id] = append(byLeaf[id], row)
		}
		keys := make([]int, 0, len(byLeaf))
		for id := range byLeaf {
			keys = append(keys, id)
		}
		sort.Ints(keys)
		for _, id := range keys {
			leaves = append(leaves, byLeaf[id])
		}
	}
	return leaves
}
