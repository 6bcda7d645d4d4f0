package stratpd

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ezoic/stratx/core/table"
	"github.com/ezoic/stratx/pkg/errors"
	"github.com/ezoic/stratx/pkg/log"
)

// Result is the partial dependence of one numeric column.
type Result struct {
	Column string

	// Slope records of every contributing leaf.
	LeafRanges []Interval
	LeafSlopes []float64

	// Curve, restricted to x values with enough supporting slopes.
	SlopeCounts []int
	Dx          []float64
	Dydx        []float64
	PdpX        []float64
	PdpY        []float64

	// Ignored counts rows in leaves without variation in the column.
	Ignored int
	// NLeaves is the number of non-empty leaves over all trees.
	NLeaves int
	// Forest is the partition forest when diagnostics are enabled.
	Forest Forest
}

// MeanAbsEffect returns the mean of |PdpY|.
func (r *Result) MeanAbsEffect() float64 {
	if len(r.PdpY) == 0 {
		return math.NaN()
	}
	abs := make([]float64, len(r.PdpY))
	for i, v := range r.PdpY {
		abs[i] = math.Abs(v)
	}
	return stat.Mean(abs, nil)
}

// prepared holds the validated inputs shared by the entry points.
type prepared struct {
	cfg    Config
	column int
	xCol   []float64
	uniqX  []float64
	logger log.Logger
}

func prepare(op string, X *table.Table, y []float64, column string, opts []Option) (*prepared, error) {
	if X == nil {
		return nil, errors.NewModelError(op, "nil dataset", errors.ErrEmptyData)
	}
	cfg := newConfig(opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n, c := X.Dims()
	j, err := X.ColumnIndex(column)
	if err != nil {
		return nil, errors.NewConfigurationError(op, "column", fmt.Sprintf("column %q not found", column))
	}
	if c < 2 {
		return nil, errors.NewConfigurationError(op, "column", "no other columns to partition on")
	}
	if len(y) != n {
		return nil, errors.NewDimensionError(op, n, len(y), 0)
	}
	xCol := X.Col(j)
	uniqX := table.Unique(xCol)
	if len(uniqX) < 2 {
		return nil, errors.NewConfigurationError(op, "column",
			fmt.Sprintf("column %q has %d distinct value(s), need at least 2", column, len(uniqX)))
	}

	logger := cfg.logging().With(log.ColumnKey, column)
	cfg.logger = logger
	cfg.random()
	return &prepared{cfg: cfg, column: j, xCol: xCol, uniqX: uniqX, logger: logger}, nil
}

// maxSupport bounds the number of slopes that can cover one x: every tree
// contributes at most one slope per leaf covering x. Unsupervised forests
// are trained on the real and the scrambled rows, so their leaves can be
// twice as many.
func maxSupport(cfg Config, n int) int {
	if !cfg.Supervised {
		n *= 2
	}
	return cfg.NTrees * max(1, n/cfg.MinSamplesLeaf)
}

// PartialDependence computes the stratified partial dependence of y on
// column. Rows of X and y must be aligned.
//
// It fails with a ConfigurationError before any training when the
// parameters are invalid, the column is missing or constant, or
// MinSlopesPerX can never be met. It fails with an InsufficientDataError
// when no x value retains enough slopes.
func PartialDependence(X *table.Table, y []float64, column string, opts ...Option) (res *Result, err error) {
	defer errors.Recover(&err, "PartialDependence")
	start := time.Now()

	p, err := prepare("PartialDependence", X, y, column, opts)
	if err != nil {
		return nil, err
	}
	n := X.NRows()
	if bound := maxSupport(p.cfg, n); p.cfg.MinSlopesPerX > bound {
		return nil, errors.NewConfigurationError("PartialDependence", "min_slopes_per_x",
			fmt.Sprintf("%d exceeds the %d slopes %d tree(s) with min_samples_leaf %d can provide",
				p.cfg.MinSlopesPerX, bound, p.cfg.NTrees, p.cfg.MinSamplesLeaf))
	}

	part, err := Partition(X, y, p.column, p.cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "partitioning column %s", column)
	}

	slopes, err := CollectDiscreteSlopes(p.xCol, y, part.Leaves)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Slopes collected",
		log.PhaseKey, log.PhaseExtraction,
		log.LeavesKey, len(part.Leaves),
		"contributing", slopes.Contributing,
		log.RecordsKey, len(slopes.Slopes),
		log.IgnoredKey, slopes.Ignored,
		log.SamplesKey, n,
	)

	avg, counts, err := avgValuesAtX(p.uniqX, slopes.Ranges, slopes.Slopes, p.cfg.Strategy, p.cfg.Workers)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Slopes averaged",
		log.OperationKey, log.OperationAggregate,
		"strategy", p.cfg.Strategy.String(),
		"distinct_x", len(p.uniqX),
	)

	curve, err := Integrate(p.uniqX, avg, counts, p.cfg.MinSlopesPerX)
	if err != nil {
		var insufficient *errors.InsufficientDataError
		if errors.As(err, &insufficient) {
			insufficient.Column = column
		}
		return nil, err
	}

	p.logger.Debug("Partial dependence completed",
		log.OperationKey, log.OperationIntegrate,
		log.RetainedKey, len(curve.X),
		"distinct_x", len(p.uniqX),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return &Result{
		Column:      column,
		LeafRanges:  slopes.Ranges,
		LeafSlopes:  slopes.Slopes,
		SlopeCounts: curve.Counts,
		Dx:          curve.Dx,
		Dydx:        curve.Dydx,
		PdpX:        curve.X,
		PdpY:        curve.Y,
		Ignored:     slopes.Ignored,
		NLeaves:     len(part.Leaves),
		Forest:      part.Forest,
	}, nil
}
