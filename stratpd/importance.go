package stratpd

import (
	"context"
	"math/rand/v2"
	"sort"

	"github.com/ezoic/stratx/core/parallel"
	"github.com/ezoic/stratx/core/table"
	"github.com/ezoic/stratx/pkg/errors"
)

// Importance is the relative effect size of one column.
type Importance struct {
	Column        string
	MeanAbsEffect float64
	// Importance is MeanAbsEffect normalized so all columns sum to 1.
	Importance float64
}

// Importances computes the partial dependence of every column
// concurrently and ranks the columns by mean absolute effect, largest
// first. Each column gets its own generator seeded from the configured
// one, so the result does not depend on scheduling. At most Workers
// columns run at once, and columns not yet started are skipped after the
// first failure.
func Importances(X *table.Table, y []float64, columns []string, opts ...Option) ([]Importance, error) {
	if len(columns) == 0 {
		return nil, errors.NewConfigurationError("Importances", "columns", "no columns given")
	}
	cfg := newConfig(opts)
	rng := cfg.random()
	seeds := make([][2]uint64, len(columns))
	for i := range seeds {
		seeds[i] = [2]uint64{rng.Uint64(), rng.Uint64()}
	}

	out := make([]Importance, len(columns))
	err := parallel.ForEach(context.Background(), len(columns), cfg.Workers, func(_ context.Context, i int) error {
		column := columns[i]
		colOpts := append(append([]Option(nil), opts...), WithRand(rand.New(rand.NewPCG(seeds[i][0], seeds[i][1]))))
		res, err := PartialDependence(X, y, column, colOpts...)
		if err != nil {
			return errors.Wrapf(err, "importance of %s", column)
		}
		out[i] = Importance{Column: column, MeanAbsEffect: res.MeanAbsEffect()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, imp := range out {
		total += imp.MeanAbsEffect
	}
	if total > 0 {
		for i := range out {
			out[i].Importance = out[i].MeanAbsEffect / total
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].MeanAbsEffect > out[b].MeanAbsEffect })
	return out, nil
}
