package stratpd

import (
	"math"

	"github.com/ezoic/stratx/pkg/errors"
)

// Curve is an integrated partial dependence curve.
type Curve struct {
	X      []float64 // retained distinct x values, strictly increasing
	Y      []float64 // cumulative effect; Y[0] == 0
	Dx     []float64 // X[i+1] - X[i]
	Dydx   []float64 // slope at X[i] for i < len(X)-1
	Slopes []float64 // slope at every retained X
	Counts []int     // slopes averaged at every retained X
}

// Integrate drops positions without a slope or with fewer than
// minSlopesPerX supporting slopes and integrates the rest as a right
// continuous step function starting at zero:
//
//	Y[0] = 0
//	Y[i+1] = Y[i] + slopeAtX[i] * (X[i+1] - X[i])
//
// A minSlopesPerX of zero disables the support filter.
func Integrate(uniqX, slopeAtX []float64, counts []int, minSlopesPerX int) (*Curve, error) {
	if len(uniqX) != len(slopeAtX) {
		return nil, errors.NewDimensionError("Integrate", len(uniqX), len(slopeAtX), 0)
	}
	if len(uniqX) != len(counts) {
		return nil, errors.NewDimensionError("Integrate", len(uniqX), len(counts), 0)
	}

	c := &Curve{}
	for i, x := range uniqX {
		if math.IsNaN(slopeAtX[i]) || counts[i] < minSlopesPerX {
			continue
		}
		c.X = append(c.X, x)
		c.Slopes = append(c.Slopes, slopeAtX[i])
		c.Counts = append(c.Counts, counts[i])
	}
	k := len(c.X)
	if k == 0 {
		return nil, errors.NewInsufficientDataError("Integrate", "", 0, minSlopesPerX)
	}

	c.Dx = make([]float64, k-1)
	c.Dydx = make([]float64, k-1)
	c.Y = make([]float64, k)
	for i := 0; i < k-1; i++ {
		c.Dx[i] = c.X[i+1] - c.X[i]
		c.Dydx[i] = c.Slopes[i]
		c.Y[i+1] = c.Y[i] + c.Dydx[i]*c.Dx[i]
	}
	return c, nil
}
