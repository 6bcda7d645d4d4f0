package stratpd

import (
	"math"
	"sort"
	"strconv"

	"github.com/ezoic/stratx/pkg/errors"
)

type namesKind int

const (
	namesDefault namesKind = iota
	namesList
	namesMap
)

// CategoryNames maps category codes to display names.
type CategoryNames struct {
	kind namesKind
	list []string
	m    map[int]string
}

// DefaultCategoryNames names every code by its decimal value.
func DefaultCategoryNames() CategoryNames {
	return CategoryNames{kind: namesDefault}
}

// CategoryNamesFromList names code i by names[i]. An empty entry means
// the code has no category.
func CategoryNamesFromList(names []string) CategoryNames {
	return CategoryNames{kind: namesList, list: append([]string(nil), names...)}
}

// CategoryNamesFromMap names codes by an explicit mapping.
func CategoryNamesFromMap(names map[int]string) CategoryNames {
	m := make(map[int]string, len(names))
	for k, v := range names {
		m[k] = v
	}
	return CategoryNames{kind: namesMap, m: m}
}

// Resolve returns the name of every code. A code without a name is an
// error.
func (n CategoryNames) Resolve(codes []int) ([]string, error) {
	names := make([]string, len(codes))
	for i, code := range codes {
		var name string
		switch n.kind {
		case namesList:
			if code >= 0 && code < len(n.list) {
				name = n.list[code]
			}
		case namesMap:
			name = n.m[code]
		default:
			name = strconv.Itoa(code)
		}
		if name == "" {
			return nil, errors.NewValueError("CategoryNames.Resolve", "no name for category code "+strconv.Itoa(code))
		}
		names[i] = name
	}
	return names, nil
}

// SortOrder orders categories for presentation.
type SortOrder int

const (
	// SortNone keeps ascending code order.
	SortNone SortOrder = iota
	// SortAscending orders by increasing average effect.
	SortAscending
	// SortDescending orders by decreasing average effect.
	SortDescending
)

// CategoryEffect is one category's average deviation from its leaves.
type CategoryEffect struct {
	Code    int
	Name    string
	Average float64
}

// ShiftToZero subtracts the smallest non-NaN value from every value. NaN
// entries stay NaN.
func ShiftToZero(values []float64) []float64 {
	lowest := math.Inf(1)
	for _, v := range values {
		if !math.IsNaN(v) && v < lowest {
			lowest = v
		}
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsInf(lowest, 1) {
			out[i] = v
			continue
		}
		out[i] = v - lowest
	}
	return out
}

// SummarizeCategories names, optionally shifts and orders the category
// averages of res. Categories whose average is NaN never appeared in a
// usable leaf and are left out.
func SummarizeCategories(res *CatResult, names CategoryNames, order SortOrder, shiftToZero bool) ([]CategoryEffect, error) {
	if res == nil {
		return nil, errors.NewValueError("SummarizeCategories", "nil result")
	}
	resolved, err := names.Resolve(res.Codes)
	if err != nil {
		return nil, err
	}
	averages := res.Averages
	if shiftToZero {
		averages = ShiftToZero(averages)
	}

	effects := make([]CategoryEffect, 0, len(res.Codes))
	for i, code := range res.Codes {
		if math.IsNaN(averages[i]) {
			continue
		}
		effects = append(effects, CategoryEffect{Code: code, Name: resolved[i], Average: averages[i]})
	}

	switch order {
	case SortAscending:
		sort.SliceStable(effects, func(a, b int) bool { return effects[a].Average < effects[b].Average })
	case SortDescending:
		sort.SliceStable(effects, func(a, b int) bool { return effects[a].Average > effects[b].Average })
	case SortNone:
	default:
		return nil, errors.NewValueError("SummarizeCategories", "unknown sort order")
	}
	return effects, nil
}
