package tree

import "math"

// nodeStats accumulates the target statistics of a set of samples so the
// split sweep can move samples from the right child to the left one in
// O(1) per step.
type nodeStats interface {
	reset()
	add(i int)
	remove(i int)
	count() int
	impurity() float64
}

// varianceStats is the squared-error criterion of the regressor.
type varianceStats struct {
	y     []float64
	n     int
	sum   float64
	sumSq float64
}

func (s *varianceStats) reset() { s.n, s.sum, s.sumSq = 0, 0, 0 }

func (s *varianceStats) add(i int) {
	v := s.y[i]
	s.n++
	s.sum += v
	s.sumSq += v * v
}

func (s *varianceStats) remove(i int) {
	v := s.y[i]
	s.n--
	s.sum -= v
	s.sumSq -= v * v
}

func (s *varianceStats) count() int { return s.n }

func (s *varianceStats) impurity() float64 {
	if s.n == 0 {
		return 0
	}
	mean := s.sum / float64(s.n)
	v := s.sumSq/float64(s.n) - mean*mean
	if v < 0 {
		return 0
	}
	return v
}

// classStats is the gini or entropy criterion of the classifier.
type classStats struct {
	y         []int
	counts    []int
	n         int
	criterion string
}

func (s *classStats) reset() {
	for i := range s.counts {
		s.counts[i] = 0
	}
	s.n = 0
}

func (s *classStats) add(i int) {
	s.counts[s.y[i]]++
	s.n++
}

func (s *classStats) remove(i int) {
	s.counts[s.y[i]]--
	s.n--
}

func (s *classStats) count() int { return s.n }

func (s *classStats) impurity() float64 {
	return classImpurity(s.counts, s.n, s.criterion)
}

// classImpurity calculates node impurity using Gini or Entropy
func classImpurity(counts []int, total int, criterion string) float64 {
	if total == 0 {
		return 0
	}
	impurity := 0.0
	switch criterion {
	case "entropy":
		// Entropy: -sum(p_i * log2(p_i))
		for _, c := range counts {
			if c > 0 {
				p := float64(c) / float64(total)
				impurity -= p * math.Log2(p)
			}
		}
	default:
		// Gini impurity: 1 - sum(p_i^2)
		sumSquared := 0.0
		for _, c := range counts {
			if c > 0 {
				p := float64(c) / float64(total)
				sumSquared += p * p
			}
		}
		impurity = 1.0 - sumSquared
	}
	return impurity
}
