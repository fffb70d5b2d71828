package stats

import (
	"math"
	"sort"
)

// Tails selects whether a p-value computation considers one or both sides
// of the distribution.
type Tails int

const (
	// TailsOne considers a single tail only (not used by this package yet,
	// kept for parity with the reference t-distribution API).
	TailsOne Tails = iota
	// TailsTwo considers both tails, doubling the smaller one-sided count.
	TailsTwo
)

// Distribution is a finite collection of bootstrap replicate values. Every
// Estimate produced by the analysis orchestrator is accompanied by the
// Distribution that was summarised to build it.
type Distribution struct {
	values []float64
}

// NewDistribution wraps values as a Distribution. values is taken by
// reference, not copied.
func NewDistribution(values []float64) *Distribution {
	return &Distribution{values: values}
}

// Len returns the number of replicates.
func (d *Distribution) Len() int { return len(d.values) }

// Values returns the underlying replicate slice.
func (d *Distribution) Values() []float64 { return d.values }

// FilterFinite returns a new Distribution containing only the finite
// replicates, preserving order. Used to sanitise the t-distribution, whose
// bootstrap can emit non-finite values when sample_size is very small.
func (d *Distribution) FilterFinite() *Distribution {
	out := make([]float64, 0, len(d.values))
	for _, v := range d.values {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return &Distribution{values: out}
}

// ConfidenceInterval returns the (lowerBound, upperBound) empirical
// quantiles of the distribution at confidenceLevel, computed as the
// ((1-cl)/2, 1-(1-cl)/2) quantiles of a sorted copy.
func (d *Distribution) ConfidenceInterval(confidenceLevel float64) (float64, float64) {
	sorted := append([]float64(nil), d.values...)
	sort.Float64s(sorted)
	p := NewSample(sorted).Percentiles()
	lo := (1 - confidenceLevel) / 2
	hi := 1 - lo
	return p.At(lo), p.At(hi)
}

// StdDev computes the standard deviation of the replicate values.
func (d *Distribution) StdDev(mean *float64) float64 {
	return NewSample(d.values).StdDev(mean)
}

// PValue computes the two-tailed empirical p-value of observed against this
// distribution: 2 * min(#{x >= observed}, #{x <= observed}) / n, clamped to
// at most 1.
func (d *Distribution) PValue(observed float64, tails Tails) float64 {
	n := len(d.values)
	if n == 0 {
		return math.NaN()
	}
	var ge, le int
	for _, v := range d.values {
		if v >= observed {
			ge++
		}
		if v <= observed {
			le++
		}
	}
	switch tails {
	case TailsTwo:
		m := ge
		if le < m {
			m = le
		}
		p := 2 * float64(m) / float64(n)
		if p > 1 {
			p = 1
		}
		return p
	default:
		return float64(ge) / float64(n)
	}
}
