// Package stats implements the resampling-based statistics kernel: samples,
// bootstrap resampling, confidence-interval distributions, bivariate
// regression, Welch's t-test, and Tukey outlier classification.
package stats

import (
	"math"
	"sort"
)

// Sample is a read-only view over a slice of observations. It never copies
// the underlying data; callers own the backing slice.
type Sample struct {
	data []float64
}

// NewSample wraps data as a Sample. data must not be empty.
func NewSample(data []float64) *Sample {
	return &Sample{data: data}
}

// Data returns the underlying slice. Callers must not mutate it.
func (s *Sample) Data() []float64 { return s.data }

// Len returns the number of observations.
func (s *Sample) Len() int { return len(s.data) }

// Mean computes the arithmetic mean using a stable running sum.
func (s *Sample) Mean() float64 {
	// Kahan compensated summation.
	var sum, c float64
	for _, v := range s.data {
		y := v - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return sum / float64(len(s.data))
}

// Min returns the smallest observation.
func (s *Sample) Min() float64 {
	m := s.data[0]
	for _, v := range s.data[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest observation.
func (s *Sample) Max() float64 {
	m := s.data[0]
	for _, v := range s.data[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Variance computes the sample variance (Bessel-corrected, n-1 denominator).
// If mean is nil, it is computed from the data first.
func (s *Sample) Variance(mean *float64) float64 {
	m := s.Mean()
	if mean != nil {
		m = *mean
	}
	n := len(s.data)
	if n < 2 {
		return 0
	}
	var sumSq float64
	for _, v := range s.data {
		d := v - m
		sumSq += d * d
	}
	return sumSq / float64(n-1)
}

// StdDev computes the sample standard deviation.
func (s *Sample) StdDev(mean *float64) float64 {
	return math.Sqrt(s.Variance(mean))
}

// Percentiles returns a helper for computing order statistics. It sorts a
// private copy of the data, so the original Sample is left untouched.
func (s *Sample) Percentiles() *Percentiles {
	sorted := append([]float64(nil), s.data...)
	sort.Float64s(sorted)
	return &Percentiles{sorted: sorted}
}

// MedianAbsDev computes the median absolute deviation from the given median
// (computed from the data if nil), scaled by the usual normal-consistency
// constant 1.4826.
func (s *Sample) MedianAbsDev(median *float64) float64 {
	m := median
	if m == nil {
		med := s.Percentiles().Median()
		m = &med
	}
	devs := make([]float64, len(s.data))
	for i, v := range s.data {
		devs[i] = math.Abs(v - *m)
	}
	devSample := NewSample(devs)
	return devSample.Percentiles().Median() * 1.4826
}

// T computes Welch's t-statistic between this sample and other: the
// difference of means scaled by the pooled standard error under unequal
// variances.
func (s *Sample) T(other *Sample) float64 {
	n1, n2 := float64(s.Len()), float64(other.Len())
	v1, v2 := s.Variance(nil), other.Variance(nil)
	se := math.Sqrt(v1/n1 + v2/n2)
	if se == 0 {
		return 0
	}
	return (s.Mean() - other.Mean()) / se
}

// Percentiles is a sorted view supporting order-statistic queries.
type Percentiles struct {
	sorted []float64
}

// Median returns the 50th percentile using linear interpolation between the
// closest ranks, matching the conventional definition used for even-length
// samples (average of the two middle elements).
func (p *Percentiles) Median() float64 {
	return p.At(0.5)
}

// At returns the empirical quantile at the given fraction in [0, 1] using
// linear interpolation between adjacent order statistics.
func (p *Percentiles) At(q float64) float64 {
	n := len(p.sorted)
	if n == 1 {
		return p.sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	if lo == hi {
		return p.sorted[lo]
	}
	frac := pos - float64(lo)
	return p.sorted[lo]*(1-frac) + p.sorted[hi]*frac
}
