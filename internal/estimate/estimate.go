// Package estimate holds the point-estimate and confidence-interval types
// produced by the analysis orchestrator from bootstrap distributions.
package estimate

import "github.com/kvit-s/critbench/internal/stats"

// ConfidenceInterval is the (lowerBound, upperBound) pair at a given
// confidence level.
type ConfidenceInterval struct {
	ConfidenceLevel float64 `cbor:"confidence_level" json:"confidence_level"`
	LowerBound      float64 `cbor:"lower_bound" json:"lower_bound"`
	UpperBound      float64 `cbor:"upper_bound" json:"upper_bound"`
}

// Estimate bundles a point estimate with its standard error and confidence
// interval, derived from a bootstrap Distribution.
type Estimate struct {
	PointEstimate      float64            `cbor:"point_estimate" json:"point_estimate"`
	StandardError      float64            `cbor:"standard_error" json:"standard_error"`
	ConfidenceInterval ConfidenceInterval `cbor:"confidence_interval" json:"confidence_interval"`
}

// BuildEstimate constructs an Estimate from a point value and the
// distribution that was bootstrapped to estimate it.
func BuildEstimate(point float64, dist *stats.Distribution, confidenceLevel float64) Estimate {
	lb, ub := dist.ConfidenceInterval(confidenceLevel)
	return Estimate{
		PointEstimate: point,
		StandardError: dist.StdDev(nil),
		ConfidenceInterval: ConfidenceInterval{
			ConfidenceLevel: confidenceLevel,
			LowerBound:      lb,
			UpperBound:      ub,
		},
	}
}

// PointEstimates are the four raw point statistics computed from a sample
// of average times, before bootstrapping.
type PointEstimates struct {
	Mean         float64
	Median       float64
	StdDev       float64
	MedianAbsDev float64
}

// Distributions groups the bootstrap Distribution for each absolute
// statistic. Slope is nil unless the sampling method is linear.
type Distributions struct {
	Mean         *stats.Distribution
	Median       *stats.Distribution
	StdDev       *stats.Distribution
	MedianAbsDev *stats.Distribution
	Slope        *stats.Distribution
}

// Estimates groups the absolute Estimate for each statistic. Slope is nil
// unless the sampling method is linear.
type Estimates struct {
	Mean         Estimate  `cbor:"mean" json:"mean"`
	Median       Estimate  `cbor:"median" json:"median"`
	StdDev       Estimate  `cbor:"std_dev" json:"std_dev"`
	MedianAbsDev Estimate  `cbor:"median_abs_dev" json:"median_abs_dev"`
	Slope        *Estimate `cbor:"slope,omitempty" json:"slope,omitempty"`
}

// Typical returns the headline estimate: the slope if present, else the
// mean.
func (e *Estimates) Typical() Estimate {
	if e.Slope != nil {
		return *e.Slope
	}
	return e.Mean
}

// BuildEstimates constructs an Estimates from point statistics and their
// distributions, at the given confidence level. Slope is left nil; callers
// attach it separately when the sampling method is linear.
func BuildEstimates(points PointEstimates, dists Distributions, confidenceLevel float64) Estimates {
	return Estimates{
		Mean:         BuildEstimate(points.Mean, dists.Mean, confidenceLevel),
		Median:       BuildEstimate(points.Median, dists.Median, confidenceLevel),
		StdDev:       BuildEstimate(points.StdDev, dists.StdDev, confidenceLevel),
		MedianAbsDev: BuildEstimate(points.MedianAbsDev, dists.MedianAbsDev, confidenceLevel),
	}
}

// ChangePointEstimates are the two raw relative-change point statistics.
type ChangePointEstimates struct {
	Mean   float64
	Median float64
}

// ChangeDistributions groups the bootstrap distributions for the relative
// change statistics.
type ChangeDistributions struct {
	Mean   *stats.Distribution
	Median *stats.Distribution
}

// ChangeEstimates groups the relative-change Estimate for mean and median.
type ChangeEstimates struct {
	Mean   Estimate `cbor:"mean" json:"mean"`
	Median Estimate `cbor:"median" json:"median"`
}

// BuildChangeEstimates constructs a ChangeEstimates from relative-change
// point statistics and their distributions.
func BuildChangeEstimates(points ChangePointEstimates, dists ChangeDistributions, confidenceLevel float64) ChangeEstimates {
	return ChangeEstimates{
		Mean:   BuildEstimate(points.Mean, dists.Mean, confidenceLevel),
		Median: BuildEstimate(points.Median, dists.Median, confidenceLevel),
	}
}
