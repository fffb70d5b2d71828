// Package analysis implements the analysis orchestrator: turning raw
// samples from one benchmark into estimates, distributions, and (when a
// prior run exists) a comparison against it.
package analysis

import (
	"math/rand/v2"

	"github.com/kvit-s/critbench/internal/estimate"
	"github.com/kvit-s/critbench/internal/protocol"
	"github.com/kvit-s/critbench/internal/stats"
)

// Config carries the statistical parameters controlling one analysis run.
type Config struct {
	ConfidenceLevel   float64
	NoiseThreshold    float64
	Nresamples        int
	SignificanceLevel float64
}

// MeasuredValues is one raw sample set: parallel iters/times arrays plus
// their derived per-iteration averages.
type MeasuredValues struct {
	Iters     []float64
	Times     []float64
	AvgValues []float64
}

// NewMeasuredValues builds a MeasuredValues from parallel iters/times
// slices, computing AvgValues = Times[i]/Iters[i].
func NewMeasuredValues(iters, times []float64) MeasuredValues {
	avg := make([]float64, len(iters))
	for i := range iters {
		avg[i] = times[i] / iters[i]
	}
	return MeasuredValues{Iters: iters, Times: times, AvgValues: avg}
}

// ComparisonData is the result of comparing a new sample against the
// previously saved one.
type ComparisonData struct {
	PValue               float64
	TValue               float64
	TDistribution        *stats.Distribution
	RelativeEstimates    estimate.ChangeEstimates
	RelativeDistributions estimate.ChangeDistributions
	SignificanceThreshold float64
	NoiseThreshold       float64
	BaseIterCounts       []float64
	BaseSampleTimes      []float64
	BaseAvgTimes         []float64
	BaseEstimates        estimate.Estimates
}

// MeasurementData bundles the full result of analysing one benchmark's raw
// samples: the Tukey-labelled average times, the absolute estimates and
// their distributions, an optional comparison against a prior run, and the
// optional throughput the child reported.
type MeasurementData struct {
	Iters      []float64
	Times      []float64
	AvgTimes   *stats.LabeledSample
	Estimates  estimate.Estimates
	Distributions estimate.Distributions
	Comparison *ComparisonData
	Throughput *protocol.Throughput

	// RSquared is the coefficient of determination of the slope fit
	// against the raw (iters, times) pairs; nil unless the sampling
	// method is linear.
	RSquared *float64
}

// ComparisonResult classifies a relative-change estimate against a noise
// threshold.
type ComparisonResult int

const (
	Improved ComparisonResult = iota
	Regressed
	NonSignificant
)

// CompareToThreshold implements compare_to_threshold: both confidence
// bounds below -noise is Improved, both above +noise is Regressed,
// otherwise NonSignificant (including any interval straddling zero).
func CompareToThreshold(est estimate.Estimate, noise float64) ComparisonResult {
	lb := est.ConfidenceInterval.LowerBound
	ub := est.ConfidenceInterval.UpperBound
	switch {
	case lb < -noise && ub < -noise:
		return Improved
	case lb > noise && ub > noise:
		return Regressed
	default:
		return NonSignificant
	}
}

// Analyze runs the common analysis procedure: point statistics + bootstrap
// estimates, optional regression (when sampling is Linear), Tukey
// classification, and an optional comparison against oldSample/oldEstimates
// when provided.
func Analyze(
	config Config,
	throughput *protocol.Throughput,
	newSample MeasuredValues,
	oldSample *MeasuredValues,
	oldEstimates *estimate.Estimates,
	samplingMethod protocol.SamplingMethod,
	rng *rand.Rand,
) MeasurementData {
	avgValues := stats.NewSample(newSample.AvgValues)
	labeledSample := stats.ClassifyTukey(avgValues)

	dists, estimates := computeEstimates(avgValues, config, rng)

	var rSquared *float64
	if samplingMethod.IsLinear() {
		dist, slopeEst := regression(newSample.Iters, newSample.Times, config, rng)
		estimates.Slope = &slopeEst
		dists.Slope = dist

		r2 := stats.RSquared(newSample.Iters, newSample.Times, slopeEst.PointEstimate)
		rSquared = &r2
	}

	var comparison *ComparisonData
	if oldSample != nil && oldEstimates != nil {
		comparison = compare(avgValues, *oldSample, *oldEstimates, config, rng)
	}

	return MeasurementData{
		Iters:         newSample.Iters,
		Times:         newSample.Times,
		AvgTimes:      labeledSample,
		Estimates:     estimates,
		Distributions: dists,
		Comparison:    comparison,
		Throughput:    throughput,
		RSquared:      rSquared,
	}
}

// regression fits a bootstrap slope estimate over (iters, times).
func regression(iters, times []float64, config Config, rng *rand.Rand) (*stats.Distribution, estimate.Estimate) {
	point := stats.SlopeFit(iters, times)

	dists := stats.BootstrapBivariate(stats.BivariateData{X: iters, Y: times}, config.Nresamples, rng, func(x, y []float64) []float64 {
		return []float64{stats.SlopeFit(x, y)}
	})
	dist := dists[0]

	return dist, estimate.BuildEstimate(point, dist, config.ConfidenceLevel)
}

// computeEstimates bootstraps the four absolute point statistics (mean,
// std_dev, median, median_abs_dev) in a single pass, matching the
// reference tool's tuple-returning closure.
func computeEstimates(avgTimes *stats.Sample, config Config, rng *rand.Rand) (estimate.Distributions, estimate.Estimates) {
	statTuple := func(sample []float64) []float64 {
		s := stats.NewSample(sample)
		mean := s.Mean()
		stdDev := s.StdDev(&mean)
		median := s.Percentiles().Median()
		mad := s.MedianAbsDev(&median)
		return []float64{mean, stdDev, median, mad}
	}

	mean := avgTimes.Mean()
	stdDev := avgTimes.StdDev(&mean)
	median := avgTimes.Percentiles().Median()
	mad := avgTimes.MedianAbsDev(&median)

	dists := stats.BootstrapSingle(avgTimes, config.Nresamples, rng, statTuple)

	distributions := estimate.Distributions{
		Mean:         dists[0],
		StdDev:       dists[1],
		Median:       dists[2],
		MedianAbsDev: dists[3],
	}
	points := estimate.PointEstimates{Mean: mean, StdDev: stdDev, Median: median, MedianAbsDev: mad}

	estimates := estimate.BuildEstimates(points, distributions, config.ConfidenceLevel)
	return distributions, estimates
}

// compare runs the common comparison procedure: Welch's t-test via mixed
// bootstrap, and relative mean/median change estimates via two-sample
// bootstrap.
func compare(newAvgTimes *stats.Sample, oldValues MeasuredValues, oldEstimates estimate.Estimates, config Config, rng *rand.Rand) *ComparisonData {
	baseAvgValues := make([]float64, len(oldValues.Iters))
	for i := range oldValues.Iters {
		baseAvgValues[i] = oldValues.Times[i] / oldValues.Iters[i]
	}
	baseSample := stats.NewSample(baseAvgValues)

	tStatistic, tDistribution := tTest(newAvgTimes, baseSample, config, rng)
	relEstimates, relDistributions := differenceEstimates(newAvgTimes, baseSample, config, rng)

	pValue := tDistribution.PValue(tStatistic, stats.TailsTwo)

	return &ComparisonData{
		PValue:                pValue,
		TValue:                tStatistic,
		TDistribution:         tDistribution,
		RelativeEstimates:     relEstimates,
		RelativeDistributions: relDistributions,
		SignificanceThreshold: config.SignificanceLevel,
		NoiseThreshold:        config.NoiseThreshold,
		BaseIterCounts:        oldValues.Iters,
		BaseSampleTimes:       oldValues.Times,
		BaseAvgTimes:          baseAvgValues,
		BaseEstimates:         oldEstimates,
	}
}

// tTest performs a two-sample Welch t-test, building the null distribution
// via the mixed bootstrap and filtering non-finite replicates (which can
// occur when sample_size is very small).
func tTest(avgTimes, baseAvgTimes *stats.Sample, config Config, rng *rand.Rand) (float64, *stats.Distribution) {
	tStatistic := avgTimes.T(baseAvgTimes)

	dists := stats.BootstrapMixed(avgTimes, baseAvgTimes, config.Nresamples, rng, func(a, b []float64) []float64 {
		return []float64{stats.NewSample(a).T(stats.NewSample(b))}
	})

	return tStatistic, dists[0].FilterFinite()
}

// differenceEstimates bootstraps the relative change in mean and median
// between avgTimes and baseAvgTimes.
func differenceEstimates(avgTimes, baseAvgTimes *stats.Sample, config Config, rng *rand.Rand) (estimate.ChangeEstimates, estimate.ChangeDistributions) {
	statPair := func(a, b []float64) []float64 {
		sa, sb := stats.NewSample(a), stats.NewSample(b)
		return []float64{
			sa.Mean()/sb.Mean() - 1,
			sa.Percentiles().Median()/sb.Percentiles().Median() - 1,
		}
	}

	dists := stats.BootstrapTwoSample(avgTimes, baseAvgTimes, config.Nresamples, rng, statPair)
	distributions := estimate.ChangeDistributions{Mean: dists[0], Median: dists[1]}

	values := statPair(avgTimes.Data(), baseAvgTimes.Data())
	points := estimate.ChangePointEstimates{Mean: values[0], Median: values[1]}

	estimates := estimate.BuildChangeEstimates(points, distributions, config.ConfidenceLevel)
	return estimates, distributions
}
