package analysis

import (
	"math"
	"testing"

	"github.com/kvit-s/critbench/internal/estimate"
	"github.com/kvit-s/critbench/internal/protocol"
	"github.com/kvit-s/critbench/internal/stats"
)

func defaultConfig() Config {
	return Config{
		ConfidenceLevel:   0.95,
		NoiseThreshold:    0.01,
		Nresamples:        1000,
		SignificanceLevel: 0.05,
	}
}

func linearSample(n int, scale float64) MeasuredValues {
	iters := make([]float64, n)
	times := make([]float64, n)
	for i := 0; i < n; i++ {
		iters[i] = float64(i + 1)
		times[i] = scale * float64(i+1)
	}
	return NewMeasuredValues(iters, times)
}

func TestAnalyzeLinearSlopeAndMean(t *testing.T) {
	sample := linearSample(100, 100.0)
	rng := stats.NewRand(1, 1)

	result := Analyze(defaultConfig(), nil, sample, nil, nil, protocol.SamplingLinear, rng)

	if result.Estimates.Slope == nil {
		t.Fatal("expected a slope estimate for linear sampling")
	}
	if math.Abs(result.Estimates.Slope.PointEstimate-100.0) > 1.0 {
		t.Errorf("expected slope ~100.0, got %v", result.Estimates.Slope.PointEstimate)
	}
	if math.Abs(result.Estimates.Mean.PointEstimate-100.0) > 1.0 {
		t.Errorf("expected mean ~100.0, got %v", result.Estimates.Mean.PointEstimate)
	}
	if result.RSquared == nil {
		t.Fatal("expected an R-squared value for linear sampling")
	}
	if math.Abs(*result.RSquared-1.0) > 1e-6 {
		t.Errorf("expected R^2 ~1.0 for a perfectly linear fit, got %v", *result.RSquared)
	}
}

func TestAnalyzeFlatSamplingHasNoSlope(t *testing.T) {
	sample := linearSample(50, 50.0)
	rng := stats.NewRand(2, 2)

	result := Analyze(defaultConfig(), nil, sample, nil, nil, protocol.SamplingFlat, rng)
	if result.Estimates.Slope != nil {
		t.Error("expected no slope estimate for flat sampling")
	}
	if result.RSquared != nil {
		t.Error("expected no R-squared value for flat sampling")
	}
}

func TestEstimateBoundsBracketPointEstimate(t *testing.T) {
	sample := linearSample(100, 100.0)
	rng := stats.NewRand(3, 3)

	result := Analyze(defaultConfig(), nil, sample, nil, nil, protocol.SamplingLinear, rng)

	for name, est := range map[string]struct {
		lb, point, ub float64
	}{
		"mean":   {result.Estimates.Mean.ConfidenceInterval.LowerBound, result.Estimates.Mean.PointEstimate, result.Estimates.Mean.ConfidenceInterval.UpperBound},
		"median": {result.Estimates.Median.ConfidenceInterval.LowerBound, result.Estimates.Median.PointEstimate, result.Estimates.Median.ConfidenceInterval.UpperBound},
	} {
		if est.lb > est.point || est.point > est.ub {
			t.Errorf("%s: expected lb <= point <= ub, got [%v, %v, %v]", name, est.lb, est.point, est.ub)
		}
	}
}

func TestAnalyzeComparisonDetectsTenPercentRegression(t *testing.T) {
	base := linearSample(100, 100.0)
	regressed := linearSample(100, 110.0)

	rngBase := stats.NewRand(10, 20)
	baseResult := Analyze(defaultConfig(), nil, base, nil, nil, protocol.SamplingLinear, rngBase)

	config := defaultConfig()
	config.NoiseThreshold = 0.02
	rngNew := stats.NewRand(30, 40)
	newResult := Analyze(config, nil, regressed, &base, &baseResult.Estimates, protocol.SamplingLinear, rngNew)

	if newResult.Comparison == nil {
		t.Fatal("expected a comparison result")
	}
	mean := newResult.Comparison.RelativeEstimates.Mean.PointEstimate
	if math.Abs(mean-0.10) > 0.02 {
		t.Errorf("expected relative mean change ~0.10, got %v", mean)
	}

	verdict := CompareToThreshold(newResult.Comparison.RelativeEstimates.Mean, config.NoiseThreshold)
	if verdict != Regressed {
		t.Errorf("expected Regressed verdict, got %v", verdict)
	}
}

func TestCompareToThresholdStraddlingZeroIsNonSignificant(t *testing.T) {
	est := estimateWithBounds(-0.005, 0.0, 0.005)
	if got := CompareToThreshold(est, 0); got != NonSignificant {
		t.Errorf("expected NonSignificant for a straddling interval, got %v", got)
	}
}

func TestCompareToThresholdImproved(t *testing.T) {
	est := estimateWithBounds(-0.2, -0.15, -0.1)
	if got := CompareToThreshold(est, 0.05); got != Improved {
		t.Errorf("expected Improved, got %v", got)
	}
}

func TestCompareToThresholdRegressed(t *testing.T) {
	est := estimateWithBounds(0.1, 0.15, 0.2)
	if got := CompareToThreshold(est, 0.05); got != Regressed {
		t.Errorf("expected Regressed, got %v", got)
	}
}

func estimateWithBounds(lb, point, ub float64) estimate.Estimate {
	return estimate.Estimate{
		PointEstimate: point,
		ConfidenceInterval: estimate.ConfidenceInterval{
			LowerBound: lb,
			UpperBound: ub,
		},
	}
}
