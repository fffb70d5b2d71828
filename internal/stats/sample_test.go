package stats

import (
	"math"
	"testing"
)

func almostEqual(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %v, want %v (tol %v)", msg, got, want, tol)
	}
}

func TestSampleMean(t *testing.T) {
	s := NewSample([]float64{1, 2, 3, 4, 5})
	almostEqual(t, s.Mean(), 3.0, 1e-9, "mean")
}

func TestSampleMedianOdd(t *testing.T) {
	s := NewSample([]float64{5, 1, 3})
	almostEqual(t, s.Percentiles().Median(), 3.0, 1e-9, "median")
}

func TestSampleMedianEven(t *testing.T) {
	s := NewSample([]float64{1, 2, 3, 4})
	almostEqual(t, s.Percentiles().Median(), 2.5, 1e-9, "median")
}

func TestSampleMinMax(t *testing.T) {
	s := NewSample([]float64{3, -1, 7, 2})
	almostEqual(t, s.Min(), -1, 1e-9, "min")
	almostEqual(t, s.Max(), 7, 1e-9, "max")
}

func TestSampleStdDev(t *testing.T) {
	s := NewSample([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	almostEqual(t, s.StdDev(nil), 2.138089935, 1e-6, "stddev")
}

func TestSampleTIdenticalMeans(t *testing.T) {
	a := NewSample([]float64{1, 2, 3, 4, 5})
	b := NewSample([]float64{1, 2, 3, 4, 5})
	almostEqual(t, a.T(b), 0, 1e-9, "t-statistic of identical samples")
}

func TestSampleTDetectsShift(t *testing.T) {
	a := NewSample([]float64{10, 11, 9, 10, 10})
	b := NewSample([]float64{20, 21, 19, 20, 20})
	tv := a.T(b)
	if tv >= 0 {
		t.Errorf("expected negative t-statistic for a shifted below b, got %v", tv)
	}
}

func TestMedianAbsDev(t *testing.T) {
	s := NewSample([]float64{1, 1, 2, 2, 4, 6, 9})
	mad := s.MedianAbsDev(nil)
	if mad <= 0 {
		t.Errorf("expected positive MAD, got %v", mad)
	}
}
