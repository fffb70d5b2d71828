package stats

import "math/rand/v2"

// Each bootstrap function below takes a caller-supplied statistic function
// (its stat parameter) applied to one or more resampled slices, producing a
// tuple of 1..N scalars packed into a slice.
// The same tuple shape is used for every iteration, so the first call's
// output length fixes the number of Distributions returned.

// BootstrapSingle draws nresamples independent resamples with replacement,
// each the same size as sample, and applies stat to each. It returns one
// Distribution per output scalar of stat.
func BootstrapSingle(sample *Sample, nresamples int, rng *rand.Rand, stat func([]float64) []float64) []*Distribution {
	data := sample.Data()
	n := len(data)
	scratch := make([]float64, n)

	var out [][]float64
	for i := 0; i < nresamples; i++ {
		resample(data, scratch, rng)
		values := stat(scratch)
		if out == nil {
			out = make([][]float64, len(values))
			for j := range out {
				out[j] = make([]float64, nresamples)
			}
		}
		for j, v := range values {
			out[j][i] = v
		}
	}
	return toDistributions(out)
}

// BootstrapTwoSample draws independent resamples from a and b each
// iteration (each the size of its source sample) and applies a paired
// statistic. Used for relative-change distributions (mean, median).
func BootstrapTwoSample(a, b *Sample, nresamples int, rng *rand.Rand, stat func(a, b []float64) []float64) []*Distribution {
	da, db := a.Data(), b.Data()
	scratchA := make([]float64, len(da))
	scratchB := make([]float64, len(db))

	var out [][]float64
	for i := 0; i < nresamples; i++ {
		resample(da, scratchA, rng)
		resample(db, scratchB, rng)
		values := stat(scratchA, scratchB)
		if out == nil {
			out = make([][]float64, len(values))
			for j := range out {
				out[j] = make([]float64, nresamples)
			}
		}
		for j, v := range values {
			out[j][i] = v
		}
	}
	return toDistributions(out)
}

// BootstrapMixed implements the mixed two-sample bootstrap used to build
// the null distribution of Welch's t-statistic: the two samples are pooled,
// then each iteration draws two disjoint-sized resamples (of the original
// sample sizes) with replacement from the pooled set and applies the
// statistic to them.
func BootstrapMixed(a, b *Sample, nresamples int, rng *rand.Rand, stat func(a, b []float64) []float64) []*Distribution {
	da, db := a.Data(), b.Data()
	pooled := make([]float64, 0, len(da)+len(db))
	pooled = append(pooled, da...)
	pooled = append(pooled, db...)

	scratchA := make([]float64, len(da))
	scratchB := make([]float64, len(db))

	var out [][]float64
	for i := 0; i < nresamples; i++ {
		resample(pooled, scratchA, rng)
		resample(pooled, scratchB, rng)
		values := stat(scratchA, scratchB)
		if out == nil {
			out = make([][]float64, len(values))
			for j := range out {
				out[j] = make([]float64, nresamples)
			}
		}
		for j, v := range values {
			out[j][i] = v
		}
	}
	return toDistributions(out)
}

// BivariateData is a paired (x, y) dataset, e.g. (iters, times).
type BivariateData struct {
	X, Y []float64
}

// BootstrapBivariate draws nresamples sets of len(data.X) paired indices
// with replacement and applies stat to the resampled pairs. Used for
// bootstrapping the regression slope.
func BootstrapBivariate(data BivariateData, nresamples int, rng *rand.Rand, stat func(x, y []float64) []float64) []*Distribution {
	n := len(data.X)
	scratchX := make([]float64, n)
	scratchY := make([]float64, n)

	var out [][]float64
	for i := 0; i < nresamples; i++ {
		for k := 0; k < n; k++ {
			idx := rng.IntN(n)
			scratchX[k] = data.X[idx]
			scratchY[k] = data.Y[idx]
		}
		values := stat(scratchX, scratchY)
		if out == nil {
			out = make([][]float64, len(values))
			for j := range out {
				out[j] = make([]float64, nresamples)
			}
		}
		for j, v := range values {
			out[j][i] = v
		}
	}
	return toDistributions(out)
}

// resample draws len(scratch) indices with replacement from src into
// scratch, reusing the scratch buffer across bootstrap iterations to avoid
// per-iteration allocation in the hot loop.
func resample(src, scratch []float64, rng *rand.Rand) {
	n := len(src)
	for i := range scratch {
		scratch[i] = src[rng.IntN(n)]
	}
}

func toDistributions(out [][]float64) []*Distribution {
	dists := make([]*Distribution, len(out))
	for i, values := range out {
		dists[i] = NewDistribution(values)
	}
	return dists
}

// NewRand constructs a PRNG seeded from two independent seeds. Production
// callers seed from crypto/rand at process start (see internal/controller);
// tests pass fixed seeds for reproducibility.
func NewRand(seed1, seed2 uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}
