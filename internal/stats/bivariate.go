package stats

// SlopeFit fits a least-squares slope through the origin: slope = Σ(x·y) /
// Σ(x²). This is the regression used to relate iteration count to elapsed
// time.
func SlopeFit(x, y []float64) float64 {
	var sumXY, sumXX float64
	for i := range x {
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
	}
	if sumXX == 0 {
		return 0
	}
	return sumXY / sumXX
}

// RSquared computes the coefficient of determination of the fitted slope
// against the data: 1 - SSres/SStot, with SStot centred around the mean of
// y.
func RSquared(x, y []float64, slope float64) float64 {
	var sumY float64
	for _, v := range y {
		sumY += v
	}
	meanY := sumY / float64(len(y))

	var ssRes, ssTot float64
	for i := range x {
		pred := slope * x[i]
		resid := y[i] - pred
		ssRes += resid * resid

		d := y[i] - meanY
		ssTot += d * d
	}
	if ssTot == 0 {
		return 1
	}
	return 1 - ssRes/ssTot
}
