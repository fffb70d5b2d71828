package stats

// OutlierLabel classifies one observation relative to the Tukey fences of
// its sample.
type OutlierLabel int

const (
	LowSevere OutlierLabel = iota
	LowMild
	NotAnOutlier
	HighMild
	HighSevere
)

// LabeledSample pairs a sample with a per-observation outlier label, in the
// original observation order.
type LabeledSample struct {
	Sample *Sample
	Labels []OutlierLabel
}

// Len returns the number of observations.
func (l *LabeledSample) Len() int { return len(l.Labels) }

// Count returns (lowSevere, lowMild, notOutlier, highMild, highSevere)
// counts across the labeled sample.
func (l *LabeledSample) Count() (lowSevere, lowMild, notOutlier, highMild, highSevere int) {
	for _, label := range l.Labels {
		switch label {
		case LowSevere:
			lowSevere++
		case LowMild:
			lowMild++
		case NotAnOutlier:
			notOutlier++
		case HighMild:
			highMild++
		case HighSevere:
			highSevere++
		}
	}
	return
}

// ClassifyTukey computes Q1, Q3, and the IQR of sample, then labels every
// observation against fences at Q1-k*IQR / Q3+k*IQR for k=1.5 (mild) and
// k=3 (severe).
func ClassifyTukey(sample *Sample) *LabeledSample {
	p := sample.Percentiles()
	q1 := p.At(0.25)
	q3 := p.At(0.75)
	iqr := q3 - q1

	lowMildFence := q1 - 1.5*iqr
	lowSevereFence := q1 - 3*iqr
	highMildFence := q3 + 1.5*iqr
	highSevereFence := q3 + 3*iqr

	data := sample.Data()
	labels := make([]OutlierLabel, len(data))
	for i, v := range data {
		switch {
		case v < lowSevereFence:
			labels[i] = LowSevere
		case v < lowMildFence:
			labels[i] = LowMild
		case v > highSevereFence:
			labels[i] = HighSevere
		case v > highMildFence:
			labels[i] = HighMild
		default:
			labels[i] = NotAnOutlier
		}
	}
	return &LabeledSample{Sample: sample, Labels: labels}
}
