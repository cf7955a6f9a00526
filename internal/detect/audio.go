package detect

import (
	"math"
	"sort"
)

// AudioSample is a decoded mono PCM waveform. It is owned by a single
// pipeline run, never mutated after loading, and discarded with the run.
type AudioSample struct {
	Samples []float64
	Rate    int
}

// Duration returns the track length in seconds.
func (a AudioSample) Duration() float64 {
	if a.Rate <= 0 {
		return 0
	}
	return float64(len(a.Samples)) / float64(a.Rate)
}

// Slice returns the samples covering [start, end) seconds, clamped to the
// track bounds.
func (a AudioSample) Slice(start, end float64) []float64 {
	if a.Rate <= 0 {
		return nil
	}
	lo := int(start * float64(a.Rate))
	hi := int(end * float64(a.Rate))
	if lo < 0 {
		lo = 0
	}
	if hi > len(a.Samples) {
		hi = len(a.Samples)
	}
	if lo >= hi {
		return nil
	}
	return a.Samples[lo:hi]
}

// rms computes root-mean-square amplitude.
func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// peakNormalize returns a copy of the slice scaled so its peak absolute
// amplitude is 1. Normalizing before classification stabilizes the model
// across loudness levels. A silent slice is returned as an unscaled copy.
func peakNormalize(samples []float64) []float64 {
	out := make([]float64, len(samples))
	var peak float64
	for _, s := range samples {
		if v := math.Abs(s); v > peak {
			peak = v
		}
	}
	if peak == 0 {
		copy(out, samples)
		return out
	}
	for i, s := range samples {
		out[i] = s / peak
	}
	return out
}

// percentile returns the p-th percentile (0-100) of values using
// nearest-rank on a sorted copy.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
