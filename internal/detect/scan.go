package detect

// Window is one surviving audio slice from a scan: its time bounds, raw
// RMS energy, and peak-normalized samples ready for classification.
type Window struct {
	Start   float64
	End     float64
	RMS     float64
	Samples []float64
}

// Center returns the window's midpoint in seconds.
func (w Window) Center() float64 { return (w.Start + w.End) / 2 }

// SignalSource produces candidate time windows with an energy value each.
// Scanning is synchronous and deterministic for a given sample and
// parameter set.
type SignalSource interface {
	Scan(a AudioSample) []Window
}

// DenseEnergyScan slides a fixed window over the track and keeps every
// window whose RMS clears the gate. The gate is a cheap precomputation
// step: near-silent audio never reaches the (expensive) classifier.
type DenseEnergyScan struct {
	WindowSec float64
	StepSec   float64
	MinRMS    float64
}

func (s DenseEnergyScan) Scan(a AudioSample) []Window {
	if s.WindowSec <= 0 || s.StepSec <= 0 || a.Rate <= 0 {
		return nil
	}

	duration := a.Duration()
	var out []Window
	for start := 0.0; start+s.WindowSec <= duration; start += s.StepSec {
		end := start + s.WindowSec
		slice := a.Slice(start, end)
		if len(slice) == 0 {
			break
		}

		energy := rms(slice)
		if energy < s.MinRMS {
			continue
		}

		out = append(out, Window{
			Start:   start,
			End:     end,
			RMS:     energy,
			Samples: peakNormalize(slice),
		})
	}
	return out
}

// PeakDetectionScan computes frame RMS across the whole track and keeps
// local maxima above a percentile threshold, separated by a minimum
// distance. When no peak clears the threshold the scan retries once with
// the lowered retry percentile. It produces a sparser, energy-justified
// window set than the dense scan but shares its output shape.
type PeakDetectionScan struct {
	FrameSec        float64
	WindowSec       float64
	MinDistanceSec  float64
	Percentile      float64
	RetryPercentile float64
}

func (s PeakDetectionScan) Scan(a AudioSample) []Window {
	if s.FrameSec <= 0 || a.Rate <= 0 {
		return nil
	}

	duration := a.Duration()
	frames := int(duration / s.FrameSec)
	if frames == 0 {
		return nil
	}

	energies := make([]float64, frames)
	for i := 0; i < frames; i++ {
		start := float64(i) * s.FrameSec
		energies[i] = rms(a.Slice(start, start+s.FrameSec))
	}

	peaks := s.findPeaks(energies, percentile(energies, s.Percentile))
	if len(peaks) == 0 && s.RetryPercentile > 0 && s.RetryPercentile < s.Percentile {
		peaks = s.findPeaks(energies, percentile(energies, s.RetryPercentile))
	}

	half := s.WindowSec / 2
	var out []Window
	for _, idx := range peaks {
		center := (float64(idx) + 0.5) * s.FrameSec
		start := center - half
		end := center + half
		if start < 0 {
			start = 0
		}
		if end > duration {
			end = duration
		}
		slice := a.Slice(start, end)
		if len(slice) == 0 {
			continue
		}
		out = append(out, Window{
			Start:   start,
			End:     end,
			RMS:     energies[idx],
			Samples: peakNormalize(slice),
		})
	}
	return out
}

// findPeaks returns frame indices that are local maxima above threshold,
// greedily keeping the strongest peak of each cluster closer than the
// minimum distance.
func (s PeakDetectionScan) findPeaks(energies []float64, threshold float64) []int {
	minGap := 1
	if s.FrameSec > 0 && s.MinDistanceSec > 0 {
		minGap = int(s.MinDistanceSec / s.FrameSec)
		if minGap < 1 {
			minGap = 1
		}
	}

	var candidates []int
	for i := range energies {
		if energies[i] < threshold || energies[i] == 0 {
			continue
		}
		// Strict comparison keeps a flat noise floor from reading as a
		// run of tied peaks.
		if i > 0 && energies[i] <= energies[i-1] {
			continue
		}
		if i < len(energies)-1 && energies[i] <= energies[i+1] {
			continue
		}
		candidates = append(candidates, i)
	}

	// Strongest first, then suppress neighbors.
	order := make([]int, len(candidates))
	copy(order, candidates)
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if energies[order[j]] > energies[order[i]] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}

	var kept []int
	for _, idx := range order {
		ok := true
		for _, k := range kept {
			if abs(idx-k) < minGap {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, idx)
		}
	}

	// Chronological output keeps scanning deterministic downstream.
	for i := 0; i < len(kept); i++ {
		for j := i + 1; j < len(kept); j++ {
			if kept[j] < kept[i] {
				kept[i], kept[j] = kept[j], kept[i]
			}
		}
	}
	return kept
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
