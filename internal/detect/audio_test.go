package detect

import (
	"math"
	"testing"
)

func TestAudioSample_Duration(t *testing.T) {
	a := AudioSample{Samples: make([]float64, 32000), Rate: 16000}
	if got := a.Duration(); got != 2 {
		t.Errorf("Duration() = %v, want 2", got)
	}
	if got := (AudioSample{}).Duration(); got != 0 {
		t.Errorf("empty sample Duration() = %v, want 0", got)
	}
}

func TestAudioSample_SliceClamps(t *testing.T) {
	a := AudioSample{Samples: []float64{1, 2, 3, 4}, Rate: 2}

	if got := a.Slice(-1, 1); len(got) != 2 {
		t.Errorf("negative start should clamp to 0, got %d samples", len(got))
	}
	if got := a.Slice(1, 10); len(got) != 2 {
		t.Errorf("overlong end should clamp to track, got %d samples", len(got))
	}
	if got := a.Slice(3, 4); got != nil {
		t.Errorf("slice past the end should be nil, got %v", got)
	}
}

func TestRMS(t *testing.T) {
	if got := rms(nil); got != 0 {
		t.Errorf("rms(nil) = %v, want 0", got)
	}
	if got := rms([]float64{0.5, -0.5, 0.5, -0.5}); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("rms = %v, want 0.5", got)
	}
}

func TestPeakNormalize(t *testing.T) {
	in := []float64{0.25, -0.5}
	out := peakNormalize(in)
	if math.Abs(out[0]-0.5) > 1e-9 || math.Abs(out[1]+1) > 1e-9 {
		t.Errorf("peakNormalize = %v", out)
	}
	if in[0] != 0.25 {
		t.Error("input slice must not be mutated")
	}

	silent := peakNormalize([]float64{0, 0})
	if silent[0] != 0 || silent[1] != 0 {
		t.Errorf("silent slice should pass through, got %v", silent)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{50, 2},
		{75, 3},
		{100, 4},
	}
	for _, tt := range tests {
		if got := percentile(values, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile of empty input = %v, want 0", got)
	}
}
