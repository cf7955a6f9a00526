package media

import (
	"math"
	"testing"
)

func TestDecodePCM16(t *testing.T) {
	// int16 values: 0, 16384, -32768 in little-endian.
	raw := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x80}

	samples := decodePCM16(raw)
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	want := []float64{0, 0.5, -1}
	for i := range want {
		if math.Abs(samples[i]-want[i]) > 1e-9 {
			t.Errorf("sample %d = %v, want %v", i, samples[i], want[i])
		}
	}

	if got := decodePCM16([]byte{0x01}); len(got) != 0 {
		t.Errorf("odd byte count should decode to nothing, got %v", got)
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.000"},
		{12.5, "12.500"},
		{-3, "0.000"},
		{0.3333333, "0.333"},
	}
	for _, tt := range tests {
		if got := formatSeconds(tt.in); got != tt.want {
			t.Errorf("formatSeconds(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWhisperConfigured(t *testing.T) {
	if NewWhisper("", "").Configured() {
		t.Error("empty paths should not be configured")
	}
	if NewWhisper("whisper", "").Configured() {
		t.Error("missing model should not be configured")
	}
	if !NewWhisper("whisper", "model.bin").Configured() {
		t.Error("both paths set should be configured")
	}

	var nilWhisper *Whisper
	if nilWhisper.Configured() {
		t.Error("nil receiver should not be configured")
	}
}
