package downloader

import (
	"strconv"
	"testing"
)

func TestProgressLineParsing(t *testing.T) {
	tests := []struct {
		line string
		pct  float64
		ok   bool
	}{
		{"[download]  42.3% of 10.00MiB at 1.00MiB/s ETA 00:05", 42.3, true},
		{"[download] 100% of 10.00MiB in 00:08", 100, true},
		{"[download] Destination: uploads/abc.mp4", 0, false},
		{"[info] Downloading video thumbnail", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		m := progressRe.FindStringSubmatch(tt.line)
		if (m != nil) != tt.ok {
			t.Errorf("line %q: match = %v, want %v", tt.line, m != nil, tt.ok)
			continue
		}
		if !tt.ok {
			continue
		}
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			t.Errorf("line %q: parse error %v", tt.line, err)
		}
		if pct != tt.pct {
			t.Errorf("line %q: pct = %v, want %v", tt.line, pct, tt.pct)
		}
	}
}
