package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/reelworthy/api/internal/config"
	"github.com/reelworthy/api/internal/detect"
	"github.com/reelworthy/api/internal/jobs"
)

// stubMedia synthesizes audio in memory and "cuts" clips by writing
// empty files.
type stubMedia struct {
	audio    detect.AudioSample
	cutErrOn string // substring of the output path that fails
	cuts     int
}

func (m *stubMedia) ExtractAudio(ctx context.Context, input string) (detect.AudioSample, error) {
	return m.audio, nil
}

func (m *stubMedia) ExtractAudioFile(ctx context.Context, input, outWav string) error {
	return os.WriteFile(outWav, nil, 0o644)
}

func (m *stubMedia) Duration(ctx context.Context, input string) (float64, error) {
	return m.audio.Duration(), nil
}

func (m *stubMedia) Cut(ctx context.Context, src string, start, duration float64, out string) error {
	if m.cutErrOn != "" && strings.Contains(out, m.cutErrOn) {
		return errors.New("stream copy failed")
	}
	m.cuts++
	return os.WriteFile(out, []byte("clip"), 0o644)
}

type failingClassifier struct{}

func (failingClassifier) ClassifyAudio(ctx context.Context, samples []float64, rate int) ([]detect.LabelScore, error) {
	return nil, errors.New("inference unavailable")
}

// burstAudio returns a track with loud constant-amplitude bursts over a
// near-silent floor.
func burstAudio(durationSec float64, bursts ...[2]float64) detect.AudioSample {
	rate := 1000
	samples := make([]float64, int(durationSec)*rate)
	for i := range samples {
		samples[i] = 0.0001
	}
	for _, b := range bursts {
		lo, hi := int(b[0])*rate, int(b[1])*rate
		for i := lo; i < hi && i < len(samples); i++ {
			samples[i] = 0.5
		}
	}
	return detect.AudioSample{Samples: samples, Rate: rate}
}

func energyDetectConfig() config.DetectConfig {
	return config.DetectConfig{
		Strategy:         "dense",
		Scorer:           "transcript_humor",
		WindowSec:        5,
		StepSec:          2,
		MinRMS:           0.002,
		EnergyWeight:     0.4,
		HumorWeight:      0.6,
		KeywordWeight:    0.4,
		SentimentWeight:  0.6,
		AcceptThreshold:  0.02,
		MaxClips:         3,
		MinSeparationSec: 30,
		ClipRadiusSec:    20,
	}
}

func TestDetect_EnergyOnlyRun(t *testing.T) {
	outDir := t.TempDir()
	media := &stubMedia{audio: burstAudio(180, [2]float64{30, 36}, [2]float64{120, 126})}
	caps := Capabilities{Media: media}

	results, err := Detect(context.Background(), caps, energyDetectConfig(),
		"in.mp4", outDir, "job-1", "/download/job-1", jobs.NopSink, zerolog.Nop())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(results))
	}

	for i, r := range results {
		if r.Rank != i+1 {
			t.Errorf("clip %d rank = %d", i, r.Rank)
		}
		if !strings.HasPrefix(r.URL, "/download/job-1/") {
			t.Errorf("clip URL %q missing download prefix", r.URL)
		}
		if r.End <= r.Start || r.Start < 0 || r.End > 180 {
			t.Errorf("clip bounds [%.1f, %.1f] invalid", r.Start, r.End)
		}
		if r.Explanation == "" {
			t.Errorf("clip %d has no explanation", i)
		}
		if _, err := os.Stat(filepath.Join(outDir, r.Filename)); err != nil {
			t.Errorf("clip file %s missing: %v", r.Filename, err)
		}
	}

	// The two bursts are 90s apart, so both survive selection and their
	// clips must not overlap.
	if results[0].Start < results[1].End && results[1].Start < results[0].End {
		t.Error("selected clips overlap")
	}
}

func TestDetect_FailingClassifierCompletesEmpty(t *testing.T) {
	outDir := t.TempDir()
	media := &stubMedia{audio: burstAudio(120, [2]float64{30, 36})}
	caps := Capabilities{Media: media, AudioEvents: failingClassifier{}}

	cfg := energyDetectConfig()
	cfg.Scorer = "audio_event"
	cfg.EventWeight = 0.6

	results, err := Detect(context.Background(), caps, cfg,
		"in.mp4", outDir, "job-2", "/download/job-2", jobs.NopSink, zerolog.Nop())
	if err != nil {
		t.Fatalf("expected graceful completion, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no clips when every classification fails, got %d", len(results))
	}
	if media.cuts != 0 {
		t.Errorf("expected no cuts, got %d", media.cuts)
	}
}

func TestDetect_CutFailureKeepsRemainingClips(t *testing.T) {
	outDir := t.TempDir()
	media := &stubMedia{
		audio:    burstAudio(180, [2]float64{30, 36}, [2]float64{120, 126}),
		cutErrOn: "clip_1",
	}
	caps := Capabilities{Media: media}

	results, err := Detect(context.Background(), caps, energyDetectConfig(),
		"in.mp4", outDir, "job-3", "/download/job-3", jobs.NopSink, zerolog.Nop())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected the surviving clip only, got %d", len(results))
	}
	if results[0].Rank != 2 {
		t.Errorf("surviving clip rank = %d, want 2", results[0].Rank)
	}
}

func TestDetect_ProgressReachesEnd(t *testing.T) {
	outDir := t.TempDir()
	media := &stubMedia{audio: burstAudio(120, [2]float64{30, 36})}
	caps := Capabilities{Media: media}

	var reports []int
	sink := jobs.SinkFunc(func(pct int) { reports = append(reports, pct) })

	if _, err := Detect(context.Background(), caps, energyDetectConfig(),
		"in.mp4", outDir, "job-4", "/download/job-4", sink, zerolog.Nop()); err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if len(reports) == 0 {
		t.Fatal("expected progress reports")
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Fatalf("progress went backwards: %v", reports)
		}
	}
	if last := reports[len(reports)-1]; last != 99 {
		t.Errorf("final progress = %d, want 99", last)
	}
}

func TestDetect_PeakStrategy(t *testing.T) {
	outDir := t.TempDir()
	media := &stubMedia{audio: burstAudio(240, [2]float64{30, 31}, [2]float64{200, 201})}
	caps := Capabilities{Media: media}

	cfg := energyDetectConfig()
	cfg.Strategy = "peaks"
	cfg.PeakFrameSec = 1
	cfg.PeakPercentile = 75
	cfg.PeakRetryPercentile = 60
	cfg.PeakMinDistanceSec = 10

	results, err := Detect(context.Background(), caps, cfg,
		"in.mp4", outDir, "job-5", "/download/job-5", jobs.NopSink, zerolog.Nop())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 clips from 2 peaks, got %d", len(results))
	}
	for _, r := range results {
		if r.End-r.Start > 2*cfg.ClipRadiusSec+1e-9 {
			t.Errorf("clip [%.1f, %.1f] longer than the window budget", r.Start, r.End)
		}
	}
}
