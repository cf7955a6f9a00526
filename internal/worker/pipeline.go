package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/reelworthy/api/internal/client"
	"github.com/reelworthy/api/internal/config"
	"github.com/reelworthy/api/internal/detect"
	"github.com/reelworthy/api/internal/downloader"
	"github.com/reelworthy/api/internal/jobs"
	"github.com/reelworthy/api/internal/model"
)

// MediaTool is the media-processing capability consumed by the pipeline.
type MediaTool interface {
	ExtractAudio(ctx context.Context, input string) (detect.AudioSample, error)
	ExtractAudioFile(ctx context.Context, input, outWav string) error
	Duration(ctx context.Context, input string) (float64, error)
	Cut(ctx context.Context, src string, start, duration float64, out string) error
}

// Transcriber is the speech-to-text capability. It may be absent.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath, workDir string) ([]model.TranscriptSegment, error)
}

// Fetcher resolves a remote locator to a local file.
type Fetcher interface {
	Fetch(ctx context.Context, url, destDir, id string, onProgress downloader.ProgressFunc) (string, error)
}

// Capabilities bundles the external collaborators a pipeline run consumes.
// Optional entries are nil when unconfigured; the pipeline degrades to
// the signals it still has.
type Capabilities struct {
	Media       MediaTool
	Transcriber Transcriber
	AudioEvents detect.AudioEventClassifier
	Sentiment   detect.SentimentClassifier
	Fetcher     Fetcher
	Storage     client.StorageClient
}

// Progress slices of the processing phase.
const (
	pctAudioExtracted = 15
	pctTranscribed    = 30
	pctScanned        = 85
	pctCut            = 99
)

// Detect runs the full detection pipeline over one local media file and
// returns the finished clip list. downloadBase prefixes local download
// URLs when no object storage is configured. Classifier and per-clip cut
// failures degrade gracefully; only stage-level failures return an error.
func Detect(
	ctx context.Context,
	caps Capabilities,
	dcfg config.DetectConfig,
	mediaPath, outDir, jobID, downloadBase string,
	sink jobs.ProgressSink,
	log zerolog.Logger,
) ([]model.ClipResult, error) {
	if sink == nil {
		sink = jobs.NopSink
	}
	if caps.Media == nil {
		return nil, errors.New("media tool not configured")
	}

	duration, err := caps.Media.Duration(ctx, mediaPath)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}

	audio, err := caps.Media.ExtractAudio(ctx, mediaPath)
	if err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	sink.Report(pctAudioExtracted)

	transcript := transcribe(ctx, caps, dcfg, mediaPath, outDir, log)
	sink.Report(pctTranscribed)

	source := signalSource(dcfg)
	windows := source.Scan(audio)
	log.Info().Int("windows", len(windows)).Float64("duration", duration).Msg("scan complete")

	builder := newBuilder(caps, dcfg, transcript, log)
	builder.OnWindow = func(done, total int) {
		jobs.ScaledSink(sink, pctTranscribed, pctScanned).Report(done * 100 / total)
	}
	candidates := builder.Build(ctx, windows, audio.Rate)
	sink.Report(pctScanned)

	selected := detect.SelectTopK(candidates, dcfg.MaxClips, dcfg.MinSeparationSec)
	planner := detect.Planner{RadiusSec: dcfg.ClipRadiusSec, Mode: anchorMode(dcfg)}
	plan := planner.Plan(selected, duration)

	results := cutClips(ctx, caps, plan, mediaPath, outDir, jobID, downloadBase, log)
	sink.Report(pctCut)

	// Zero clips is a valid terminal outcome, not an error.
	if results == nil {
		results = []model.ClipResult{}
	}
	return results, nil
}

// transcribe runs speech-to-text when the scorer variant wants text and a
// transcriber is available. A transcription failure only costs the text
// signals, never the run.
func transcribe(ctx context.Context, caps Capabilities, dcfg config.DetectConfig, mediaPath, outDir string, log zerolog.Logger) *detect.TranscriptIndex {
	if caps.Transcriber == nil || model.ScorerVariant(dcfg.Scorer) != model.ScorerTranscriptHumor {
		return nil
	}

	wav := filepath.Join(outDir, "audio.wav")
	if err := caps.Media.ExtractAudioFile(ctx, mediaPath, wav); err != nil {
		log.Warn().Err(err).Msg("audio extraction for transcript failed, continuing without text signals")
		return nil
	}
	segments, err := caps.Transcriber.Transcribe(ctx, wav, outDir)
	if err != nil {
		log.Warn().Err(err).Msg("transcription failed, continuing without text signals")
		return nil
	}
	return detect.NewTranscriptIndex(segments)
}

func signalSource(dcfg config.DetectConfig) detect.SignalSource {
	if model.ScanStrategy(dcfg.Strategy) == model.ScanPeakDetection {
		return detect.PeakDetectionScan{
			FrameSec:        dcfg.PeakFrameSec,
			WindowSec:       2 * dcfg.ClipRadiusSec,
			MinDistanceSec:  dcfg.PeakMinDistanceSec,
			Percentile:      dcfg.PeakPercentile,
			RetryPercentile: dcfg.PeakRetryPercentile,
		}
	}
	return detect.DenseEnergyScan{
		WindowSec: dcfg.WindowSec,
		StepSec:   dcfg.StepSec,
		MinRMS:    dcfg.MinRMS,
	}
}

func anchorMode(dcfg config.DetectConfig) detect.AnchorMode {
	if model.ScanStrategy(dcfg.Strategy) == model.ScanPeakDetection {
		return detect.AnchorInterval
	}
	return detect.AnchorPoint
}

func newBuilder(caps Capabilities, dcfg config.DetectConfig, transcript *detect.TranscriptIndex, log zerolog.Logger) detect.Builder {
	return detect.Builder{
		Scorer:     detect.NewEventScorer(caps.AudioEvents, caps.Sentiment, log),
		Transcript: transcript,
		Weights: detect.FusionWeights{
			Energy:    dcfg.EnergyWeight,
			Event:     dcfg.EventWeight,
			Humor:     dcfg.HumorWeight,
			Keyword:   dcfg.KeywordWeight,
			Sentiment: dcfg.SentimentWeight,
		},
		AcceptThreshold: dcfg.AcceptThreshold,
		GateOnEvent:     model.ScorerVariant(dcfg.Scorer) == model.ScorerAudioEventOnly,
		UseText:         model.ScorerVariant(dcfg.Scorer) == model.ScorerTranscriptHumor,
	}
}

// cutClips emits one stream-copy cut per planned window. A failed cut is
// reported per clip and the rest still run: the final result set is
// whatever subset cut successfully.
func cutClips(ctx context.Context, caps Capabilities, plan []detect.ClipWindow, mediaPath, outDir, jobID, downloadBase string, log zerolog.Logger) []model.ClipResult {
	var results []model.ClipResult
	for _, cw := range plan {
		filename := fmt.Sprintf("clip_%d.mp4", cw.Rank)
		outPath := filepath.Join(outDir, filename)

		if err := caps.Media.Cut(ctx, mediaPath, cw.Start, cw.Duration(), outPath); err != nil {
			log.Error().Err(err).Int("rank", cw.Rank).Msg("clip cut failed, skipping")
			continue
		}

		url := downloadBase + "/" + filename
		var storageKey string
		if caps.Storage != nil {
			key := fmt.Sprintf("clips/%s/%s", jobID, filename)
			if publicURL, err := publishClip(ctx, caps.Storage, outPath, key); err != nil {
				log.Warn().Err(err).Int("rank", cw.Rank).Msg("clip publish failed, serving locally")
			} else {
				url = publicURL
				storageKey = key
			}
		}

		results = append(results, model.ClipResult{
			Rank:        cw.Rank,
			Filename:    filename,
			URL:         url,
			Start:       cw.Start,
			End:         cw.End,
			StorageKey:  storageKey,
			Explanation: cw.Source.Explain(),
			Scores: model.ClipScores{
				Energy:   cw.Source.Raw[detect.RawNormEnergy],
				Event:    cw.Source.Raw[detect.RawEvent],
				Combined: cw.Source.Combined,
			},
		})
	}
	return results
}

func publishClip(ctx context.Context, storage client.StorageClient, path, key string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return storage.Upload(ctx, key, f, "video/mp4")
}
