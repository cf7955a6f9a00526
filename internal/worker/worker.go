package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/reelworthy/api/internal/config"
	"github.com/reelworthy/api/internal/jobs"
	"github.com/reelworthy/api/internal/logging"
	"github.com/reelworthy/api/internal/model"
)

// Notifier pushes job state changes to subscribed clients. The tracker
// snapshot stays authoritative; the notifier only mirrors it.
type Notifier interface {
	BroadcastProgress(jobID string, progress int, status model.JobStatus, step string)
	BroadcastComplete(jobID string, results []model.ClipResult)
	BroadcastError(jobID, errMsg string)
}

// Download occupies the first progress slice of a link job; the
// processing phase picks up from there.
const pctDownloaded = 10

// Worker drives one job through the pipeline in its own goroutine and
// records every state change on the tracker.
type Worker struct {
	tracker *jobs.Tracker
	hub     Notifier
	caps    Capabilities
	cfg     *config.Config
	log     zerolog.Logger
}

func New(tracker *jobs.Tracker, hub Notifier, caps Capabilities, cfg *config.Config) *Worker {
	return &Worker{
		tracker: tracker,
		hub:     hub,
		caps:    caps,
		cfg:     cfg,
		log:     logging.WithComponent("worker"),
	}
}

// RunUpload processes a job whose media file is already on disk.
// It is meant to run as a goroutine and never returns an error; failures
// land on the tracker.
func (w *Worker) RunUpload(jobID, mediaPath string) {
	w.process(jobID, mediaPath)
}

// RunLink downloads the remote media first, then processes it like an
// upload.
func (w *Worker) RunLink(jobID, url string) {
	log := w.log.With().Str("job_id", jobID).Logger()

	if w.caps.Fetcher == nil {
		w.fail(jobID, "link ingestion is not configured")
		return
	}

	w.tracker.SetStatus(jobID, model.JobStatusDownloading)
	w.tracker.SetStep(jobID, "downloading video")
	w.notifyProgress(jobID)

	sink := jobs.ScaledSink(w.sink(jobID), 0, pctDownloaded)
	mediaPath, err := w.caps.Fetcher.Fetch(context.Background(), url, w.cfg.Media.UploadDir, jobID, func(pct float64) {
		sink.Report(int(pct))
	})
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("download failed")
		w.fail(jobID, fmt.Sprintf("download failed: %v", err))
		return
	}
	log.Info().Str("path", mediaPath).Msg("download complete")

	w.process(jobID, mediaPath)
}

func (w *Worker) process(jobID, mediaPath string) {
	log := w.log.With().Str("job_id", jobID).Logger()
	ctx := context.Background()

	outDir := filepath.Join(w.cfg.Media.OutputDir, jobID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		w.fail(jobID, fmt.Sprintf("prepare output directory: %v", err))
		return
	}
	w.tracker.SetPaths(jobID, mediaPath, outDir)

	w.tracker.SetStatus(jobID, model.JobStatusProcessing)
	w.tracker.SetStep(jobID, "detecting highlights")
	w.notifyProgress(jobID)

	results, err := Detect(ctx, w.caps, w.cfg.Detect, mediaPath, outDir, jobID,
		"/download/"+jobID, w.sink(jobID), log)
	if err != nil {
		log.Error().Err(err).Msg("pipeline failed")
		w.fail(jobID, err.Error())
		return
	}

	w.tracker.Complete(jobID, results)
	log.Info().Int("clips", len(results)).Msg("job complete")
	if w.hub != nil {
		w.hub.BroadcastComplete(jobID, results)
	}
}

func (w *Worker) fail(jobID, msg string) {
	w.tracker.Fail(jobID, msg)
	if w.hub != nil {
		w.hub.BroadcastError(jobID, msg)
	}
}

// sink mirrors every progress update to the tracker and to live
// subscribers.
func (w *Worker) sink(jobID string) jobs.ProgressSink {
	return jobs.SinkFunc(func(pct int) {
		w.tracker.SetProgress(jobID, pct)
		w.notifyProgress(jobID)
	})
}

func (w *Worker) notifyProgress(jobID string) {
	if w.hub == nil {
		return
	}
	if snap, ok := w.tracker.Snapshot(jobID); ok {
		w.hub.BroadcastProgress(jobID, snap.Progress, snap.Status, snap.CurrentStep)
	}
}
