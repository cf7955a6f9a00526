package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelworthy/api/internal/client"
	"github.com/reelworthy/api/internal/config"
	"github.com/reelworthy/api/internal/jobs"
	"github.com/reelworthy/api/internal/logging"
	"github.com/reelworthy/api/internal/model"
	"github.com/reelworthy/api/internal/worker"
)

// ErrJobRunning is returned when cleanup is requested for a job that has
// not reached a terminal status yet.
var ErrJobRunning = errors.New("job is still running")

// JobService owns job submission, lookup and cleanup. Each accepted job
// runs on its own goroutine; the tracker is the only shared state.
type JobService struct {
	tracker *jobs.Tracker
	worker  *worker.Worker
	storage client.StorageClient
	cfg     *config.Config
	log     zerolog.Logger
}

// NewJobService wires the service. storage may be nil; published clips
// then have no remote copy for cleanup to remove.
func NewJobService(tracker *jobs.Tracker, w *worker.Worker, storage client.StorageClient, cfg *config.Config) *JobService {
	return &JobService{
		tracker: tracker,
		worker:  w,
		storage: storage,
		cfg:     cfg,
		log:     logging.WithComponent("job_service"),
	}
}

// SubmitUpload persists the uploaded media and starts processing it in
// the background. The returned snapshot is the job's queued state.
func (s *JobService) SubmitUpload(filename string, src io.Reader) (model.Job, error) {
	job := s.tracker.Create(model.JobSourceUpload)

	dest := filepath.Join(s.cfg.Media.UploadDir, job.ID+"_"+filepath.Base(filename))
	if err := saveStream(dest, src); err != nil {
		s.tracker.Delete(job.ID)
		return model.Job{}, fmt.Errorf("failed to store upload: %w", err)
	}

	s.log.Info().Str("job_id", job.ID).Str("file", dest).Msg("upload accepted")
	go s.worker.RunUpload(job.ID, dest)
	return job, nil
}

// SubmitLink registers a job for a remote video and starts the download
// in the background. URL validation happens at the transport layer; the
// download itself may still fail and the job records that.
func (s *JobService) SubmitLink(url string) (model.Job, error) {
	job := s.tracker.Create(model.JobSourceLink)

	s.log.Info().Str("job_id", job.ID).Str("url", url).Msg("link accepted")
	go s.worker.RunLink(job.ID, url)
	return job, nil
}

// Snapshot returns the current state of one job.
func (s *JobService) Snapshot(id string) (model.Job, error) {
	snap, ok := s.tracker.Snapshot(id)
	if !ok {
		return model.Job{}, jobs.ErrNotFound
	}
	return snap, nil
}

// Cleanup removes a terminal job and its artifacts. Unknown IDs are a
// no-op so repeated cleanup calls stay safe; a job that is still running
// cannot be cleaned up.
func (s *JobService) Cleanup(id string) error {
	snap, ok := s.tracker.Snapshot(id)
	if !ok {
		return nil
	}
	if !snap.Status.Terminal() {
		return ErrJobRunning
	}

	s.tracker.Delete(id)
	s.removeArtifacts(snap)
	return nil
}

// ClipPath resolves a result filename to its on-disk path, rejecting
// anything that would escape the job's output directory.
func (s *JobService) ClipPath(jobID, filename string) (string, error) {
	snap, ok := s.tracker.Snapshot(jobID)
	if !ok {
		return "", jobs.ErrNotFound
	}
	if snap.OutputDir == "" || filepath.Base(filename) != filename {
		return "", jobs.ErrNotFound
	}

	path := filepath.Join(snap.OutputDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", jobs.ErrNotFound
	}
	return path, nil
}

// removeArtifacts deletes the source media, the output directory, and
// any published storage objects with a bounded retry. Removal hiccups
// are logged, never surfaced: the job record is already gone by the
// time this runs.
func (s *JobService) removeArtifacts(snap model.Job) {
	if snap.MediaPath != "" {
		s.removeWithRetry(snap.ID, snap.MediaPath, func(p string) error {
			err := os.Remove(p)
			if os.IsNotExist(err) {
				return nil
			}
			return err
		})
	}
	if snap.OutputDir != "" {
		s.removeWithRetry(snap.ID, snap.OutputDir, os.RemoveAll)
	}
	if s.storage != nil {
		for _, r := range snap.Results {
			if r.StorageKey == "" {
				continue
			}
			s.removeWithRetry(snap.ID, r.StorageKey, func(key string) error {
				return s.storage.Delete(context.Background(), key)
			})
		}
	}
}

func (s *JobService) removeWithRetry(jobID, path string, remove func(string) error) {
	backoff := time.Duration(s.cfg.Cleanup.BackoffMS) * time.Millisecond
	attempts := s.cfg.Cleanup.Retries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = remove(path); err == nil {
			return
		}
		time.Sleep(backoff)
	}
	s.log.Warn().Err(err).Str("job_id", jobID).Str("path", path).Msg("artifact removal failed")
}

func saveStream(dest string, src io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}
