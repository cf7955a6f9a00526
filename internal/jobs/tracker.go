package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelworthy/api/internal/model"
)

var ErrNotFound = errors.New("job not found")

// Tracker is the process-wide job registry. All state lives behind one
// mutex; readers get copies, never pointers into the map. Each entry is
// written by at most one worker goroutine, but distinct jobs run and
// mutate their entries in parallel.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*model.Job)}
}

// Create registers a new queued job and returns a snapshot of it.
func (t *Tracker) Create(source model.JobSource) model.Job {
	job := &model.Job{
		ID:        uuid.New().String(),
		Source:    source,
		Status:    model.JobStatusQueued,
		CreatedAt: time.Now(),
	}

	t.mu.Lock()
	t.jobs[job.ID] = job
	t.mu.Unlock()

	return snapshot(job)
}

// Snapshot returns a copy of the job's current state.
func (t *Tracker) Snapshot(id string) (model.Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return model.Job{}, false
	}
	return snapshot(job), true
}

// Delete removes the job from the registry. Deleting an unknown id is a
// no-op so cleanup stays idempotent.
func (t *Tracker) Delete(id string) {
	t.mu.Lock()
	delete(t.jobs, id)
	t.mu.Unlock()
}

// SetStatus advances the job's status. Backward transitions and writes to
// terminal jobs are ignored, which keeps the observed sequence monotonic.
func (t *Tracker) SetStatus(id string, status model.JobStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok || !job.Status.CanTransition(status) {
		return
	}
	if job.StartedAt == nil && status != model.JobStatusQueued {
		now := time.Now()
		job.StartedAt = &now
	}
	job.Status = status
}

// SetProgress records pipeline progress, clamped to 0-100. Progress may
// reset between phases (download vs processing); only status is monotonic.
func (t *Tracker) SetProgress(id string, pct int) {
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}
	job.Progress = pct
}

// SetStep records a human-readable description of the current stage.
func (t *Tracker) SetStep(id, step string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[id]; ok && !job.Status.Terminal() {
		job.CurrentStep = step
	}
}

// SetPaths records the on-disk artifacts belonging to the job so cleanup
// can find them later.
func (t *Tracker) SetPaths(id, mediaPath, outputDir string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[id]; ok {
		if mediaPath != "" {
			job.MediaPath = mediaPath
		}
		if outputDir != "" {
			job.OutputDir = outputDir
		}
	}
}

// Complete marks the job successful. Progress is forced to 100 and the
// result list is attached; an empty (non-nil) list is a valid outcome.
func (t *Tracker) Complete(id string, results []model.ClipResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok || !job.Status.CanTransition(model.JobStatusCompleted) {
		return
	}
	if results == nil {
		results = []model.ClipResult{}
	}
	now := time.Now()
	job.Status = model.JobStatusCompleted
	job.Progress = 100
	job.CurrentStep = ""
	job.Results = results
	job.CompletedAt = &now
}

// Fail marks the job failed with a caller-facing message. Progress stays
// at its last reported value.
func (t *Tracker) Fail(id, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok || !job.Status.CanTransition(model.JobStatusFailed) {
		return
	}
	now := time.Now()
	job.Status = model.JobStatusFailed
	job.Error = &msg
	job.CurrentStep = ""
	job.CompletedAt = &now
}

func snapshot(job *model.Job) model.Job {
	out := *job
	if job.Results != nil {
		out.Results = make([]model.ClipResult, len(job.Results))
		copy(out.Results, job.Results)
	}
	return out
}
