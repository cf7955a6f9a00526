package model

// Job status
type JobStatus string

const (
	JobStatusQueued      JobStatus = "queued"
	JobStatusDownloading JobStatus = "downloading"
	JobStatusProcessing  JobStatus = "processing"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusFailed      JobStatus = "failed"
)

// statusRank orders the lifecycle. Transitions may only move forward;
// completed and failed are both terminal.
var statusRank = map[JobStatus]int{
	JobStatusQueued:      0,
	JobStatusDownloading: 1,
	JobStatusProcessing:  2,
	JobStatusCompleted:   3,
	JobStatusFailed:      3,
}

// CanTransition reports whether moving to next keeps the status sequence
// monotonic for this job.
func (s JobStatus) CanTransition(next JobStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	if s.Terminal() {
		return false
	}
	return to >= from
}

// Terminal reports whether the status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job source types
type JobSource string

const (
	JobSourceUpload JobSource = "upload"
	JobSourceLink   JobSource = "link"
)

// Signal source strategies
type ScanStrategy string

const (
	ScanDenseEnergy   ScanStrategy = "dense"
	ScanPeakDetection ScanStrategy = "peaks"
)

// Scorer variants
type ScorerVariant string

const (
	ScorerAudioEventOnly  ScorerVariant = "audio_event"
	ScorerTranscriptHumor ScorerVariant = "transcript_humor"
)
