package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
)

// WSProgressMessage represents a progress update
type WSProgressMessage struct {
	Type        string    `json:"type"`
	JobID       string    `json:"jobId"`
	Progress    int       `json:"progress"`
	Status      JobStatus `json:"status"`
	CurrentStep string    `json:"currentStep,omitempty"`
}

// WSCompleteMessage represents job completion
type WSCompleteMessage struct {
	Type    string       `json:"type"`
	JobID   string       `json:"jobId"`
	Results []ClipResult `json:"results"`
}

// WSErrorMessage represents a failed job
type WSErrorMessage struct {
	Type  string `json:"type"`
	JobID string `json:"jobId"`
	Error string `json:"error"`
}
