package model

// ClipScores carries the raw and fused scores that ranked a clip.
type ClipScores struct {
	Energy   float64 `json:"energy"`
	Event    float64 `json:"event"`
	Combined float64 `json:"combined"`
}

// ClipResult describes one finished highlight clip. Rank 1 is the
// highest-scoring clip. URL is a caller-facing download reference:
// either a local /download path or a public object-storage URL.
type ClipResult struct {
	Rank        int        `json:"rank"`
	Filename    string     `json:"filename"`
	URL         string     `json:"url"`
	Start       float64    `json:"start"`
	End         float64    `json:"end"`
	Explanation string     `json:"explanation"`
	Scores      ClipScores `json:"scores"`

	// Object-storage key when the clip was published, used by cleanup.
	StorageKey string `json:"-"`
}

// TranscriptSegment is one timestamped slice of speech-to-text output.
// Segments arrive in chronological order and are read-only afterwards.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
