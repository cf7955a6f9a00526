package detect

import (
	"strings"

	"github.com/reelworthy/api/internal/model"
)

// TranscriptIndex answers "what was said during [a, b]" over an ordered,
// read-only list of transcript segments.
type TranscriptIndex struct {
	segments []model.TranscriptSegment
}

func NewTranscriptIndex(segments []model.TranscriptSegment) *TranscriptIndex {
	return &TranscriptIndex{segments: segments}
}

// Empty reports whether the index holds no segments.
func (idx *TranscriptIndex) Empty() bool {
	return idx == nil || len(idx.segments) == 0
}

// TextBetween joins the text of every segment overlapping [start, end].
func (idx *TranscriptIndex) TextBetween(start, end float64) string {
	if idx == nil {
		return ""
	}
	var parts []string
	for _, seg := range idx.segments {
		if seg.End <= start {
			continue
		}
		if seg.Start >= end {
			// Segments are chronological, nothing later can overlap.
			break
		}
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
