package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/reelworthy/api/internal/model"
)

// Whisper transcribes audio by shelling out to a whisper.cpp binary.
type Whisper struct {
	bin   string
	model string
}

func NewWhisper(binPath, modelPath string) *Whisper {
	return &Whisper{bin: binPath, model: modelPath}
}

// Configured reports whether both binary and model paths are set. The
// pipeline runs on audio signals alone when transcription is unavailable.
func (w *Whisper) Configured() bool {
	return w != nil && w.bin != "" && w.model != ""
}

// Transcribe runs whisper.cpp over a WAV file and returns the ordered
// segment list from its JSON output.
func (w *Whisper) Transcribe(ctx context.Context, wavPath, workDir string) ([]model.TranscriptSegment, error) {
	outPrefix := filepath.Join(workDir, "whisper")
	cmd := exec.CommandContext(ctx, w.bin,
		"-m", w.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
	)
	if b, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Segments []model.TranscriptSegment `json:"segments"`
	}
	if err := json.Unmarshal(jb, &parsed); err != nil {
		return nil, fmt.Errorf("whisper output parse: %w", err)
	}
	for i := range parsed.Segments {
		parsed.Segments[i].Text = strings.TrimSpace(parsed.Segments[i].Text)
	}
	return parsed.Segments, nil
}
