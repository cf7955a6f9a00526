package detect

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// LabelScore is one entry of an audio-event classifier's ranked output.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Sentiment is the output of a text classifier.
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// AudioEventClassifier classifies a PCM chunk into sound-event categories.
// Implementations may be slow; they are treated as pure functions.
type AudioEventClassifier interface {
	ClassifyAudio(ctx context.Context, samples []float64, rate int) ([]LabelScore, error)
}

// SentimentClassifier classifies a text string as POSITIVE or NEGATIVE.
type SentimentClassifier interface {
	ClassifySentiment(ctx context.Context, text string) (Sentiment, error)
}

// laughterLabels is the target-event vocabulary. A window's event score is
// the sum of classifier probabilities whose label contains one of these.
var laughterLabels = []string{
	"Laughter", "Giggle", "Snicker", "Chuckling", "Belly laugh",
	"Chortle", "Baby laughter",
}

const (
	// Sentiment mapping: positive text maps onto a 0-10 scale; negative
	// text is dampened but not zeroed, since sarcasm can still be funny.
	positiveSentimentScale = 10.0
	negativeSentimentScale = 3.0

	// Long transcripts are chunked and only the head is scored.
	sentimentChunkRunes = 500
	sentimentMaxChunks  = 3
)

// EventScorer turns classifier output into single numeric scores. Any
// classifier error is logged and contributes zero; a failed call must
// never abort the scan.
type EventScorer struct {
	Audio AudioEventClassifier
	Text  SentimentClassifier

	log zerolog.Logger
}

func NewEventScorer(audio AudioEventClassifier, text SentimentClassifier, log zerolog.Logger) *EventScorer {
	return &EventScorer{Audio: audio, Text: text, log: log}
}

// EventScore sums the target-label probabilities for one window.
func (s *EventScorer) EventScore(ctx context.Context, w Window, rate int) float64 {
	if s.Audio == nil {
		return 0
	}

	results, err := s.Audio.ClassifyAudio(ctx, w.Samples, rate)
	if err != nil {
		s.log.Warn().Err(err).Float64("start", w.Start).Msg("audio classification failed, scoring window as zero")
		return 0
	}

	var score float64
	for _, r := range results {
		for _, target := range laughterLabels {
			if strings.Contains(r.Label, target) {
				score += r.Score
				break
			}
		}
	}
	return score
}

// SentimentScore maps text sentiment onto a 0-10 humor co-signal. Text
// over the chunk budget is split and only the first few chunks are
// scored; their mapped scores are averaged.
func (s *EventScorer) SentimentScore(ctx context.Context, text string) float64 {
	if s.Text == nil || strings.TrimSpace(text) == "" {
		return 0
	}

	chunks := chunkText(text, sentimentChunkRunes)
	if len(chunks) > sentimentMaxChunks {
		chunks = chunks[:sentimentMaxChunks]
	}

	var sum float64
	var scored int
	for _, chunk := range chunks {
		res, err := s.Text.ClassifySentiment(ctx, chunk)
		if err != nil {
			s.log.Warn().Err(err).Msg("sentiment classification failed, scoring chunk as zero")
			continue
		}
		switch res.Label {
		case "POSITIVE":
			sum += res.Score * positiveSentimentScale
		case "NEGATIVE":
			sum += res.Score * negativeSentimentScale
		}
		scored++
	}
	if scored == 0 {
		return 0
	}
	return sum / float64(scored)
}

// humorKeywords carries fixed per-keyword weights for the cheap,
// explainable text co-signal. It supplements the model scores and never
// replaces them.
var humorKeywords = map[string]float64{
	"haha":      2.0,
	"lol":       2.0,
	"hilarious": 2.0,
	"laugh":     1.5,
	"funny":     1.5,
	"joke":      1.5,
	"no way":    1.5,
	"insane":    1.0,
	"crazy":     1.0,
	"omg":       1.0,
	"wow":       1.0,
}

const (
	exclamationWeight = 0.5
	questionWeight    = 0.3
	maxKeywordScore   = 10.0
)

// KeywordScore computes the keyword co-signal purely from text.
func KeywordScore(text string) float64 {
	t := strings.ToLower(text)
	if strings.TrimSpace(t) == "" {
		return 0
	}

	var score float64
	for kw, weight := range humorKeywords {
		score += weight * float64(strings.Count(t, kw))
	}
	score += exclamationWeight * float64(strings.Count(t, "!"))
	score += questionWeight * float64(strings.Count(t, "?"))

	if score > maxKeywordScore {
		score = maxKeywordScore
	}
	return score
}

// chunkText splits text into rune-bounded chunks.
func chunkText(text string, size int) []string {
	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		return []string{text}
	}
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
