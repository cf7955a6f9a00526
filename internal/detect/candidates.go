package detect

import (
	"context"
	"fmt"
	"sort"
)

// Raw score names
const (
	RawEnergy     = "energy"
	RawNormEnergy = "norm_energy"
	RawEvent      = "event"
	RawKeyword    = "keyword"
	RawSentiment  = "sentiment"
	RawHumor      = "humor"
)

// Candidate is a scored, not-yet-finalized highlight moment. It is built
// once per run and never mutated after scoring, only filtered and
// reordered.
type Candidate struct {
	Time     float64 // anchor midpoint
	Start    float64
	End      float64
	Raw      map[string]float64
	Combined float64
}

// Explain renders a short caller-facing reason for the candidate's score.
func (c Candidate) Explain() string {
	if c.Raw[RawEvent] > 0 {
		return fmt.Sprintf("laughter-like audio (event %.2f, energy %.1f/10)",
			c.Raw[RawEvent], c.Raw[RawNormEnergy])
	}
	if c.Raw[RawHumor] > 0 {
		return fmt.Sprintf("humorous speech (humor %.1f, energy %.1f/10)",
			c.Raw[RawHumor], c.Raw[RawNormEnergy])
	}
	return fmt.Sprintf("high-energy moment (energy %.1f/10)", c.Raw[RawNormEnergy])
}

// FusionWeights are the fixed linear weights combining raw signals. They
// are configuration, not learned, so a fused score is reproducible from
// the same raw scores.
type FusionWeights struct {
	Energy    float64
	Event     float64
	Humor     float64
	Keyword   float64
	Sentiment float64
}

// Builder fuses per-window raw signals into Candidates. When GateOnEvent
// is set (single-signal variant) the event score alone must clear the
// acceptance threshold; otherwise the combined score is gated.
type Builder struct {
	Scorer          *EventScorer
	Transcript      *TranscriptIndex
	Weights         FusionWeights
	AcceptThreshold float64
	GateOnEvent     bool
	UseText         bool

	// OnWindow, when set, is invoked after each window is scored. The
	// scan loop uses it to report progress.
	OnWindow func(done, total int)
}

// Build scores every window and fuses the signals into candidates.
// Classifier failures inside the scorer degrade to zero contributions;
// Build itself never fails.
func (b Builder) Build(ctx context.Context, windows []Window, rate int) []Candidate {
	if len(windows) == 0 {
		return nil
	}

	// Batch max energy is the normalizing denominator for the 0-10 scale.
	var maxEnergy float64
	for _, w := range windows {
		if w.RMS > maxEnergy {
			maxEnergy = w.RMS
		}
	}

	var out []Candidate
	for i, w := range windows {
		raw := map[string]float64{RawEnergy: w.RMS}

		if maxEnergy > 0 {
			raw[RawNormEnergy] = w.RMS / maxEnergy * 10
		} else {
			raw[RawNormEnergy] = 0
		}

		if b.Scorer != nil {
			raw[RawEvent] = b.Scorer.EventScore(ctx, w, rate)
		}

		if b.UseText && !b.Transcript.Empty() {
			text := b.Transcript.TextBetween(w.Start, w.End)
			raw[RawKeyword] = KeywordScore(text)
			if b.Scorer != nil {
				raw[RawSentiment] = b.Scorer.SentimentScore(ctx, text)
			}
			raw[RawHumor] = b.Weights.Keyword*raw[RawKeyword] + b.Weights.Sentiment*raw[RawSentiment]
		}

		combined := Fuse(raw, b.Weights)

		if b.OnWindow != nil {
			b.OnWindow(i+1, len(windows))
		}

		if b.GateOnEvent {
			if raw[RawEvent] <= b.AcceptThreshold {
				continue
			}
		} else if combined <= b.AcceptThreshold {
			continue
		}

		out = append(out, Candidate{
			Time:     w.Center(),
			Start:    w.Start,
			End:      w.End,
			Raw:      raw,
			Combined: combined,
		})
	}
	return out
}

// Fuse is the deterministic pure function from raw scores to a combined
// score under fixed weights.
func Fuse(raw map[string]float64, w FusionWeights) float64 {
	return w.Energy*raw[RawNormEnergy] + w.Event*raw[RawEvent] + w.Humor*raw[RawHumor]
}

// SelectTopK sorts candidates by combined score descending (ties by
// earliest time) and greedily accepts up to n whose anchors are at least
// minSep seconds from, and whose intervals do not overlap, every already
// accepted candidate. The single strongest representative of each
// temporal cluster wins; an empty input yields an empty result.
func SelectTopK(cands []Candidate, n int, minSep float64) []Candidate {
	if n <= 0 || len(cands) == 0 {
		return nil
	}

	sorted := make([]Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Combined != sorted[j].Combined {
			return sorted[i].Combined > sorted[j].Combined
		}
		return sorted[i].Time < sorted[j].Time
	})

	var selected []Candidate
	for _, c := range sorted {
		if conflicts(c, selected, minSep) {
			continue
		}
		selected = append(selected, c)
		if len(selected) >= n {
			break
		}
	}
	return selected
}

func conflicts(c Candidate, accepted []Candidate, minSep float64) bool {
	for _, a := range accepted {
		if minSep > 0 {
			d := c.Time - a.Time
			if d < 0 {
				d = -d
			}
			if d < minSep {
				return true
			}
		}
		if c.Start < a.End && a.Start < c.End {
			return true
		}
	}
	return false
}
