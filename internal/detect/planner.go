package detect

// AnchorMode says how a candidate anchors its clip: as a point expanded
// to center +/- radius, or as a pre-existing interval clamped to the track.
type AnchorMode int

const (
	AnchorPoint AnchorMode = iota
	AnchorInterval
)

// ClipWindow is a bounded cut plan for one selected candidate. Rank 1 is
// the highest combined score.
type ClipWindow struct {
	Rank   int
	Start  float64
	End    float64
	Source Candidate
}

// Duration returns the planned clip length in seconds.
func (c ClipWindow) Duration() float64 { return c.End - c.Start }

// Planner converts selected candidates into clip windows that always stay
// inside [0, duration].
type Planner struct {
	RadiusSec float64
	Mode      AnchorMode
}

// Plan maps the selected candidates, in score-rank order, to clip
// windows. A point anchor yields a clip of exactly 2*radius except near
// the media boundaries, where it may be shorter; it is never negative or
// past the end.
func (p Planner) Plan(selected []Candidate, duration float64) []ClipWindow {
	out := make([]ClipWindow, 0, len(selected))
	for i, c := range selected {
		var start, end float64
		switch p.Mode {
		case AnchorInterval:
			start, end = c.Start, c.End
			if start < 0 {
				start = 0
			}
			if end > duration {
				end = duration
			}
		default:
			start = c.Time - p.RadiusSec
			if start < 0 {
				start = 0
			}
			end = start + 2*p.RadiusSec
			if end > duration {
				end = duration
			}
		}
		if end <= start {
			continue
		}
		out = append(out, ClipWindow{
			Rank:   i + 1,
			Start:  start,
			End:    end,
			Source: c,
		})
	}
	return out
}
