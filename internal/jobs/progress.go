package jobs

// ProgressSink receives percentage updates from pipeline stages. Stages
// call Report synchronously at well-defined points (after each scanned
// window, after each downloaded chunk); there is no hidden global state.
type ProgressSink interface {
	Report(pct int)
}

// SinkFunc adapts a plain function to a ProgressSink.
type SinkFunc func(pct int)

func (f SinkFunc) Report(pct int) { f(pct) }

// NopSink discards all updates.
var NopSink ProgressSink = SinkFunc(func(int) {})

// ProgressSink returns a sink that writes into the tracked job.
func (t *Tracker) ProgressSink(id string) ProgressSink {
	return SinkFunc(func(pct int) { t.SetProgress(id, pct) })
}

// ScaledSink maps a stage's local 0-100 progress onto the [lo, hi] slice
// of the overall job progress bar.
func ScaledSink(sink ProgressSink, lo, hi int) ProgressSink {
	if hi < lo {
		hi = lo
	}
	return SinkFunc(func(pct int) {
		if pct < 0 {
			pct = 0
		} else if pct > 100 {
			pct = 100
		}
		sink.Report(lo + (hi-lo)*pct/100)
	})
}
