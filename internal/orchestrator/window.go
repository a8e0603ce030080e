package orchestrator

import "time"

// Window is the closed export interval [Start, End]. Windows are built once
// per invocation so every entry exports the same interval.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow returns the window of length span ending at end. End is
// truncated to the millisecond, the resolution the export API accepts, so
// EndMs-StartMs is exactly span in milliseconds.
func NewWindow(end time.Time, span time.Duration) Window {
	end = end.Truncate(time.Millisecond)
	return Window{Start: end.Add(-span), End: end}
}

// StartMs is Start in epoch milliseconds
func (w Window) StartMs() int64 {
	return w.Start.UnixMilli()
}

// EndMs is End in epoch milliseconds
func (w Window) EndMs() int64 {
	return w.End.UnixMilli()
}

// Span is the window length
func (w Window) Span() time.Duration {
	return w.End.Sub(w.Start)
}
