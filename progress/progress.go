package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/tickos/internal/clock"
	"github.com/viant/tickos/model/task"
)

// Delta represents an incremental counter change.
type Delta struct {
	Invocations int
	Exhausted   int
	Started     int
	Ran         int
	Joined      int
	Received    int
}

// Counters are the aggregated values of a tracker.
type Counters struct {
	SessionID string
	StartedAt time.Time

	Invocations int
	// Exhausted counts invocations stopped by the budget with work left.
	Exhausted int
	Started   int
	Ran       int
	Joined    int
	Received  int
}

// Dispatched returns the number of tasks handed to processes.
func (c Counters) Dispatched() int {
	return c.Started + c.Ran + c.Joined + c.Received
}

// Progress is safe for concurrent use.
type Progress struct {
	mu       sync.Mutex
	counters Counters
	onChange func(Counters)
}

// New creates a tracker for sessionID.
func New(sessionID string, onChange func(Counters)) *Progress {
	return &Progress{
		counters: Counters{SessionID: sessionID, StartedAt: clock.Now()},
		onChange: onChange,
	}
}

// Update applies d. The onChange callback, if any, runs outside the lock
// with a copy of the updated counters.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.counters.Invocations += d.Invocations
	p.counters.Exhausted += d.Exhausted
	p.counters.Started += d.Started
	p.counters.Ran += d.Ran
	p.counters.Joined += d.Joined
	p.counters.Received += d.Received
	snapshot := p.counters
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Count adds t to the per-kind counters of d.
func (d *Delta) Count(t task.Task) {
	switch t.Kind {
	case task.KindStart:
		d.Started++
	case task.KindRun:
		d.Ran++
	case task.KindJoin:
		d.Joined++
	case task.KindReceive:
		d.Received++
	}
}

// Dispatch counts t by kind.
func (p *Progress) Dispatch(t task.Task) {
	var d Delta
	d.Count(t)
	p.Update(d)
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// OnChange replaces the change callback; nil disables it.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds p in a derived context.
func WithTracker(ctx context.Context, p *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, p)
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
