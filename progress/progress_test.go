package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/tickos/model/process"
	"github.com/viant/tickos/model/task"
)

func TestProgress_Dispatch(t *testing.T) {
	var changes []int
	p := New("s1", func(c Counters) { changes = append(changes, c.Dispatched()) })
	for _, item := range []task.Task{task.Start(0), task.Run(0), task.Run(0), task.Join(1, nil)} {
		p.Dispatch(item)
	}
	p.Update(Delta{Invocations: 1})

	counters := p.Snapshot()
	assert.Equal(t, "s1", counters.SessionID)
	assert.Equal(t, 1, counters.Started)
	assert.Equal(t, 2, counters.Ran)
	assert.Equal(t, 1, counters.Joined)
	assert.Equal(t, 4, counters.Dispatched())
	assert.Equal(t, []int{1, 2, 3, 4, 4}, changes)
}

func TestDelta_Count(t *testing.T) {
	var d Delta
	d.Count(task.Start(0))
	d.Count(task.Receive(0, process.NewMessage(nil)))
	d.Count(task.Receive(0, process.NewMessage(nil)))
	assert.Equal(t, Delta{Started: 1, Received: 2}, d)
}

func TestProgress_Context(t *testing.T) {
	p := New("s1", nil)
	ctx := WithTracker(context.Background(), p)
	UpdateCtx(ctx, Delta{Exhausted: 1})
	UpdateCtx(context.Background(), Delta{Exhausted: 1})
	tracker, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, 1, tracker.Snapshot().Exhausted)

	var nilTracker *Progress
	nilTracker.Update(Delta{Ran: 1})
	assert.Equal(t, Counters{}, nilTracker.Snapshot())
}
