// Package scheduler holds the kernel's pending tasks.
//
// Tasks run in FIFO order. Tasks deferred to the next tick wait in a
// secondary queue that Advance appends behind whatever is still pending.
package scheduler

import (
	"github.com/viant/tickos/model/task"
)

type queue struct {
	items []task.Task
	head  int
}

func (q *queue) push(t task.Task) { q.items = append(q.items, t) }

func (q *queue) pop() (task.Task, bool) {
	if q.head == len(q.items) {
		return task.Task{}, false
	}
	ret := q.items[q.head]
	q.items[q.head] = task.Task{}
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return ret, true
}

func (q *queue) len() int { return len(q.items) - q.head }

func (q *queue) snapshot() []task.Task {
	ret := make([]task.Task, q.len())
	copy(ret, q.items[q.head:])
	return ret
}

// Scheduler is a FIFO task queue with a next-tick queue.
type Scheduler struct {
	current  queue
	deferred queue
}

// New creates an empty scheduler.
func New() *Scheduler { return &Scheduler{} }

// Restore rebuilds a scheduler from persisted queues.
func Restore(current, deferred []task.Task) *Scheduler {
	ret := New()
	ret.current.items = append(ret.current.items, current...)
	ret.deferred.items = append(ret.deferred.items, deferred...)
	return ret
}

// Next pops the oldest task of the current tick.
func (s *Scheduler) Next() (task.Task, bool) { return s.current.pop() }

// Schedule enqueues a task for the current tick.
func (s *Scheduler) Schedule(t task.Task) { s.current.push(t) }

// Defer enqueues a task for the next tick.
func (s *Scheduler) Defer(t task.Task) { s.deferred.push(t) }

// Advance moves deferred tasks behind the current queue, keeping their order.
func (s *Scheduler) Advance() {
	for {
		t, ok := s.deferred.pop()
		if !ok {
			return
		}
		s.current.push(t)
	}
}

// Len returns the number of tasks pending in the current tick.
func (s *Scheduler) Len() int { return s.current.len() }

// DeferredLen returns the number of tasks waiting for the next tick.
func (s *Scheduler) DeferredLen() int { return s.deferred.len() }

// Current returns a copy of the current queue in dispatch order.
func (s *Scheduler) Current() []task.Task { return s.current.snapshot() }

// Deferred returns a copy of the deferred queue in dispatch order.
func (s *Scheduler) Deferred() []task.Task { return s.deferred.snapshot() }
