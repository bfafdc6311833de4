// Package kernel implements the cooperative process kernel.
//
// The kernel never owns a goroutine: the host calls RunNext repeatedly while
// its budget allows, then NextTick once per external tick, and persists the
// kernel with MarshalBinary in between. A process that sleeps or waits is
// simply a process without a pending task.
package kernel

import (
	"errors"
	"fmt"

	"github.com/viant/tickos/model/process"
	"github.com/viant/tickos/model/task"
	"github.com/viant/tickos/runtime/payload"
	"github.com/viant/tickos/runtime/registry"
	"github.com/viant/tickos/runtime/scheduler"
	"go.uber.org/zap"
)

var (
	// ErrCapabilityRevoked is returned when a capability is used after the
	// lifecycle call it was handed to has returned.
	ErrCapabilityRevoked = errors.New("kernel: capability revoked")

	// ErrUnknownProcess is returned when addressing a pid that is not resident.
	ErrUnknownProcess = errors.New("kernel: unknown process")
)

// Kernel is the whole persisted runtime: process registry, scheduler, wake
// index and counters.
type Kernel struct {
	registry  *registry.Registry
	scheduler *scheduler.Scheduler
	wake      *scheduler.WakeIndex
	tick      uint32
	nextPid   process.Pid

	logger    *zap.Logger
	listeners []Listener
}

// New creates an empty kernel starting at the given tick.
func New(tick uint32, options ...Option) *Kernel {
	ret := &Kernel{
		registry:  registry.New(),
		scheduler: scheduler.New(),
		wake:      scheduler.NewWakeIndex(),
		tick:      tick,
	}
	ret.apply(options)
	return ret
}

func (k *Kernel) apply(options []Option) {
	for _, option := range options {
		option(k)
	}
	if k.logger == nil {
		k.logger = zap.NewNop()
	}
}

// Tick returns the current logical tick.
func (k *Kernel) Tick() uint32 { return k.tick }

// NextPid returns the pid the next launched process will receive.
func (k *Kernel) NextPid() process.Pid { return k.nextPid }

// Len returns the number of resident processes.
func (k *Kernel) Len() int { return k.registry.Len() }

// Pending returns the number of tasks queued for the current tick.
func (k *Kernel) Pending() int { return k.scheduler.Len() }

// Deferred returns the number of tasks queued for the next tick.
func (k *Kernel) Deferred() int { return k.scheduler.DeferredLen() }

// Sleeping returns the number of wake index registrations.
func (k *Kernel) Sleeping() int { return k.wake.Len() }

// Pids returns the resident pids in ascending order.
func (k *Kernel) Pids() []process.Pid { return k.registry.Pids() }

// Info returns a copy of the metadata of pid.
func (k *Kernel) Info(pid process.Pid) (registry.Info, bool) {
	info := k.registry.Info(pid)
	if info == nil {
		return registry.Info{}, false
	}
	ret := *info
	ret.Children = append([]process.Pid(nil), info.Children...)
	return ret, true
}

// Process returns the live instance of pid, promoting it when needed.
func (k *Kernel) Process(pid process.Pid, factory process.Factory) (process.Process, bool) {
	p := k.registry.Payload(pid)
	if p == nil {
		return nil, false
	}
	return p.Live(factory), true
}

// Launch registers proc and schedules its Start task. A resident parent
// records the new pid as its child.
func (k *Kernel) Launch(proc process.Process, parent *process.Pid) process.Pid {
	pid := k.nextPid
	k.nextPid++
	k.registry.Add(registry.NewInfo(pid, parent, proc.TypeTag()), payload.NewLive(proc))
	if parent != nil {
		k.registry.AddChild(*parent, pid)
	}
	k.scheduler.Schedule(task.Start(pid))
	return pid
}

// Send delivers a host message to pid.
func (k *Kernel) Send(pid process.Pid, message process.Message) error {
	if !k.registry.Contains(pid) {
		return fmt.Errorf("%w: %d", ErrUnknownProcess, pid)
	}
	k.scheduler.Schedule(task.Receive(pid, message))
	return nil
}

// RunNext dispatches one task and reports whether there was one. Tasks
// addressed to terminated processes are dropped.
func (k *Kernel) RunNext(factory process.Factory) bool {
	next, ok := k.scheduler.Next()
	if !ok {
		return false
	}
	p := k.registry.Payload(next.Pid)
	if p == nil {
		k.logger.Debug("dropped task for terminated process",
			zap.Uint32("pid", uint32(next.Pid)), zap.Stringer("kind", next.Kind))
		return true
	}
	for _, listener := range k.listeners {
		listener(k.tick, next)
	}
	k.dispatch(next, p.Live(factory), factory)
	return true
}

func (k *Kernel) dispatch(next task.Task, live process.Process, factory process.Factory) {
	handle := newCapability(k, next.Pid)
	defer handle.revoke()
	switch next.Kind {
	case task.KindStart:
		k.handleResult(next.Pid, live.Start(handle), factory)
	case task.KindRun:
		k.handleResult(next.Pid, live.Run(handle), factory)
	case task.KindJoin:
		k.handleSignal(next.Pid, live.Join(handle, next.Value), factory)
	case task.KindReceive:
		var message process.Message
		if next.Message != nil {
			message = *next.Message
		}
		k.handleSignal(next.Pid, live.Receive(handle, message), factory)
	default:
		panic(fmt.Sprintf("kernel: unsupported task kind %v", next.Kind))
	}
}

// NextTick advances the tick, wakes sleepers registered for it and releases
// tasks deferred from the previous tick.
func (k *Kernel) NextTick() {
	k.tick++
	for _, pid := range k.wake.Take(k.tick) {
		k.scheduler.Schedule(task.Run(pid))
	}
	k.scheduler.Advance()
}

// Terminate kills pid together with all its descendants. Unknown pids are
// ignored.
func (k *Kernel) Terminate(pid process.Pid, factory process.Factory) {
	info := k.registry.Info(pid)
	if info == nil {
		return
	}
	if info.Parent != nil {
		k.registry.RemoveChild(*info.Parent, pid)
	}
	k.terminate(pid, factory)
}

// terminate tears the subtree down children first; each pid's own payload
// receives the Kill call.
func (k *Kernel) terminate(pid process.Pid, factory process.Factory) {
	info := k.registry.Info(pid)
	if info == nil {
		return
	}
	children := append([]process.Pid(nil), info.Children...)
	for _, child := range children {
		k.terminate(child, factory)
	}
	if p := k.registry.Payload(pid); p != nil {
		p.Live(factory).Kill()
	}
	k.registry.Remove(pid)
}
