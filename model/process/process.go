// Package process defines the contract every kernel-managed unit of work
// implements, together with the results a process hands back to the kernel.
//
// A process is a resumable state machine: the kernel calls exactly one
// lifecycle method per dispatch and decides what happens next from the
// returned result. Between ticks a process only exists as its type tag plus
// the bytes produced by Encode, so everything a process needs to continue must
// be captured there.
package process

// Pid identifies a process for the whole lifetime of a kernel.
type Pid uint32

// TypeTag is a stable identifier of a concrete process type. A Factory maps
// it back to reconstruction logic.
type TypeTag uint32

// Process is implemented by user-supplied process types.
type Process interface {
	// Start is called once, on the first dispatch of the process.
	Start(capability Capability) Result

	// Run is called whenever the process has been rescheduled.
	Run(capability Capability) Result

	// Join delivers the return value of a finished child.
	Join(capability Capability, value *ReturnValue) SignalResult

	// Receive delivers a message sent to the process.
	Receive(capability Capability, message Message) SignalResult

	// Kill is the teardown hook run when the process is terminated.
	Kill()

	// TypeTag returns the tag used to reconstruct the process.
	TypeTag() TypeTag

	// Encode returns the persisted form of the process state.
	Encode() ([]byte, error)
}

// Capability is the per-dispatch handle through which a running process may
// affect the kernel. It is only valid while the lifecycle method that received
// it is executing.
type Capability interface {
	// Pid returns the pid of the dispatching process.
	Pid() Pid

	// Tick returns the current kernel tick.
	Tick() uint32

	// Fork launches the supplied processes as children of the dispatching
	// process and returns their pids in order.
	Fork(processes ...Process) ([]Pid, error)

	// Send schedules message delivery to the receiver.
	Send(receiver Pid, message Message) error
}

// Base supplies the optional parts of the Process contract. Embed it and
// implement Run, TypeTag and Encode.
type Base struct{}

// Start yields, so the first real work happens in Run.
func (Base) Start(Capability) Result { return Yield() }

// Join ignores child results.
func (Base) Join(Capability, *ReturnValue) SignalResult { return None() }

// Receive ignores messages.
func (Base) Receive(Capability, Message) SignalResult { return None() }

// Kill does nothing.
func (Base) Kill() {}
