package process

import "fmt"

// Outcome enumerates what a Start or Run call asks the kernel to do next.
type Outcome uint8

const (
	OutcomeDone Outcome = iota
	OutcomeYield
	OutcomeYieldTick
	OutcomeSleep
	OutcomeWait
	OutcomeError
)

var outcomeNames = [...]string{"done", "yield", "yieldTick", "sleep", "wait", "error"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return fmt.Sprintf("outcome(%d)", uint8(o))
}

// Result is returned from Start and Run.
type Result struct {
	Outcome Outcome
	// Value is the optional return value of OutcomeDone.
	Value *ReturnValue
	// Ticks is the sleep duration of OutcomeSleep.
	Ticks uint32
	// Err is the diagnostic of OutcomeError.
	Err string
}

// Done finishes the process; value is delivered to the parent, if any.
func Done(value *ReturnValue) Result {
	return Result{Outcome: OutcomeDone, Value: value}
}

// Yield reschedules the process within the current tick.
func Yield() Result { return Result{Outcome: OutcomeYield} }

// YieldTick reschedules the process for the next tick.
func YieldTick() Result { return Result{Outcome: OutcomeYieldTick} }

// Sleep wakes the process after the given number of ticks.
func Sleep(ticks uint32) Result {
	return Result{Outcome: OutcomeSleep, Ticks: ticks}
}

// Wait parks the process until a join or message is delivered.
func Wait() Result { return Result{Outcome: OutcomeWait} }

// Fail terminates the process and its descendants.
func Fail(format string, args ...interface{}) Result {
	return Result{Outcome: OutcomeError, Err: fmt.Sprintf(format, args...)}
}

func (r Result) String() string {
	switch r.Outcome {
	case OutcomeSleep:
		return fmt.Sprintf("sleep(%d)", r.Ticks)
	case OutcomeError:
		return fmt.Sprintf("error(%s)", r.Err)
	case OutcomeDone:
		if r.Value != nil {
			return fmt.Sprintf("done(%q)", r.Value.Value)
		}
	}
	return r.Outcome.String()
}

// Signal enumerates the reactions available from Join and Receive.
type Signal uint8

const (
	SignalNone Signal = iota
	SignalDone
	SignalError
)

func (s Signal) String() string {
	switch s {
	case SignalNone:
		return "none"
	case SignalDone:
		return "done"
	case SignalError:
		return "error"
	}
	return fmt.Sprintf("signal(%d)", uint8(s))
}

// SignalResult is returned from Join and Receive. A process reacting to a
// signal can only finish, fail or leave its scheduling untouched.
type SignalResult struct {
	Signal Signal
	Value  *ReturnValue
	Err    string
}

// None leaves the process resident as it was.
func None() SignalResult { return SignalResult{Signal: SignalNone} }

// Finish is the signal counterpart of Done.
func Finish(value *ReturnValue) SignalResult {
	return SignalResult{Signal: SignalDone, Value: value}
}

// Abort is the signal counterpart of Fail.
func Abort(format string, args ...interface{}) SignalResult {
	return SignalResult{Signal: SignalError, Err: fmt.Sprintf(format, args...)}
}
