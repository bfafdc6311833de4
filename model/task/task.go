package task

import (
	"fmt"

	"github.com/viant/tickos/model/process"
)

// Kind is the trigger that selects which lifecycle method a task invokes.
type Kind uint8

const (
	KindStart Kind = iota
	KindRun
	KindJoin
	KindReceive
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindRun:
		return "run"
	case KindJoin:
		return "join"
	case KindReceive:
		return "receive"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Task is a pending dispatch of one process.
type Task struct {
	Kind    Kind                 `msgpack:"kind" json:"kind"`
	Pid     process.Pid          `msgpack:"pid" json:"pid"`
	Value   *process.ReturnValue `msgpack:"value,omitempty" json:"value,omitempty"`
	Message *process.Message     `msgpack:"message,omitempty" json:"message,omitempty"`
}

// Start creates the first task of a freshly launched process.
func Start(pid process.Pid) Task { return Task{Kind: KindStart, Pid: pid} }

// Run reschedules a process.
func Run(pid process.Pid) Task { return Task{Kind: KindRun, Pid: pid} }

// Join delivers a child's return value to its parent.
func Join(parent process.Pid, value *process.ReturnValue) Task {
	return Task{Kind: KindJoin, Pid: parent, Value: value}
}

// Receive delivers a message.
func Receive(receiver process.Pid, message process.Message) Task {
	return Task{Kind: KindReceive, Pid: receiver, Message: &message}
}

func (t Task) String() string {
	return fmt.Sprintf("%v(%d)", t.Kind, t.Pid)
}
