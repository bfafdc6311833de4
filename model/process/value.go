package process

// ReturnValue is what a finished process hands to its parent.
type ReturnValue struct {
	// Pid is the pid of the finished process. The kernel sets it on join.
	Pid   Pid    `msgpack:"pid" json:"pid"`
	Value string `msgpack:"value" json:"value"`
}

// NewReturnValue creates a return value; the kernel fills in the pid.
func NewReturnValue(value string) *ReturnValue {
	return &ReturnValue{Value: value}
}

// Message is delivered through a Receive task.
type Message struct {
	// From is nil for messages sent by the host.
	From *Pid  `msgpack:"from,omitempty" json:"from,omitempty"`
	Body []byte `msgpack:"body" json:"body"`
}

// NewMessage creates a host message.
func NewMessage(body []byte) Message {
	return Message{Body: body}
}
