package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_String(t *testing.T) {
	tests := []struct {
		result Result
		expect string
	}{
		{Yield(), "yield"},
		{YieldTick(), "yieldTick"},
		{Sleep(3), "sleep(3)"},
		{Wait(), "wait"},
		{Done(nil), "done"},
		{Done(NewReturnValue("World")), `done("World")`},
		{Fail("boom %d", 1), "error(boom 1)"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expect, tc.result.String())
	}
	assert.Equal(t, "none", None().Signal.String())
	assert.Equal(t, SignalDone, Finish(nil).Signal)
	assert.Equal(t, "x failed", Abort("%s failed", "x").Err)
}

type stub struct{ Base }

func (s *stub) Run(Capability) Result { return Wait() }

func (s *stub) TypeTag() TypeTag { return 1 }

func (s *stub) Encode() ([]byte, error) { return nil, nil }

func TestBase_Defaults(t *testing.T) {
	var p Process = &stub{}
	assert.Equal(t, Yield(), p.Start(nil))
	assert.Equal(t, None(), p.Join(nil, nil))
	assert.Equal(t, None(), p.Receive(nil, Message{}))
	p.Kill()
}

func TestConstructors_Factory(t *testing.T) {
	factory := Constructors{
		1: func(data []byte) (Process, error) { return &stub{}, nil },
	}.Factory()
	assert.IsType(t, &stub{}, factory(1, nil))
	assert.Panics(t, func() { factory(2, nil) })
}
