package kernel_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/tickos/model/process"
	"github.com/viant/tickos/model/task"
	"github.com/viant/tickos/runtime/kernel"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const probeTag process.TypeTag = 7

// probe is a configurable test process. Actions: yield, tick, sleep, wait,
// done, empty (done without a value), fail.
type probe struct {
	process.Base
	Name     string   `msgpack:"name"`
	OnStart  string   `msgpack:"onStart"`
	OnRun    string   `msgpack:"onRun"`
	Ticks    uint32   `msgpack:"ticks"`
	Fork     int      `msgpack:"fork"`
	MaxRuns  int      `msgpack:"maxRuns"`
	Runs     int      `msgpack:"runs"`
	Received []string `msgpack:"received"`
	Joined   []string `msgpack:"joined"`
	Retain   bool     `msgpack:"retain"`

	env      *env
	retained process.Capability
}

func (p *probe) act(action string) process.Result {
	switch action {
	case "yield":
		return process.Yield()
	case "tick":
		return process.YieldTick()
	case "sleep":
		return process.Sleep(p.Ticks)
	case "wait":
		return process.Wait()
	case "done":
		return process.Done(process.NewReturnValue(p.Name))
	case "empty":
		return process.Done(nil)
	case "fail":
		return process.Fail("%s failed", p.Name)
	}
	return process.Fail("unknown action %q", action)
}

func (p *probe) fork(capability process.Capability, count int) error {
	for i := 0; i < count; i++ {
		child := p.env.probe(fmt.Sprintf("%s.%d", p.Name, p.env.seq()), "wait", "wait")
		if _, err := capability.Fork(child); err != nil {
			return err
		}
	}
	return nil
}

func (p *probe) Start(capability process.Capability) process.Result {
	if p.Retain {
		p.retained = capability
	}
	if err := p.fork(capability, p.Fork); err != nil {
		return process.Fail("%v", err)
	}
	return p.act(p.OnStart)
}

func (p *probe) Run(process.Capability) process.Result {
	p.Runs++
	if p.MaxRuns > 0 && p.Runs >= p.MaxRuns {
		return p.act("done")
	}
	return p.act(p.OnRun)
}

func (p *probe) Join(_ process.Capability, value *process.ReturnValue) process.SignalResult {
	if value == nil {
		p.Joined = append(p.Joined, "<nil>")
	} else {
		p.Joined = append(p.Joined, fmt.Sprintf("%d:%s", value.Pid, value.Value))
	}
	return process.None()
}

func (p *probe) Receive(capability process.Capability, message process.Message) process.SignalResult {
	body := string(message.Body)
	p.Received = append(p.Received, body)
	switch body {
	case "stop":
		return process.Finish(process.NewReturnValue(p.Name))
	case "fail":
		return process.Abort("%s aborted", p.Name)
	case "fork":
		if err := p.fork(capability, 1); err != nil {
			return process.Abort("%v", err)
		}
	}
	return process.None()
}

func (p *probe) Kill() { p.env.kills = append(p.env.kills, p.Name) }

func (p *probe) TypeTag() process.TypeTag { return probeTag }

func (p *probe) Encode() ([]byte, error) { return msgpack.Marshal(p) }

type env struct {
	kills    []string
	trace    []string
	decoded  int
	sequence int
}

func (e *env) seq() int {
	e.sequence++
	return e.sequence
}

func (e *env) probe(name, onStart, onRun string) *probe {
	return &probe{Name: name, OnStart: onStart, OnRun: onRun, env: e}
}

func (e *env) factory(tag process.TypeTag, data []byte) process.Process {
	if tag != probeTag {
		panic(fmt.Sprintf("unexpected tag %d", tag))
	}
	e.decoded++
	ret := &probe{}
	if err := msgpack.Unmarshal(data, ret); err != nil {
		panic(err)
	}
	ret.env = e
	return ret
}

func (e *env) listener(tick uint32, t task.Task) {
	e.trace = append(e.trace, fmt.Sprintf("%d:%v", tick, t))
}

func (e *env) kernel(options ...kernel.Option) *kernel.Kernel {
	return kernel.New(0, append([]kernel.Option{kernel.WithListener(e.listener)}, options...)...)
}

func drain(k *kernel.Kernel, factory process.Factory) int {
	steps := 0
	for k.RunNext(factory) {
		steps++
	}
	return steps
}

func live(t *testing.T, k *kernel.Kernel, e *env, pid process.Pid) *probe {
	p, ok := k.Process(pid, e.factory)
	require.True(t, ok, "pid %d should be resident", pid)
	return p.(*probe)
}

func TestKernel_RunNext_Empty(t *testing.T) {
	e := &env{}
	k := e.kernel()
	assert.False(t, k.RunNext(e.factory))
	assert.EqualValues(t, 0, k.Tick())
	assert.EqualValues(t, 0, k.NextPid())
	assert.Empty(t, e.trace)
}

func TestKernel_Launch(t *testing.T) {
	e := &env{}
	k := kernel.New(10)
	for i := 0; i < 3; i++ {
		assert.EqualValues(t, i, k.Launch(e.probe("p", "wait", "wait"), nil))
	}
	assert.Equal(t, 3, k.Len())
	assert.Equal(t, 3, k.Pending())
	assert.EqualValues(t, 10, k.Tick())

	parent := process.Pid(0)
	child := k.Launch(e.probe("c", "wait", "wait"), &parent)
	info, ok := k.Info(parent)
	require.True(t, ok)
	assert.Equal(t, []process.Pid{child}, info.Children)
	childInfo, _ := k.Info(child)
	require.NotNil(t, childInfo.Parent)
	assert.Equal(t, parent, *childInfo.Parent)
}

func TestKernel_Yield(t *testing.T) {
	e := &env{}
	k := e.kernel()
	p := e.probe("y", "yield", "yield")
	p.MaxRuns = 3
	k.Launch(p, nil)
	assert.Equal(t, 4, drain(k, e.factory))
	assert.Empty(t, cmp.Diff([]string{"0:start(0)", "0:run(0)", "0:run(0)", "0:run(0)"}, e.trace))
	assert.Equal(t, 0, k.Len())
	assert.Equal(t, []string{"y"}, e.kills)
}

func TestKernel_YieldTick(t *testing.T) {
	e := &env{}
	k := e.kernel()
	k.Launch(e.probe("a", "tick", "tick"), nil)
	k.Launch(e.probe("b", "tick", "tick"), nil)
	c := e.probe("c", "yield", "yield")
	c.MaxRuns = 2
	k.Launch(c, nil)

	drain(k, e.factory)
	assert.Empty(t, cmp.Diff([]string{"0:start(0)", "0:start(1)", "0:start(2)", "0:run(2)", "0:run(2)"}, e.trace))
	assert.Equal(t, 2, k.Deferred())

	for tick := 1; tick <= 2; tick++ {
		e.trace = nil
		k.NextTick()
		assert.Equal(t, 0, k.Deferred())
		drain(k, e.factory)
		expect := []string{fmt.Sprintf("%d:run(0)", tick), fmt.Sprintf("%d:run(1)", tick)}
		assert.Empty(t, cmp.Diff(expect, e.trace), "tick %d", tick)
	}
}

func TestKernel_YieldTick_AfterUnfinishedWork(t *testing.T) {
	e := &env{}
	k := e.kernel()
	k.Launch(e.probe("a", "tick", "wait"), nil)
	k.Launch(e.probe("b", "wait", "wait"), nil)
	k.Launch(e.probe("c", "wait", "wait"), nil)
	require.True(t, k.RunNext(e.factory))

	// tick advanced before the queue drained: leftovers run first
	k.NextTick()
	drain(k, e.factory)
	assert.Empty(t, cmp.Diff([]string{"0:start(0)", "1:start(1)", "1:start(2)", "1:run(0)"}, e.trace))
}

func TestKernel_Sleep(t *testing.T) {
	e := &env{}
	k := e.kernel()
	p := e.probe("s", "sleep", "done")
	p.Ticks = 3
	pid := k.Launch(p, nil)
	drain(k, e.factory)
	assert.Equal(t, 1, k.Sleeping())

	for i := 1; i < 3; i++ {
		k.NextTick()
		assert.Equal(t, 0, drain(k, e.factory), "woke early at tick %d", k.Tick())
	}
	k.NextTick()
	assert.Equal(t, 1, drain(k, e.factory))
	assert.Equal(t, "3:run(0)", e.trace[len(e.trace)-1])
	_, ok := k.Info(pid)
	assert.False(t, ok)
	assert.Equal(t, 0, k.Sleeping())
}

func TestKernel_Sleep_Zero(t *testing.T) {
	e := &env{}
	k := e.kernel()
	p := e.probe("z", "sleep", "done")
	pid := k.Launch(p, nil)
	assert.Equal(t, 1, drain(k, e.factory))
	assert.Equal(t, 0, k.Sleeping())
	assert.Equal(t, 1, k.Deferred())

	k.NextTick()
	assert.Equal(t, 1, drain(k, e.factory))
	assert.Empty(t, cmp.Diff([]string{"0:start(0)", "1:run(0)"}, e.trace))
	_, ok := k.Info(pid)
	assert.False(t, ok)
}

func TestKernel_Sleep_SaturatesAtMaxTick(t *testing.T) {
	e := &env{}
	k := kernel.New(math.MaxUint32-2, kernel.WithListener(e.listener))
	p := e.probe("far", "sleep", "done")
	p.Ticks = 10
	k.Launch(p, nil)
	drain(k, e.factory)
	assert.Equal(t, 1, k.Sleeping())

	k.NextTick()
	assert.Equal(t, 0, drain(k, e.factory))
	k.NextTick()
	assert.EqualValues(t, uint32(math.MaxUint32), k.Tick())
	assert.Equal(t, 1, drain(k, e.factory))
	assert.Equal(t, fmt.Sprintf("%d:run(0)", uint32(math.MaxUint32)), e.trace[len(e.trace)-1])
	assert.Equal(t, 0, k.Sleeping())
	assert.Equal(t, 0, k.Len())
}

func TestKernel_Sleep_AtMaxTick(t *testing.T) {
	e := &env{}
	k := kernel.New(math.MaxUint32, kernel.WithListener(e.listener))
	p := e.probe("last", "sleep", "done")
	p.Ticks = 1
	k.Launch(p, nil)
	drain(k, e.factory)
	assert.Equal(t, 0, k.Sleeping())
	assert.Equal(t, 1, k.Deferred())

	k.NextTick()
	assert.Equal(t, 1, drain(k, e.factory))
	assert.Equal(t, 0, k.Len())
}

func TestKernel_WaitAndReceive(t *testing.T) {
	e := &env{}
	k := e.kernel()
	pid := k.Launch(e.probe("w", "wait", "wait"), nil)
	drain(k, e.factory)
	k.NextTick()
	assert.Equal(t, 0, drain(k, e.factory))

	require.NoError(t, k.Send(pid, process.NewMessage([]byte("hello"))))
	assert.Equal(t, 1, drain(k, e.factory))
	assert.Equal(t, []string{"hello"}, live(t, k, e, pid).Received)

	require.NoError(t, k.Send(pid, process.NewMessage([]byte("stop"))))
	drain(k, e.factory)
	assert.Equal(t, 0, k.Len())
	assert.Equal(t, []string{"w"}, e.kills)
	assert.ErrorIs(t, k.Send(pid, process.NewMessage(nil)), kernel.ErrUnknownProcess)
}

func TestKernel_ChildDoneJoinsParent(t *testing.T) {
	e := &env{}
	k := e.kernel()
	root := e.probe("root", "wait", "wait")
	root.Fork = 2
	rootPid := k.Launch(root, nil)
	drain(k, e.factory)

	info, _ := k.Info(rootPid)
	require.Equal(t, []process.Pid{1, 2}, info.Children)

	require.NoError(t, k.Send(1, process.NewMessage([]byte("stop"))))
	drain(k, e.factory)

	info, _ = k.Info(rootPid)
	assert.Equal(t, []process.Pid{2}, info.Children)
	assert.Equal(t, []string{"1:root.1"}, live(t, k, e, rootPid).Joined)
	assert.Contains(t, e.trace, "0:join(0)")
}

func TestKernel_ChildDoneWithoutValue(t *testing.T) {
	e := &env{}
	k := e.kernel()
	rootPid := k.Launch(e.probe("root", "wait", "wait"), nil)
	k.Launch(e.probe("child", "empty", "wait"), &rootPid)
	drain(k, e.factory)

	assert.Empty(t, cmp.Diff([]string{"0:start(0)", "0:start(1)", "0:join(0)"}, e.trace))
	assert.Equal(t, []string{"<nil>"}, live(t, k, e, rootPid).Joined)
	info, _ := k.Info(rootPid)
	assert.Empty(t, info.Children)
}

func TestKernel_ChildErrorDoesNotJoin(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	e := &env{}
	k := e.kernel(kernel.WithLogger(zap.New(core)))
	root := e.probe("root", "wait", "wait")
	root.Fork = 1
	rootPid := k.Launch(root, nil)
	drain(k, e.factory)

	// grandchild under pid 1
	require.NoError(t, k.Send(1, process.NewMessage([]byte("fork"))))
	drain(k, e.factory)
	require.Equal(t, 3, k.Len())

	require.NoError(t, k.Send(1, process.NewMessage([]byte("fail"))))
	drain(k, e.factory)

	assert.Equal(t, []process.Pid{rootPid}, k.Pids())
	assert.Equal(t, []string{"root.1.2", "root.1"}, e.kills)
	assert.Empty(t, live(t, k, e, rootPid).Joined)
	info, _ := k.Info(rootPid)
	assert.Empty(t, info.Children)
	assert.NotContains(t, e.trace, "0:join(0)")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 1, entries[0].ContextMap()["pid"])
	assert.Equal(t, "root.1 aborted", entries[0].ContextMap()["error"])
}

func TestKernel_StartError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	e := &env{}
	k := e.kernel(kernel.WithLogger(zap.New(core)))
	p := e.probe("bad", "fail", "wait")
	p.Fork = 2
	k.Launch(p, nil)
	assert.Equal(t, 3, drain(k, e.factory), "start tasks of killed children are consumed and dropped")
	assert.Equal(t, []string{"0:start(0)"}, e.trace)
	assert.Equal(t, 0, k.Len())
	assert.Equal(t, []string{"bad.1", "bad.2", "bad"}, e.kills)
	assert.Equal(t, 1, logs.Len())
}

func TestKernel_TerminateCascade(t *testing.T) {
	e := &env{}
	k := e.kernel()
	root := e.probe("root", "wait", "wait")
	root.Fork = 2
	k.Launch(root, nil)
	drain(k, e.factory)
	require.NoError(t, k.Send(1, process.NewMessage([]byte("fork"))))
	require.NoError(t, k.Send(2, process.NewMessage([]byte("fork"))))
	drain(k, e.factory)
	require.Equal(t, 5, k.Len())

	// pending tasks for the subtree must do nothing once it is gone
	for _, pid := range k.Pids() {
		require.NoError(t, k.Send(pid, process.NewMessage([]byte("stop"))))
	}
	e.trace = nil
	k.Terminate(0, e.factory)

	assert.Equal(t, 0, k.Len())
	assert.Equal(t, []string{"root.1.3", "root.1", "root.2.4", "root.2", "root"}, e.kills)
	assert.Equal(t, 5, drain(k, e.factory))
	assert.Empty(t, e.trace)
}

func TestKernel_TerminateSubtreeUpdatesParent(t *testing.T) {
	e := &env{}
	k := e.kernel()
	root := e.probe("root", "wait", "wait")
	root.Fork = 2
	k.Launch(root, nil)
	drain(k, e.factory)

	k.Terminate(2, e.factory)
	info, _ := k.Info(0)
	assert.Equal(t, []process.Pid{1}, info.Children)
	k.Terminate(42, e.factory)
	assert.Equal(t, 2, k.Len())
}

func TestKernel_CapabilityRevoked(t *testing.T) {
	e := &env{}
	k := e.kernel()
	p := e.probe("r", "wait", "wait")
	p.Retain = true
	pid := k.Launch(p, nil)
	drain(k, e.factory)
	require.NotNil(t, p.retained)

	pids, err := p.retained.Fork(e.probe("late", "wait", "wait"))
	assert.ErrorIs(t, err, kernel.ErrCapabilityRevoked)
	assert.Nil(t, pids)
	assert.ErrorIs(t, p.retained.Send(pid, process.NewMessage(nil)), kernel.ErrCapabilityRevoked)
	assert.Equal(t, 1, k.Len())
	assert.Equal(t, 0, k.Pending())
}

func TestKernel_CapabilitySend(t *testing.T) {
	e := &env{}
	k := e.kernel()
	receiver := k.Launch(e.probe("rx", "wait", "wait"), nil)
	sender := &sendingProbe{To: receiver, Body: "ping"}
	senderPid := k.Launch(sender, nil)
	drain(k, e.factory)

	got := live(t, k, e, receiver)
	assert.Equal(t, []string{"ping"}, got.Received)
	require.NotNil(t, sender.From)
	assert.Equal(t, senderPid, *sender.From)
	assert.ErrorIs(t, sender.missing, kernel.ErrUnknownProcess)
}

type sendingProbe struct {
	process.Base
	To      process.Pid
	Body    string
	From    *process.Pid
	missing error
}

func (s *sendingProbe) Start(capability process.Capability) process.Result {
	self := capability.Pid()
	s.From = &self
	if err := capability.Send(s.To, process.NewMessage([]byte(s.Body))); err != nil {
		return process.Fail("%v", err)
	}
	s.missing = capability.Send(999, process.NewMessage(nil))
	return process.Wait()
}

func (s *sendingProbe) Run(process.Capability) process.Result { return process.Wait() }

func (s *sendingProbe) TypeTag() process.TypeTag { return 8 }

func (s *sendingProbe) Encode() ([]byte, error) { return msgpack.Marshal(s) }

func TestKernel_ForkNil(t *testing.T) {
	e := &env{}
	k := e.kernel()
	k.Launch(&nilForker{}, nil)
	drain(k, e.factory)
	assert.Equal(t, 0, k.Len(), "fork error fails the process")
	assert.EqualValues(t, 1, k.NextPid())
}

type nilForker struct{ process.Base }

func (n *nilForker) Start(capability process.Capability) process.Result {
	if _, err := capability.Fork(nil); err != nil {
		return process.Fail("%v", err)
	}
	return process.Wait()
}

func (n *nilForker) Run(process.Capability) process.Result { return process.Wait() }

func (n *nilForker) TypeTag() process.TypeTag { return 9 }

func (n *nilForker) Encode() ([]byte, error) { return nil, nil }
