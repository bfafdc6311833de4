package kernel

import (
	"fmt"

	"github.com/viant/tickos/model/process"
	"github.com/viant/tickos/model/task"
)

// capability is bound to one dispatch of one pid and revoked when the
// lifecycle call returns.
type capability struct {
	kernel  *Kernel
	pid     process.Pid
	revoked bool
}

var _ process.Capability = (*capability)(nil)

func newCapability(k *Kernel, pid process.Pid) *capability {
	return &capability{kernel: k, pid: pid}
}

func (c *capability) revoke() { c.revoked = true }

func (c *capability) Pid() process.Pid { return c.pid }

func (c *capability) Tick() uint32 { return c.kernel.tick }

func (c *capability) Fork(processes ...process.Process) ([]process.Pid, error) {
	if c.revoked {
		return nil, ErrCapabilityRevoked
	}
	for i, p := range processes {
		if p == nil {
			return nil, fmt.Errorf("kernel: pid %d forked nil process at position %d", c.pid, i)
		}
	}
	parent := c.pid
	ret := make([]process.Pid, 0, len(processes))
	for _, p := range processes {
		ret = append(ret, c.kernel.Launch(p, &parent))
	}
	return ret, nil
}

func (c *capability) Send(receiver process.Pid, message process.Message) error {
	if c.revoked {
		return ErrCapabilityRevoked
	}
	if !c.kernel.registry.Contains(receiver) {
		return fmt.Errorf("%w: %d", ErrUnknownProcess, receiver)
	}
	sender := c.pid
	message.From = &sender
	c.kernel.scheduler.Schedule(task.Receive(receiver, message))
	return nil
}
