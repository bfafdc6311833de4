package kernel

import (
	"fmt"
	"math"

	"github.com/viant/tickos/model/process"
	"github.com/viant/tickos/model/task"
	"go.uber.org/zap"
)

func (k *Kernel) handleResult(pid process.Pid, result process.Result, factory process.Factory) {
	switch result.Outcome {
	case process.OutcomeDone:
		k.finish(pid, result.Value, factory)
	case process.OutcomeYield:
		k.scheduler.Schedule(task.Run(pid))
	case process.OutcomeYieldTick:
		k.scheduler.Defer(task.Run(pid))
	case process.OutcomeSleep:
		k.sleep(pid, result.Ticks)
	case process.OutcomeWait:
	case process.OutcomeError:
		k.fail(pid, result.Err, factory)
	default:
		panic(fmt.Sprintf("kernel: unsupported outcome %v returned by pid %d", result.Outcome, pid))
	}
}

// sleep registers pid to run at tick+ticks. Sleep(0) runs on the next tick;
// a wake tick past the counter range saturates at math.MaxUint32.
func (k *Kernel) sleep(pid process.Pid, ticks uint32) {
	wake := k.tick + ticks
	if wake < k.tick {
		wake = math.MaxUint32
	}
	if wake == k.tick {
		k.scheduler.Defer(task.Run(pid))
		return
	}
	k.wake.Add(wake, pid)
}

func (k *Kernel) handleSignal(pid process.Pid, result process.SignalResult, factory process.Factory) {
	switch result.Signal {
	case process.SignalNone:
	case process.SignalDone:
		k.finish(pid, result.Value, factory)
	case process.SignalError:
		k.fail(pid, result.Err, factory)
	default:
		panic(fmt.Sprintf("kernel: unsupported signal %v returned by pid %d", result.Signal, pid))
	}
}

// finish resolves the join with a living parent and terminates the subtree.
func (k *Kernel) finish(pid process.Pid, value *process.ReturnValue, factory process.Factory) {
	info := k.registry.Info(pid)
	if info.Parent != nil && k.registry.RemoveChild(*info.Parent, pid) {
		var joined *process.ReturnValue
		if value != nil {
			v := *value
			v.Pid = pid
			joined = &v
		}
		k.scheduler.Schedule(task.Join(*info.Parent, joined))
	}
	k.Terminate(pid, factory)
}

// fail logs the diagnostic and terminates the subtree without notifying the
// parent.
func (k *Kernel) fail(pid process.Pid, message string, factory process.Factory) {
	info := k.registry.Info(pid)
	k.logger.Error("process failed, terminating",
		zap.Uint32("pid", uint32(pid)),
		zap.Uint32("typeTag", uint32(info.Tag)),
		zap.Int("children", len(info.Children)),
		zap.String("error", message))
	k.Terminate(pid, factory)
}
