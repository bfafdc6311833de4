package kernel

import (
	"fmt"

	"github.com/viant/tickos/model/process"
	"github.com/viant/tickos/model/task"
	"github.com/viant/tickos/runtime/payload"
	"github.com/viant/tickos/runtime/registry"
	"github.com/viant/tickos/runtime/scheduler"
	"github.com/vmihailenco/msgpack/v5"
)

const stateVersion = 1

type state struct {
	Version   int                   `msgpack:"version"`
	Tick      uint32                `msgpack:"tick"`
	NextPid   process.Pid           `msgpack:"nextPid"`
	Processes []processState        `msgpack:"processes"`
	Current   []task.Task           `msgpack:"current"`
	Deferred  []task.Task           `msgpack:"deferred"`
	Wake      []scheduler.WakeEntry `msgpack:"wake"`
}

type processState struct {
	Info *registry.Info `msgpack:"info"`
	Data []byte         `msgpack:"data"`
}

// MarshalBinary encodes the whole kernel. Live processes are transcoded
// through their Encode method; serialized ones are copied as they are.
func (k *Kernel) MarshalBinary() ([]byte, error) {
	aState := &state{
		Version:  stateVersion,
		Tick:     k.tick,
		NextPid:  k.nextPid,
		Current:  k.scheduler.Current(),
		Deferred: k.scheduler.Deferred(),
		Wake:     k.wake.Entries(),
	}
	for _, pid := range k.registry.Pids() {
		info := k.registry.Info(pid)
		tag, data, err := k.registry.Payload(pid).Encode()
		if err != nil {
			return nil, fmt.Errorf("failed to encode pid %d: %w", pid, err)
		}
		infoCopy := *info
		infoCopy.Tag = tag
		aState.Processes = append(aState.Processes, processState{Info: &infoCopy, Data: data})
	}
	data, err := msgpack.Marshal(aState)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal kernel state: %w", err)
	}
	return data, nil
}

// Restore rebuilds a kernel from MarshalBinary output. Every process comes
// back serialized and is only decoded when first dispatched or terminated.
func Restore(data []byte, options ...Option) (*Kernel, error) {
	aState := &state{}
	if err := msgpack.Unmarshal(data, aState); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kernel state: %w", err)
	}
	if aState.Version != stateVersion {
		return nil, fmt.Errorf("unsupported kernel state version: %d", aState.Version)
	}
	ret := &Kernel{
		registry:  registry.New(),
		scheduler: scheduler.Restore(aState.Current, aState.Deferred),
		wake:      scheduler.RestoreWakeIndex(aState.Wake),
		tick:      aState.Tick,
		nextPid:   aState.NextPid,
	}
	for _, proc := range aState.Processes {
		if proc.Info == nil {
			return nil, fmt.Errorf("corrupted kernel state: process without metadata")
		}
		if proc.Info.Pid >= aState.NextPid {
			return nil, fmt.Errorf("corrupted kernel state: pid %d not below next pid %d", proc.Info.Pid, aState.NextPid)
		}
		ret.registry.Add(proc.Info, payload.NewSerialized(proc.Info.Tag, proc.Data))
	}
	ret.apply(options)
	return ret, nil
}
