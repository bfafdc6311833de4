// Package registry keeps the per-process metadata and payload tables.
package registry

import (
	"sort"

	"github.com/viant/tickos/model/process"
	"github.com/viant/tickos/runtime/payload"
)

// Info is the plain-data metadata of a resident process.
type Info struct {
	Pid      process.Pid     `msgpack:"pid" json:"pid"`
	Parent   *process.Pid    `msgpack:"parent,omitempty" json:"parent,omitempty"`
	Children []process.Pid   `msgpack:"children,omitempty" json:"children,omitempty"`
	Tag      process.TypeTag `msgpack:"tag" json:"tag"`
}

// NewInfo creates metadata without children.
func NewInfo(pid process.Pid, parent *process.Pid, tag process.TypeTag) *Info {
	ret := &Info{Pid: pid, Tag: tag}
	if parent != nil {
		p := *parent
		ret.Parent = &p
	}
	return ret
}

// HasChild reports whether pid is a recorded child.
func (i *Info) HasChild(pid process.Pid) bool {
	idx := sort.Search(len(i.Children), func(k int) bool { return i.Children[k] >= pid })
	return idx < len(i.Children) && i.Children[idx] == pid
}

func (i *Info) addChild(pid process.Pid) {
	idx := sort.Search(len(i.Children), func(k int) bool { return i.Children[k] >= pid })
	if idx < len(i.Children) && i.Children[idx] == pid {
		return
	}
	i.Children = append(i.Children, 0)
	copy(i.Children[idx+1:], i.Children[idx:])
	i.Children[idx] = pid
}

func (i *Info) removeChild(pid process.Pid) bool {
	idx := sort.Search(len(i.Children), func(k int) bool { return i.Children[k] >= pid })
	if idx == len(i.Children) || i.Children[idx] != pid {
		return false
	}
	i.Children = append(i.Children[:idx], i.Children[idx+1:]...)
	return true
}

// Registry holds two parallel tables keyed by pid.
type Registry struct {
	metadata map[process.Pid]*Info
	payloads map[process.Pid]*payload.Payload
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		metadata: make(map[process.Pid]*Info),
		payloads: make(map[process.Pid]*payload.Payload),
	}
}

// Add registers a process; an existing entry for the pid is replaced.
func (r *Registry) Add(info *Info, p *payload.Payload) {
	r.metadata[info.Pid] = info
	r.payloads[info.Pid] = p
}

// Info returns the metadata of pid or nil.
func (r *Registry) Info(pid process.Pid) *Info { return r.metadata[pid] }

// Payload returns the payload of pid or nil.
func (r *Registry) Payload(pid process.Pid) *payload.Payload { return r.payloads[pid] }

// Contains reports whether pid has metadata.
func (r *Registry) Contains(pid process.Pid) bool {
	_, ok := r.metadata[pid]
	return ok
}

// AddChild records child under parent. It is a no-op for an absent parent.
func (r *Registry) AddChild(parent, child process.Pid) {
	if info := r.metadata[parent]; info != nil {
		info.addChild(child)
	}
}

// RemoveChild forgets child under parent and reports whether it was recorded.
func (r *Registry) RemoveChild(parent, child process.Pid) bool {
	if info := r.metadata[parent]; info != nil {
		return info.removeChild(child)
	}
	return false
}

// Remove drops both table entries of pid.
func (r *Registry) Remove(pid process.Pid) {
	delete(r.metadata, pid)
	delete(r.payloads, pid)
}

// Len returns the number of resident processes.
func (r *Registry) Len() int { return len(r.metadata) }

// Pids returns every resident pid in ascending order.
func (r *Registry) Pids() []process.Pid {
	ret := make([]process.Pid, 0, len(r.metadata))
	for pid := range r.metadata {
		ret = append(ret, pid)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}
