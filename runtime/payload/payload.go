// Package payload holds a resident process either as opaque bytes or as a
// live instance, converting between the two only when needed.
package payload

import (
	"fmt"

	"github.com/viant/tickos/model/process"
)

// Payload is the stored state of one resident process.
type Payload struct {
	tag  process.TypeTag
	data []byte
	live process.Process
}

// NewLive wraps a live instance.
func NewLive(p process.Process) *Payload {
	return &Payload{tag: p.TypeTag(), live: p}
}

// NewSerialized wraps encoded state that is decoded on first use.
func NewSerialized(tag process.TypeTag, data []byte) *Payload {
	return &Payload{tag: tag, data: data}
}

// TypeTag returns the tag of the wrapped process.
func (p *Payload) TypeTag() process.TypeTag { return p.tag }

// IsLive reports whether the payload has been promoted.
func (p *Payload) IsLive() bool { return p.live != nil }

// Live promotes the payload (at most once) and returns the live instance.
func (p *Payload) Live(factory process.Factory) process.Process {
	if p.live != nil {
		return p.live
	}
	live := factory(p.tag, p.data)
	if live == nil {
		panic(fmt.Sprintf("payload: factory returned nil for type tag %d", p.tag))
	}
	p.live = live
	p.data = nil
	return live
}

// Encode returns the serialized form. Live instances are encoded through
// their own Encode method; the payload itself stays live.
func (p *Payload) Encode() (process.TypeTag, []byte, error) {
	if p.live == nil {
		return p.tag, p.data, nil
	}
	data, err := p.live.Encode()
	if err != nil {
		return p.tag, nil, fmt.Errorf("failed to encode process with type tag %d: %w", p.tag, err)
	}
	return p.live.TypeTag(), data, nil
}
