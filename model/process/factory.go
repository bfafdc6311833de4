package process

import "fmt"

// Factory rebuilds a live process from its tag and encoded state. It must be
// total over every tag the host ever produced: an unknown tag means the stored
// state was written by an incompatible build, which cannot be recovered from,
// so implementations panic instead of returning an error.
type Factory func(tag TypeTag, data []byte) Process

// Decoder rebuilds one concrete process type.
type Decoder func(data []byte) (Process, error)

// Constructors maps each type tag to its decoder.
type Constructors map[TypeTag]Decoder

// Factory returns a Factory backed by the table. It panics on an unregistered
// tag or undecodable state.
func (c Constructors) Factory() Factory {
	return func(tag TypeTag, data []byte) Process {
		decode, ok := c[tag]
		if !ok {
			panic(fmt.Sprintf("process: no constructor registered for type tag %d", tag))
		}
		ret, err := decode(data)
		if err != nil {
			panic(fmt.Sprintf("process: failed to decode type tag %d: %v", tag, err))
		}
		return ret
	}
}
