package scheduler

import (
	"sort"

	"github.com/viant/tickos/model/process"
)

// WakeEntry is the persisted form of one wake index key.
type WakeEntry struct {
	Tick uint32        `msgpack:"tick" json:"tick"`
	Pids []process.Pid `msgpack:"pids" json:"pids"`
}

// WakeIndex maps a future tick to the pids to reschedule at that tick.
type WakeIndex struct {
	entries map[uint32][]process.Pid
}

// NewWakeIndex creates an empty index.
func NewWakeIndex() *WakeIndex {
	return &WakeIndex{entries: make(map[uint32][]process.Pid)}
}

// RestoreWakeIndex rebuilds an index from persisted entries.
func RestoreWakeIndex(entries []WakeEntry) *WakeIndex {
	ret := NewWakeIndex()
	for _, entry := range entries {
		ret.entries[entry.Tick] = append(ret.entries[entry.Tick], entry.Pids...)
	}
	return ret
}

// Add registers pid to wake at tick.
func (w *WakeIndex) Add(tick uint32, pid process.Pid) {
	w.entries[tick] = append(w.entries[tick], pid)
}

// Take removes and returns the pids registered for tick, in insertion order.
func (w *WakeIndex) Take(tick uint32) []process.Pid {
	ret, ok := w.entries[tick]
	if !ok {
		return nil
	}
	delete(w.entries, tick)
	return ret
}

// Len returns the number of registered pids across all ticks.
func (w *WakeIndex) Len() int {
	ret := 0
	for _, pids := range w.entries {
		ret += len(pids)
	}
	return ret
}

// Entries returns the index sorted by tick.
func (w *WakeIndex) Entries() []WakeEntry {
	ret := make([]WakeEntry, 0, len(w.entries))
	for tick, pids := range w.entries {
		ret = append(ret, WakeEntry{Tick: tick, Pids: append([]process.Pid(nil), pids...)})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Tick < ret[j].Tick })
	return ret
}
