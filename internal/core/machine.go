package core

import (
	"fmt"
	"maps"
	"time"
)

// Machine is one printer and its queue of batches. The queue is never empty
// and batch i always starts when batch i-1 is estimated to complete.
type Machine struct {
	Name     string
	Config   map[string]string
	capacity Dimensions
	running  bool
	schedule []*Batch
}

// NewMachine returns an idle machine with one empty batch starting at start.
// An empty name becomes "Untitled".
func NewMachine(name string, capacity Dimensions, start time.Time) *Machine {
	if name == "" {
		name = "Untitled"
	}
	return &Machine{
		Name:     name,
		Config:   map[string]string{},
		capacity: capacity,
		schedule: []*Batch{NewBatch(capacity, start)},
	}
}

func (m *Machine) WithConfig(config map[string]string) *Machine {
	m.Config = make(map[string]string, len(config))
	maps.Copy(m.Config, config)
	return m
}

// OpenBatch appends an empty batch that starts when the current last batch
// completes.
func (m *Machine) OpenBatch() *Batch {
	b := NewBatch(m.capacity, m.last().EstCompletionTime())
	m.schedule = append(m.schedule, b)
	return b
}

// Batch returns the batch at queue position index.
func (m *Machine) Batch(index int) (*Batch, error) {
	if index < 0 || index >= len(m.schedule) {
		return nil, fmt.Errorf("%w: batch %d of %d on machine %q", ErrIndexOutOfRange, index, len(m.schedule), m.Name)
	}
	return m.schedule[index], nil
}

func (m *Machine) Batches() []*Batch {
	out := make([]*Batch, len(m.schedule))
	copy(out, m.schedule)
	return out
}

func (m *Machine) Capacity() Dimensions { return m.capacity }
func (m *Machine) Running() bool        { return m.running }
func (m *Machine) SetRunning(r bool)    { m.running = r }

// Available is the time the machine's queue is estimated to drain.
func (m *Machine) Available() time.Time {
	return m.last().EstCompletionTime()
}

// JobCount is the number of jobs queued across all batches.
func (m *Machine) JobCount() int {
	n := 0
	for _, b := range m.schedule {
		n += b.Len()
	}
	return n
}

func (m *Machine) last() *Batch {
	return m.schedule[len(m.schedule)-1]
}

// reflow re-anchors every batch after the first to its predecessor's
// completion time. Called after any batch in the queue changes duration.
func (m *Machine) reflow() {
	for i := 1; i < len(m.schedule); i++ {
		m.schedule[i].startTime = m.schedule[i-1].EstCompletionTime()
	}
}
