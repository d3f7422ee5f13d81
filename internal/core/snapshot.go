package core

import (
	"maps"
	"time"
)

type FarmSnapshot struct {
	Policy   string
	Machines []MachineSnapshot
}

type MachineSnapshot struct {
	Index     int
	Name      string
	Running   bool
	Capacity  Dimensions
	Config    map[string]string
	Available time.Time
	Batches   []BatchSnapshot
}

type BatchSnapshot struct {
	Index         int
	Family        *JobFamily
	StartTime     time.Time
	PrintDuration time.Duration
	EstCompletion time.Time
	Capacity      Dimensions
	Used          Dimensions
	Jobs          []JobSnapshot
}

type JobSnapshot struct {
	ID            string
	Name          string
	Dims          Dimensions
	DueDate       time.Time
	PrintDuration time.Duration
	Family        JobFamily
}

// Snapshot returns a deep copy of the farm that callers may keep and read
// freely.
func (f *Farm) Snapshot() FarmSnapshot {
	s := FarmSnapshot{
		Policy:   f.policy.Name(),
		Machines: make([]MachineSnapshot, 0, len(f.machines)),
	}
	for i, m := range f.machines {
		s.Machines = append(s.Machines, m.snapshot(i))
	}
	return s
}

func (m *Machine) snapshot(index int) MachineSnapshot {
	ms := MachineSnapshot{
		Index:     index,
		Name:      m.Name,
		Running:   m.running,
		Capacity:  m.capacity,
		Config:    maps.Clone(m.Config),
		Available: m.Available(),
		Batches:   make([]BatchSnapshot, 0, len(m.schedule)),
	}
	for i, b := range m.schedule {
		ms.Batches = append(ms.Batches, b.snapshot(i))
	}
	return ms
}

func (b *Batch) snapshot(index int) BatchSnapshot {
	bs := BatchSnapshot{
		Index:         index,
		StartTime:     b.startTime,
		PrintDuration: b.printDuration,
		EstCompletion: b.EstCompletionTime(),
		Capacity:      b.capacity,
		Used:          b.used,
		Jobs:          make([]JobSnapshot, 0, len(b.items)),
	}
	if fam, ok := b.Family(); ok {
		bs.Family = &fam
	}
	for _, j := range b.items {
		bs.Jobs = append(bs.Jobs, JobSnapshot{
			ID:            j.ID,
			Name:          j.Name,
			Dims:          j.Dims,
			DueDate:       j.DueDate,
			PrintDuration: j.PrintDuration,
			Family:        j.Family.clone(),
		})
	}
	return bs
}
