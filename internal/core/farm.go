package core

import (
	"fmt"
	"time"
)

type Clock func() time.Time

// JobLocator addresses a job by its position in the farm.
type JobLocator struct {
	Machine int
	Batch   int
	Item    int
}

// Placement describes where AddJob put a job.
type Placement struct {
	JobID         string
	Machine       int
	MachineName   string
	Batch         int
	Item          int
	NewBatch      bool
	EstCompletion time.Time
}

func (p Placement) Locator() JobLocator {
	return JobLocator{Machine: p.Machine, Batch: p.Batch, Item: p.Item}
}

type JobReport struct {
	JobID         string
	Name          string
	MachineIndex  int
	MachineName   string
	Batch         int
	StartTime     time.Time
	EstCompletion time.Time
	DueDate       time.Time
	Late          bool
}

// Farm is the fleet of machines. Machine order is admission priority order.
// A Farm is not safe for concurrent use; see Scheduler.
type Farm struct {
	machines []*Machine
	policy   PlacementPolicy
	now      Clock
}

// NewFarm returns an empty farm. A nil policy means EarliestAvailable.
func NewFarm(policy PlacementPolicy) *Farm {
	if policy == nil {
		policy = EarliestAvailable{}
	}
	return &Farm{
		policy: policy,
		now:    time.Now,
	}
}

func (f *Farm) WithClock(now Clock) *Farm {
	f.now = now
	return f
}

func (f *Farm) Policy() PlacementPolicy { return f.policy }

// AddMachine appends m at the lowest admission priority and returns its index.
func (f *Farm) AddMachine(m *Machine) int {
	f.machines = append(f.machines, m)
	return len(f.machines) - 1
}

// RemoveMachine takes the machine at index out of the farm along with its
// queued jobs. Later machines shift down one index.
func (f *Farm) RemoveMachine(index int) (*Machine, error) {
	if index < 0 || index >= len(f.machines) {
		return nil, fmt.Errorf("%w: machine %d of %d", ErrIndexOutOfRange, index, len(f.machines))
	}
	m := f.machines[index]
	f.machines = append(f.machines[:index], f.machines[index+1:]...)
	return m, nil
}

func (f *Farm) Machine(index int) (*Machine, error) {
	if index < 0 || index >= len(f.machines) {
		return nil, fmt.Errorf("%w: machine %d of %d", ErrIndexOutOfRange, index, len(f.machines))
	}
	return f.machines[index], nil
}

func (f *Farm) Machines() []*Machine {
	out := make([]*Machine, len(f.machines))
	copy(out, f.machines)
	return out
}

// AddJob admits job into the first batch, in farm and queue order, that is
// compatible with its family and has room for it. When none does, the
// placement policy picks a machine to open a new batch on. A job larger than
// every machine fails with ErrJobTooLarge and leaves the farm untouched.
func (f *Farm) AddJob(job *PrintJob) (Placement, error) {
	if len(f.machines) == 0 {
		return Placement{}, ErrNoMachines
	}

	for mi, m := range f.machines {
		for bi, b := range m.schedule {
			if b.Accepts(job) {
				return f.admit(mi, bi, job, false)
			}
		}
	}

	var (
		candidates []*Machine
		indexes    []int
	)
	for i, m := range f.machines {
		if job.Dims.Fits(m.capacity) {
			candidates = append(candidates, m)
			indexes = append(indexes, i)
		}
	}
	if len(candidates) == 0 {
		return Placement{}, fmt.Errorf("%w: job %s needs %s", ErrJobTooLarge, job.ID, job.Dims)
	}

	c := f.policy.Choose(candidates, job)
	if c < 0 || c >= len(candidates) {
		c = 0
	}
	mi := indexes[c]
	m := f.machines[mi]
	m.OpenBatch()
	return f.admit(mi, len(m.schedule)-1, job, true)
}

func (f *Farm) admit(mi, bi int, job *PrintJob, opened bool) (Placement, error) {
	m := f.machines[mi]
	b := m.schedule[bi]
	if err := b.Add(job); err != nil {
		return Placement{}, err
	}
	m.reflow()

	return Placement{
		JobID:         job.ID,
		Machine:       mi,
		MachineName:   m.Name,
		Batch:         bi,
		Item:          b.Len() - 1,
		NewBatch:      opened,
		EstCompletion: b.EstCompletionTime(),
	}, nil
}

// RemoveJob takes the job at loc out of its batch and reflows the machine's
// queue. Batches are kept even when they become empty.
func (f *Farm) RemoveJob(loc JobLocator) (*PrintJob, error) {
	m, err := f.Machine(loc.Machine)
	if err != nil {
		return nil, err
	}
	b, err := m.Batch(loc.Batch)
	if err != nil {
		return nil, err
	}
	job, err := b.Remove(loc.Item)
	if err != nil {
		return nil, err
	}
	m.reflow()
	return job, nil
}

// Locate finds the job with the given ID.
func (f *Farm) Locate(id string) (JobLocator, bool) {
	for mi, m := range f.machines {
		for bi, b := range m.schedule {
			if i := b.indexOf(id); i >= 0 {
				return JobLocator{Machine: mi, Batch: bi, Item: i}, true
			}
		}
	}
	return JobLocator{}, false
}

func (f *Farm) RemoveJobByID(id string) (*PrintJob, error) {
	loc, ok := f.Locate(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return f.RemoveJob(loc)
}

// CancelJob removes a job whose batch has not started yet.
func (f *Farm) CancelJob(id string) (*PrintJob, error) {
	loc, ok := f.Locate(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	b := f.machines[loc.Machine].schedule[loc.Batch]
	if !f.now().Before(b.startTime) {
		return nil, fmt.Errorf("%w: job %s started at %s", ErrBatchStarted, id, b.startTime.Format(time.RFC3339))
	}
	return f.RemoveJob(loc)
}

// JobStatus reports where the job is queued and when it should finish.
func (f *Farm) JobStatus(id string) (JobReport, error) {
	loc, ok := f.Locate(id)
	if !ok {
		return JobReport{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	m := f.machines[loc.Machine]
	b := m.schedule[loc.Batch]
	job := b.items[loc.Item]
	eta := b.EstCompletionTime()

	return JobReport{
		JobID:         job.ID,
		Name:          job.Name,
		MachineIndex:  loc.Machine,
		MachineName:   m.Name,
		Batch:         loc.Batch,
		StartTime:     b.startTime,
		EstCompletion: eta,
		DueDate:       job.DueDate,
		Late:          eta.After(job.DueDate),
	}, nil
}
