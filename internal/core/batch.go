package core

import (
	"fmt"
	"time"
)

// Batch is a group of compatible jobs printed together in one machine run.
// Every job in a batch completes when the slowest one does.
type Batch struct {
	items         []*PrintJob
	startTime     time.Time
	printDuration time.Duration
	capacity      Dimensions
	family        *JobFamily
	used          Dimensions
}

// NewBatch returns an empty batch with no family that starts at start.
func NewBatch(capacity Dimensions, start time.Time) *Batch {
	return &Batch{
		capacity:  capacity,
		startTime: start,
	}
}

// CanFit reports whether dims fits into the space the batch has left.
func (b *Batch) CanFit(dims Dimensions) bool {
	return dims.Fits(b.Room())
}

// Room is the space left on each axis. used always fits capacity, so the
// subtraction cannot wrap.
func (b *Batch) Room() Dimensions {
	return Dimensions{
		X: b.capacity.X - b.used.X,
		Y: b.capacity.Y - b.used.Y,
		Z: b.capacity.Z - b.used.Z,
	}
}

// Accepts reports whether job can join the batch. An empty batch accepts any
// family.
func (b *Batch) Accepts(job *PrintJob) bool {
	if b.family != nil && !b.family.Compatible(job.Family) {
		return false
	}
	return b.CanFit(job.Dims)
}

// Add appends job, taking the job's family if the batch is empty. It fails
// without changing the batch when the family differs or the job does not fit.
func (b *Batch) Add(job *PrintJob) error {
	if b.family != nil && !b.family.Compatible(job.Family) {
		return fmt.Errorf("%w: batch family %q, job family %q", ErrIncompatibleFamily, b.family.Name, job.Family.Name)
	}
	if !b.CanFit(job.Dims) {
		return fmt.Errorf("%w: %s used of %s, job needs %s", ErrCapacityExceeded, b.used, b.capacity, job.Dims)
	}

	if b.family == nil {
		f := job.Family.clone()
		b.family = &f
	}
	b.items = append(b.items, job)
	b.used = b.used.Add(job.Dims)
	if job.PrintDuration > b.printDuration {
		b.printDuration = job.PrintDuration
	}
	return nil
}

// Remove takes out the job at index and shrinks the batch duration to its
// slowest remaining job.
func (b *Batch) Remove(index int) (*PrintJob, error) {
	if index < 0 || index >= len(b.items) {
		return nil, fmt.Errorf("%w: item %d of %d", ErrIndexOutOfRange, index, len(b.items))
	}

	job := b.items[index]
	b.items = append(b.items[:index], b.items[index+1:]...)
	b.recompute()
	return job, nil
}

func (b *Batch) recompute() {
	b.used = Dimensions{}
	b.printDuration = 0
	for _, it := range b.items {
		b.used = b.used.Add(it.Dims)
		if it.PrintDuration > b.printDuration {
			b.printDuration = it.PrintDuration
		}
	}
	if len(b.items) == 0 {
		b.family = nil
	}
}

// EstCompletionTime is when the slowest job in the batch finishes.
func (b *Batch) EstCompletionTime() time.Time {
	return b.startTime.Add(b.printDuration)
}

func (b *Batch) Jobs() []*PrintJob {
	out := make([]*PrintJob, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Batch) Len() int                     { return len(b.items) }
func (b *Batch) StartTime() time.Time         { return b.startTime }
func (b *Batch) PrintDuration() time.Duration { return b.printDuration }
func (b *Batch) Capacity() Dimensions         { return b.capacity }
func (b *Batch) Used() Dimensions             { return b.used }

// Family returns the family set by the first admitted job, or false while the
// batch is empty.
func (b *Batch) Family() (JobFamily, bool) {
	if b.family == nil {
		return JobFamily{}, false
	}
	return b.family.clone(), true
}

func (b *Batch) indexOf(id string) int {
	for i, it := range b.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
