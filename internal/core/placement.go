package core

import "fmt"

const (
	PolicyFirstMachine      = "first_machine"
	PolicyRoundRobin        = "round_robin"
	PolicyLeastLoaded       = "least_loaded"
	PolicyEarliestAvailable = "earliest_available"
)

// PlacementPolicy picks the machine that gets a new batch when no existing
// batch admits a job. Candidates are in farm order and never empty; every
// candidate can hold the job on its own.
type PlacementPolicy interface {
	Name() string
	Choose(candidates []*Machine, job *PrintJob) int
}

func PolicyByName(name string) (PlacementPolicy, error) {
	switch name {
	case PolicyFirstMachine:
		return FirstMachine{}, nil
	case PolicyRoundRobin:
		return &RoundRobin{}, nil
	case PolicyLeastLoaded:
		return LeastLoaded{}, nil
	case PolicyEarliestAvailable, "":
		return EarliestAvailable{}, nil
	default:
		return nil, fmt.Errorf("unknown placement policy: %s", name)
	}
}

type FirstMachine struct{}

func (FirstMachine) Name() string { return PolicyFirstMachine }

func (FirstMachine) Choose(_ []*Machine, _ *PrintJob) int { return 0 }

// RoundRobin rotates through candidates across calls.
type RoundRobin struct {
	next int
}

func (*RoundRobin) Name() string { return PolicyRoundRobin }

func (r *RoundRobin) Choose(candidates []*Machine, _ *PrintJob) int {
	i := r.next % len(candidates)
	r.next++
	return i
}

// LeastLoaded picks the candidate with the fewest queued jobs.
type LeastLoaded struct{}

func (LeastLoaded) Name() string { return PolicyLeastLoaded }

func (LeastLoaded) Choose(candidates []*Machine, _ *PrintJob) int {
	best := 0
	for i, m := range candidates[1:] {
		if m.JobCount() < candidates[best].JobCount() {
			best = i + 1
		}
	}
	return best
}

// EarliestAvailable picks the candidate whose queue drains first.
type EarliestAvailable struct{}

func (EarliestAvailable) Name() string { return PolicyEarliestAvailable }

func (EarliestAvailable) Choose(candidates []*Machine, _ *PrintJob) int {
	best := 0
	for i, m := range candidates[1:] {
		if m.Available().Before(candidates[best].Available()) {
			best = i + 1
		}
	}
	return best
}
