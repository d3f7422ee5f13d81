package core

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

var (
	famPLA  = NewJobFamily("F1", map[string]string{"material": "PLA", "layer_height": "0.2"})
	famPETG = NewJobFamily("F2", map[string]string{"material": "PETG", "layer_height": "0.2"})
)

func fixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}

func newJob(name string, dims Dimensions, d time.Duration, fam JobFamily) *PrintJob {
	return NewPrintJob(name, dims, 72*time.Hour, d, fam, t0)
}

func newFarm(policy PlacementPolicy, capacities ...Dimensions) *Farm {
	f := NewFarm(policy).WithClock(fixedClock(t0))
	for i, c := range capacities {
		f.AddMachine(NewMachine(string(rune('a'+i)), c, t0))
	}
	return f
}

// checkInvariants verifies capacity, family and queue-ordering invariants on
// every machine in the farm.
func checkInvariants(t *testing.T, f *Farm) {
	t.Helper()
	for _, m := range f.Machines() {
		batches := m.Batches()
		if len(batches) == 0 {
			t.Fatalf("machine %s has an empty schedule", m.Name)
		}
		for i, b := range batches {
			var sum Dimensions
			var longest time.Duration
			jobs := b.Jobs()
			for _, j := range jobs {
				sum = sum.Add(j.Dims)
				if j.PrintDuration > longest {
					longest = j.PrintDuration
				}
				if !j.Family.Compatible(jobs[0].Family) {
					t.Errorf("machine %s batch %d mixes families", m.Name, i)
				}
			}
			if !sum.Fits(b.Capacity()) {
				t.Errorf("machine %s batch %d holds %s, capacity %s", m.Name, i, sum, b.Capacity())
			}
			if sum != b.Used() {
				t.Errorf("machine %s batch %d cached used %s, actual %s", m.Name, i, b.Used(), sum)
			}
			if want := b.StartTime().Add(longest); !b.EstCompletionTime().Equal(want) {
				t.Errorf("machine %s batch %d completes at %v, want %v", m.Name, i, b.EstCompletionTime(), want)
			}
			if i > 0 && !b.StartTime().Equal(batches[i-1].EstCompletionTime()) {
				t.Errorf("machine %s batch %d starts at %v, previous completes at %v",
					m.Name, i, b.StartTime(), batches[i-1].EstCompletionTime())
			}
		}
	}
}
