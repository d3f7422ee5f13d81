package core

import (
	"testing"
	"time"
)

func loadedMachines() []*Machine {
	a := NewMachine("a", Dimensions{300, 200, 400}, t0)
	b := NewMachine("b", Dimensions{300, 200, 400}, t0)
	c := NewMachine("c", Dimensions{300, 200, 400}, t0)

	// a: 3 short jobs, drains at t0+1h
	for i := 0; i < 3; i++ {
		_ = a.schedule[0].Add(newJob("a", Dimensions{10, 10, 10}, time.Hour, famPLA))
	}
	// b: 1 long job, drains at t0+5h
	_ = b.schedule[0].Add(newJob("b", Dimensions{10, 10, 10}, 5*time.Hour, famPLA))
	// c: 2 jobs, drains at t0+30m
	for i := 0; i < 2; i++ {
		_ = c.schedule[0].Add(newJob("c", Dimensions{10, 10, 10}, 30*time.Minute, famPLA))
	}
	return []*Machine{a, b, c}
}

func TestPolicies(t *testing.T) {
	job := newJob("x", Dimensions{10, 10, 10}, time.Hour, famPETG)

	tests := []struct {
		policy PlacementPolicy
		want   string
	}{
		{FirstMachine{}, "a"},
		{LeastLoaded{}, "b"},
		{EarliestAvailable{}, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.policy.Name(), func(t *testing.T) {
			ms := loadedMachines()
			if got := ms[tt.policy.Choose(ms, job)].Name; got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestPolicies_TiesGoToFarmOrder(t *testing.T) {
	ms := []*Machine{
		NewMachine("a", Dimensions{1, 1, 1}, t0),
		NewMachine("b", Dimensions{1, 1, 1}, t0),
	}
	job := newJob("x", Dimensions{1, 1, 1}, time.Hour, famPLA)

	if i := (LeastLoaded{}).Choose(ms, job); i != 0 {
		t.Errorf("least_loaded tie: expected 0, got %d", i)
	}
	if i := (EarliestAvailable{}).Choose(ms, job); i != 0 {
		t.Errorf("earliest_available tie: expected 0, got %d", i)
	}
}

func TestRoundRobin(t *testing.T) {
	ms := loadedMachines()
	rr := &RoundRobin{}
	job := newJob("x", Dimensions{10, 10, 10}, time.Hour, famPLA)

	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, ms[rr.Choose(ms, job)].Name)
	}
	want := []string{"a", "b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected rotation %v, got %v", want, got)
		}
	}
}

func TestRoundRobin_SpreadsNewBatches(t *testing.T) {
	f := newFarm(&RoundRobin{}, Dimensions{100, 100, 100}, Dimensions{100, 100, 100})

	// every job fills a whole batch, so each one after the first two opens a new batch
	var machines []int
	for i := 0; i < 6; i++ {
		p, err := f.AddJob(newJob("full", Dimensions{100, 100, 100}, time.Hour, famPLA))
		if err != nil {
			t.Fatal(err)
		}
		machines = append(machines, p.Machine)
	}

	want := []int{0, 1, 0, 1, 0, 1}
	for i := range want {
		if machines[i] != want[i] {
			t.Fatalf("expected machines %v, got %v", want, machines)
		}
	}
	checkInvariants(t, f)
}

func TestPolicyByName(t *testing.T) {
	for _, name := range []string{PolicyFirstMachine, PolicyRoundRobin, PolicyLeastLoaded, PolicyEarliestAvailable} {
		p, err := PolicyByName(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("expected %s, got %s", name, p.Name())
		}
	}

	if p, err := PolicyByName(""); err != nil || p.Name() != PolicyEarliestAvailable {
		t.Errorf("empty name should default to earliest_available, got %v, %v", p, err)
	}
	if _, err := PolicyByName("best_fit"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
