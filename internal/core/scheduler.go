package core

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/orrn/batchfarm/internal/config"
)

type request struct {
	fn   func(*Farm)
	done chan struct{}
}

// Scheduler serializes every operation on a Farm through a single goroutine,
// so the farm, its machines and batches only ever have one writer.
type Scheduler struct {
	farm    *Farm
	log     hclog.Logger
	events  EventSink
	reqCh   chan request
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewScheduler wraps farm. events may be nil.
func NewScheduler(farm *Farm, cfg *config.SchedulerConfig, events EventSink, logger hclog.Logger) *Scheduler {
	if cfg == nil {
		cfg = &config.SchedulerConfig{QueueSize: 64}
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 64
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Scheduler{
		farm:   farm,
		log:    logger,
		events: events,
		reqCh:  make(chan request, cfg.QueueSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	go s.loop()
	s.log.Info("scheduler started", "machines", len(s.farm.machines), "policy", s.farm.policy.Name())
}

// Stop shuts the loop down. A stopped scheduler cannot be restarted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	<-s.doneCh
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) loop() {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			return
		case r := <-s.reqCh:
			r.fn(s.farm)
			close(r.done)
		}
	}
}

func (s *Scheduler) do(ctx context.Context, fn func(*Farm)) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return ErrSchedulerStopped
	}

	r := request{fn: fn, done: make(chan struct{})}
	select {
	case s.reqCh <- r:
	case <-s.stopCh:
		return ErrSchedulerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-r.done:
		return nil
	case <-s.doneCh:
		select {
		case <-r.done:
			return nil
		default:
			return ErrSchedulerStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit admits job into the farm. A rejected job is logged and published as
// job_rejected before the error is returned.
func (s *Scheduler) Submit(ctx context.Context, job *PrintJob) (Placement, error) {
	var (
		p   Placement
		err error
	)
	if e := s.do(ctx, func(f *Farm) { p, err = f.AddJob(job) }); e != nil {
		return Placement{}, e
	}

	if err != nil {
		s.log.Warn("job rejected", "job", job.ID, "name", job.Name, "dims", job.Dims.String(), "error", err)
		s.publish(Event{Type: EventJobRejected, JobID: job.ID, JobName: job.Name, Machine: -1, Batch: -1, Error: err.Error()})
		return Placement{}, err
	}

	if p.NewBatch {
		s.log.Debug("batch opened", "machine", p.MachineName, "batch", p.Batch)
		s.publish(Event{Type: EventBatchOpened, JobID: job.ID, JobName: job.Name, Machine: p.Machine, MachineName: p.MachineName, Batch: p.Batch})
	}
	s.log.Info("job admitted", "job", job.ID, "name", job.Name, "machine", p.MachineName, "batch", p.Batch, "eta", p.EstCompletion.Format(time.RFC3339))
	s.publish(Event{
		Type:          EventJobAdmitted,
		JobID:         job.ID,
		JobName:       job.Name,
		Machine:       p.Machine,
		MachineName:   p.MachineName,
		Batch:         p.Batch,
		EstCompletion: p.EstCompletion,
	})
	return p, nil
}

// RemoveJob removes the job at loc regardless of whether its batch started.
func (s *Scheduler) RemoveJob(ctx context.Context, loc JobLocator) (*PrintJob, error) {
	var (
		job *PrintJob
		err error
	)
	if e := s.do(ctx, func(f *Farm) { job, err = f.RemoveJob(loc) }); e != nil {
		return nil, e
	}
	if err != nil {
		return nil, err
	}
	s.jobRemoved(job, loc)
	return job, nil
}

// CancelJob removes the job with the given ID as long as its batch has not
// started printing.
func (s *Scheduler) CancelJob(ctx context.Context, id string) (*PrintJob, error) {
	var (
		job *PrintJob
		loc JobLocator
		err error
	)
	e := s.do(ctx, func(f *Farm) {
		loc, _ = f.Locate(id)
		job, err = f.CancelJob(id)
	})
	if e != nil {
		return nil, e
	}
	if err != nil {
		return nil, err
	}
	s.jobRemoved(job, loc)
	return job, nil
}

func (s *Scheduler) jobRemoved(job *PrintJob, loc JobLocator) {
	s.log.Info("job removed", "job", job.ID, "name", job.Name, "machine", loc.Machine, "batch", loc.Batch)
	s.publish(Event{Type: EventJobRemoved, JobID: job.ID, JobName: job.Name, Machine: loc.Machine, Batch: loc.Batch})
}

func (s *Scheduler) AddMachine(ctx context.Context, m *Machine) (int, error) {
	var index int
	if err := s.do(ctx, func(f *Farm) { index = f.AddMachine(m) }); err != nil {
		return 0, err
	}
	s.log.Info("machine added", "machine", m.Name, "index", index, "capacity", m.capacity.String())
	return index, nil
}

// RemoveMachine drops the machine at index and every job queued on it.
func (s *Scheduler) RemoveMachine(ctx context.Context, index int) (*Machine, error) {
	var (
		m   *Machine
		err error
	)
	if e := s.do(ctx, func(f *Farm) { m, err = f.RemoveMachine(index) }); e != nil {
		return nil, e
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("machine removed", "machine", m.Name, "index", index, "jobs", m.JobCount())
	s.publish(Event{Type: EventMachineRemoved, Machine: index, MachineName: m.Name, Batch: -1})
	return m, nil
}

// SetRunning records whether the machine at index is currently printing.
func (s *Scheduler) SetRunning(ctx context.Context, index int, running bool) error {
	var (
		name string
		err  error
	)
	e := s.do(ctx, func(f *Farm) {
		var m *Machine
		if m, err = f.Machine(index); err == nil {
			m.SetRunning(running)
			name = m.Name
		}
	})
	if e != nil {
		return e
	}
	if err != nil {
		return err
	}
	s.log.Info("machine state changed", "machine", name, "index", index, "running", running)
	return nil
}

func (s *Scheduler) JobStatus(ctx context.Context, id string) (JobReport, error) {
	var (
		r   JobReport
		err error
	)
	if e := s.do(ctx, func(f *Farm) { r, err = f.JobStatus(id) }); e != nil {
		return JobReport{}, e
	}
	return r, err
}

// Snapshot returns a copy of the farm taken between two operations.
func (s *Scheduler) Snapshot(ctx context.Context) (FarmSnapshot, error) {
	var snap FarmSnapshot
	if err := s.do(ctx, func(f *Farm) { snap = f.Snapshot() }); err != nil {
		return FarmSnapshot{}, err
	}
	return snap, nil
}

func (s *Scheduler) publish(e Event) {
	if s.events == nil {
		return
	}
	e.Timestamp = time.Now()
	s.events.Publish(e)
}
