package core

import "time"

type EventType string

const (
	EventJobAdmitted    EventType = "job_admitted"
	EventBatchOpened    EventType = "batch_opened"
	EventJobRejected    EventType = "job_rejected"
	EventJobRemoved     EventType = "job_removed"
	EventMachineRemoved EventType = "machine_removed"
)

type Event struct {
	Type          EventType
	JobID         string
	JobName       string
	Machine       int
	MachineName   string
	Batch         int
	EstCompletion time.Time
	Error         string
	Timestamp     time.Time
}

// EventSink receives scheduler events. Publish must not block.
type EventSink interface {
	Publish(Event)
}
