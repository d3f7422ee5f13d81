package core

import (
	"time"

	"github.com/google/uuid"
)

type PrintJob struct {
	ID            string
	Name          string
	Dims          Dimensions
	DueDate       time.Time
	PrintDuration time.Duration
	Family        JobFamily
}

// NewPrintJob creates a job due timeUntilDue after now.
func NewPrintJob(name string, dims Dimensions, timeUntilDue, printDuration time.Duration, family JobFamily, now time.Time) *PrintJob {
	return &PrintJob{
		ID:            uuid.NewString(),
		Name:          name,
		Dims:          dims,
		DueDate:       now.Add(timeUntilDue),
		PrintDuration: printDuration,
		Family:        family.clone(),
	}
}
