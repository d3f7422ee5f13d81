package core

import "errors"

var (
	ErrIncompatibleFamily = errors.New("job family is incompatible with batch")
	ErrCapacityExceeded   = errors.New("batch capacity exceeded")
	ErrJobTooLarge        = errors.New("job does not fit any machine")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrNoMachines         = errors.New("farm has no machines")
	ErrJobNotFound        = errors.New("job not found")
	ErrBatchStarted       = errors.New("batch has already started")
	ErrSchedulerStopped   = errors.New("scheduler is not running")
)
