package services

import "errors"

// Run coordination errors
var (
	ErrRunInFlight    = errors.New("a run is already in flight")
	ErrTriggerPending = errors.New("a run trigger is already pending")
	ErrRunNotFound    = errors.New("run not found")
)
