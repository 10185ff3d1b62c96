package app

import (
	"time"

	"salat-go/internal/salat"
)

// Operation tracks one CLI invocation. Its ID tags every log line the
// invocation writes so a command's records can be grepped out of salat.log.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Started    time.Time
	Status     string // "success" or "error"
}

// NewOperation creates an operation that starts now.
func NewOperation(name, parameters string, idgen salat.IDGenerator, clock salat.Clock) *Operation {
	return &Operation{
		ID:         idgen.New(),
		Name:       name,
		Parameters: parameters,
		Started:    clock.Now(),
		Status:     "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Elapsed is the time since the operation started.
func (op *Operation) Elapsed(clock salat.Clock) time.Duration {
	return clock.Now().Sub(op.Started)
}
