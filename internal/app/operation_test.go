package app

import (
	"testing"
	"time"

	"salat-go/internal/testutil"
)

func TestNewOperation(t *testing.T) {
	tests := []struct {
		name       string
		operation  string
		parameters string
	}{
		{name: "with parameters", operation: "Mark", parameters: "2026-02-24 fajr"},
		{name: "empty parameters", operation: "Sync", parameters: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := testutil.FixedClock()
			op := NewOperation(tt.operation, tt.parameters, testutil.NewStubIDGenerator(), clock)

			if op.Name != tt.operation || op.Parameters != tt.parameters {
				t.Errorf("op = %+v", op)
			}
			if op.Status != "success" {
				t.Errorf("Status = %q, want success", op.Status)
			}
			if op.ID == "" {
				t.Error("ID is empty")
			}
			if !op.Started.Equal(clock.Now()) {
				t.Errorf("Started = %v", op.Started)
			}
		})
	}
}

func TestOperation_FailAndElapsed(t *testing.T) {
	clock := testutil.FixedClock()
	op := NewOperation("Sync", "", testutil.NewStubIDGenerator(), clock)

	clock.Advance(1500 * time.Millisecond)
	if got := op.Elapsed(clock); got != 1500*time.Millisecond {
		t.Errorf("Elapsed() = %v", got)
	}
	op.Fail()
	if op.Status != "error" {
		t.Errorf("Status = %q, want error", op.Status)
	}
}
