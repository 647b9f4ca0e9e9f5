package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTripStatusPredicates(t *testing.T) {
	tests := []struct {
		status   TripStatus
		terminal bool
		active   bool
	}{
		{TripStatusPending, false, false},
		{TripStatusAccepted, false, true},
		{TripStatusEnRoute, false, true},
		{TripStatusArrived, false, true},
		{TripStatusCompleted, true, false},
		{TripStatusCancelled, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
			assert.Equal(t, tt.active, tt.status.IsActive())
		})
	}
}
