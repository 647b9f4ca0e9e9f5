package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBloodStockKey(t *testing.T) {
	tests := []struct {
		group string
		key   string
	}{
		{"A+", "a_positive"},
		{"A-", "a_negative"},
		{"B+", "b_positive"},
		{"AB+", "ab_positive"},
		{"AB-", "ab_negative"},
		{"O+", "o_positive"},
		{"O-", "o_negative"},
		{" o+ ", "o_positive"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.key, BloodStockKey(tt.group), "group %q", tt.group)
	}
}
