package jitter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: -1, want: time.Second},
		{attempt: 0, want: time.Second},
		{attempt: 1, want: 2 * time.Second},
		{attempt: 3, want: 8 * time.Second},
		{attempt: 10, want: time.Minute},
		{attempt: 200, want: time.Minute},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(time.Second, time.Minute, tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestDurationStaysInRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		d := Duration(time.Second, DefaultJitter)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 1500*time.Millisecond)
	}

	assert.Equal(t, time.Second, Duration(time.Second, 0))
}
