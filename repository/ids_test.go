package repository

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIDSequenceIgnoresOutOfRangeObservations(t *testing.T) {
	fixed := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	seq := NewIDSequence(func() time.Time { return fixed })

	seq.Observe(math.MaxInt64)
	seq.Observe(-5)

	first := seq.Next()
	assert.Equal(t, fixed.UnixMilli(), first)
	assert.Equal(t, first+1, seq.Next())
}

func TestIDSequenceStaysPositive(t *testing.T) {
	seq := NewIDSequence(func() time.Time { return time.Unix(0, 0) })
	seq.Observe(MaxAssignableID)

	assert.Equal(t, MaxAssignableID+1, seq.Next())
	assert.True(t, AssignableID(1))
	assert.False(t, AssignableID(0))
	assert.False(t, AssignableID(MaxAssignableID+1))
}
