package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker(t *testing.T) {
	tracker := NewTracker()

	assert.True(t, tracker.Accept("a"))
	assert.True(t, tracker.Accept("b"))
	assert.False(t, tracker.Accept("a"))
	assert.False(t, tracker.Accept("a"))
	assert.True(t, tracker.Accept("A"))

	assert.Equal(t, 3, tracker.Len())
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker()
	tracker.Accept("a")

	tracker.Reset()

	assert.Zero(t, tracker.Len())
	assert.True(t, tracker.Accept("a"))
	assert.False(t, tracker.Accept("a"))
}
