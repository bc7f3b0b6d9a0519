package collision

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	require.NotNil(t, tracker)
	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasCollision())
}

func TestTracker_LookupAndTrack(t *testing.T) {
	heap := map[uint32]string{1: "Object", 8: "String"}
	equalTo := func(s string) func(uint32) bool {
		return func(off uint32) bool { return heap[off] == s }
	}

	tracker := NewTracker()
	tracker.Track(0xAAAA, 1)
	tracker.Track(0xBBBB, 8)

	off, ok := tracker.Lookup(0xAAAA, equalTo("Object"))
	require.True(t, ok)
	require.Equal(t, uint32(1), off)

	_, ok = tracker.Lookup(0xCCCC, equalTo("Object"))
	require.False(t, ok)
	require.False(t, tracker.HasCollision())
	require.Equal(t, 2, tracker.Count())
}

func TestTracker_Collision(t *testing.T) {
	heap := map[uint32]string{1: "Object", 8: "String"}
	tracker := NewTracker()

	// both entries share a hash; the comparison keeps them apart
	tracker.Track(0xAAAA, 1)
	_, ok := tracker.Lookup(0xAAAA, func(off uint32) bool { return heap[off] == "String" })
	require.False(t, ok)

	tracker.Track(0xAAAA, 8)
	require.True(t, tracker.HasCollision())

	off, ok := tracker.Lookup(0xAAAA, func(off uint32) bool { return heap[off] == "String" })
	require.True(t, ok)
	require.Equal(t, uint32(8), off)
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker()
	tracker.Track(1, 1)
	tracker.Track(1, 2)
	require.True(t, tracker.HasCollision())

	tracker.Reset()

	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasCollision())
	_, ok := tracker.Lookup(1, func(uint32) bool { return true })
	require.False(t, ok)
}
