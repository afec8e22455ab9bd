package rollgate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBuffer_DrainEmptyReturnsFalse(t *testing.T) {
	b := NewEventBuffer(10)
	_, ok := b.Drain()
	assert.False(t, ok)
}

func TestEventBuffer_RecordAndDrain(t *testing.T) {
	b := NewEventBuffer(10)
	now := time.Now()

	b.RecordIdentify("encoded-user", "u1", now)
	b.RecordFeature("encoded-user", "flag-a", true, false, now)

	batch, ok := b.Drain()
	require.True(t, ok)

	var events []Event
	require.NoError(t, json.Unmarshal(batch, &events))
	require.Len(t, events, 2)
	assert.Equal(t, EventIdentify, events[0].Kind)
	assert.Equal(t, EventFeature, events[1].Kind)
	assert.Equal(t, "flag-a", events[1].Key)

	_, ok = b.Drain()
	assert.False(t, ok, "drain must empty the buffer")
}

func TestEventBuffer_OverflowDropsNewest(t *testing.T) {
	b := NewEventBuffer(2)
	now := time.Now()

	b.RecordFeature("u", "a", 1, 0, now)
	b.RecordFeature("u", "b", 2, 0, now)
	b.RecordFeature("u", "c", 3, 0, now) // dropped

	assert.Equal(t, 2, b.Len())

	batch, ok := b.Drain()
	require.True(t, ok)
	var events []Event
	require.NoError(t, json.Unmarshal(batch, &events))
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Key)
	assert.Equal(t, "b", events[1].Key)
}

func TestEventBuffer_OnDropCalledOnOverflow(t *testing.T) {
	drops := 0
	b := NewEventBuffer(1)
	b.onDrop = func() { drops++ }

	b.RecordFeature("u", "a", 1, 0, time.Now())
	b.RecordFeature("u", "b", 2, 0, time.Now())

	assert.Equal(t, 1, drops)
}

func TestEventBuffer_CapacityClampedToOne(t *testing.T) {
	b := NewEventBuffer(0)
	assert.Equal(t, 1, b.capacity)
}
