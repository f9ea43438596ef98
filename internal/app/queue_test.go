package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_DropsWhenFull(t *testing.T) {
	q := NewQueue[int](2)

	assert.True(t, q.Offer(1))
	assert.True(t, q.Offer(2))
	assert.False(t, q.Offer(3))

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 1, <-q.C())
	assert.Equal(t, 2, <-q.C())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_SingleSlotOverwrites(t *testing.T) {
	q := NewQueue[string](1)

	assert.True(t, q.Offer("first"))
	assert.True(t, q.Offer("second"))

	assert.Equal(t, 1, q.Len())
	assert.Equal(t, "second", <-q.C())
}

func TestNewQueue_MinimumLength(t *testing.T) {
	q := NewQueue[int](0)

	assert.Equal(t, 1, q.Cap())
}
