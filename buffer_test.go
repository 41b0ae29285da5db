package gazeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferTrimsOldestTenth(t *testing.T) {
	b := newSampleBuffer(100)
	for i := 0; i < 100; i++ {
		trimmed := b.add(Sample{Time: int64(i)})
		assert.Equal(t, 0, trimmed)
	}
	assert.Equal(t, 100, b.len())

	trimmed := b.add(Sample{Time: 100})
	assert.Equal(t, 10, trimmed)
	assert.Equal(t, 91, b.len())

	// The oldest samples are gone and order is preserved.
	samples := b.tail(0)
	assert.Equal(t, int64(10), samples[0].Time)
	assert.Equal(t, int64(100), samples[90].Time)
}

func TestBufferTrimShiftsCursors(t *testing.T) {
	b := newSampleBuffer(10)
	for i := 0; i < 10; i++ {
		b.add(Sample{Time: int64(i)})
	}
	b.processedTo = 10
	b.consumedTo = 4
	b.unitStart = 0

	trimmed := b.add(Sample{Time: 10})
	assert.Equal(t, 1, trimmed)
	assert.Equal(t, 10, b.len())
	assert.Equal(t, 9, b.processedTo)
	assert.Equal(t, 3, b.consumedTo)
	assert.Equal(t, 0, b.unitStart)
}

func TestBufferCursorsNeverGoNegative(t *testing.T) {
	b := newSampleBuffer(10)
	for i := 0; i < 50; i++ {
		b.add(Sample{Time: int64(i)})
		assert.LessOrEqual(t, b.len(), 10)
		assert.GreaterOrEqual(t, b.processedTo, 0)
		assert.GreaterOrEqual(t, b.consumedTo, 0)
		assert.GreaterOrEqual(t, b.unitStart, 0)
		assert.LessOrEqual(t, b.processedTo, b.len())
		assert.LessOrEqual(t, b.consumedTo, b.len())
		assert.LessOrEqual(t, b.unitStart, b.len())
	}
}

func TestBufferTail(t *testing.T) {
	b := newSampleBuffer(100)
	for i := 0; i < 5; i++ {
		b.add(Sample{Time: int64(i)})
	}

	t.Run("bounded", func(t *testing.T) {
		samples := b.tail(2)
		assert.Len(t, samples, 2)
		assert.Equal(t, int64(3), samples[0].Time)
		assert.Equal(t, int64(4), samples[1].Time)
	})

	t.Run("unbounded", func(t *testing.T) {
		assert.Len(t, b.tail(0), 5)
		assert.Len(t, b.tail(-1), 5)
		assert.Len(t, b.tail(100), 5)
	})

	t.Run("copies", func(t *testing.T) {
		samples := b.tail(0)
		samples[0].Time = 99
		assert.Equal(t, int64(0), b.samples[0].Time)
	})
}

func TestBufferUnitTail(t *testing.T) {
	b := newSampleBuffer(100)
	for i := 0; i < 4; i++ {
		b.add(Sample{Time: int64(i)})
	}
	b.startUnit()
	for i := 4; i < 8; i++ {
		b.add(Sample{Time: int64(i)})
	}

	samples := b.unitTail(0)
	assert.Len(t, samples, 4)
	assert.Equal(t, int64(4), samples[0].Time)

	samples = b.unitTail(2)
	assert.Len(t, samples, 2)
	assert.Equal(t, int64(6), samples[0].Time)
}

func TestBufferDrain(t *testing.T) {
	b := newSampleBuffer(100)
	for i := 0; i < 3; i++ {
		b.add(Sample{Time: int64(i)})
	}

	drained := b.drain()
	assert.Len(t, drained, 3)
	assert.Empty(t, b.drain())

	b.add(Sample{Time: 3})
	drained = b.drain()
	assert.Len(t, drained, 1)
	assert.Equal(t, int64(3), drained[0].Time)
}

func TestBufferClear(t *testing.T) {
	b := newSampleBuffer(100)
	for i := 0; i < 3; i++ {
		b.add(Sample{Time: int64(i)})
	}
	b.processedTo = 3
	b.consumedTo = 2
	b.startUnit()

	b.clear()
	assert.Equal(t, 0, b.len())
	assert.Equal(t, 0, b.processedTo)
	assert.Equal(t, 0, b.consumedTo)
	assert.Equal(t, 0, b.unitStart)
	assert.Empty(t, b.drain())
}
