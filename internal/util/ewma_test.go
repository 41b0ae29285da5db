package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEwma(t *testing.T) {
	t.Run("plain average during warmup", func(t *testing.T) {
		e := NewEwma(10, 3)
		assert.Equal(t, 10.0, e.Add(10))
		assert.Equal(t, 15.0, e.Add(20))
		assert.Equal(t, 20.0, e.Add(30))
	})

	t.Run("decays after warmup", func(t *testing.T) {
		e := NewEwma(9, 1)
		e.Add(100)

		// smoothingFactor is 2/(9+1) = .2
		assert.InDelta(t, 90.0, e.Add(50), 1e-9)
		assert.InDelta(t, 82.0, e.Add(50), 1e-9)
	})

	t.Run("no warmup", func(t *testing.T) {
		e := NewEwma(9, 0)
		assert.InDelta(t, 20.0, e.Add(100), 1e-9)
	})
}

func TestEwma_Reset(t *testing.T) {
	e := NewEwma(10, 2)
	e.Add(5)
	e.Add(10)
	assert.NotEqual(t, 0.0, e.Value())

	e.Reset()
	assert.Equal(t, 0.0, e.Value())
	assert.Equal(t, 3.0, e.Add(3))
}
