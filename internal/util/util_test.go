package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmooth(t *testing.T) {
	assert.Equal(t, 90.0, Smooth(100, 50, .2))
	assert.Equal(t, 50.0, Smooth(100, 50, 1))
	assert.Equal(t, 100.0, Smooth(100, 50, 0))
}

func TestLerp(t *testing.T) {
	assert.Equal(t, 50.0, Lerp(50, 70, 0))
	assert.Equal(t, 60.0, Lerp(50, 70, .5))
	assert.Equal(t, 70.0, Lerp(50, 70, 1))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(0))
	assert.True(t, IsFinite(-123.45))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(1)))
	assert.False(t, IsFinite(math.Inf(-1)))
}
