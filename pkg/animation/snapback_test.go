package animation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/menta2k/image-cropper/pkg/transform"
)

func TestEaseInOut(t *testing.T) {
	assert.Equal(t, 0.0, EaseInOut(-1))
	assert.Equal(t, 0.0, EaseInOut(0))
	assert.InDelta(t, 0.5, EaseInOut(0.5), 1e-12)
	assert.Equal(t, 1.0, EaseInOut(1))
	assert.Equal(t, 1.0, EaseInOut(2))

	prev := 0.0
	for i := 1; i <= 100; i++ {
		v := EaseInOut(float64(i) / 100)
		require.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestSnapbackEndpoints(t *testing.T) {
	c := transform.Correction{
		Before: transform.Snapshot{Scale: 1, Translation: r2.Vec{X: 500}},
		After:  transform.Snapshot{Scale: 1},
		Axes:   transform.Horizontal,
	}
	s := FromCorrection(c, 0)
	assert.Equal(t, DefaultDuration, s.Duration)

	assert.Equal(t, c.Before, s.At(0))
	assert.Equal(t, c.After, s.At(DefaultDuration))
	assert.Equal(t, c.After, s.At(time.Second))
	assert.InDelta(t, 250, s.At(DefaultDuration/2).Translation.X, 1e-9)
	assert.True(t, s.Done(DefaultDuration))
	assert.False(t, s.Done(DefaultDuration/2))
}

func TestFramesEndOnTarget(t *testing.T) {
	s := Snapback{
		From:     transform.Snapshot{Scale: 2, Translation: r2.Vec{X: -40, Y: 60}},
		To:       transform.Snapshot{Scale: 2, Translation: r2.Vec{X: -40, Y: 0}},
		Duration: 200 * time.Millisecond,
	}
	frames := s.Frames(60)
	require.NotEmpty(t, frames)
	assert.Equal(t, s.To, frames[len(frames)-1])
	for i := 1; i < len(frames); i++ {
		assert.LessOrEqual(t, frames[i].Translation.Y, frames[i-1].Translation.Y)
	}

	assert.Equal(t, []transform.Snapshot{s.To}, s.Frames(0))
}
