package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/menta2k/image-cropper/pkg/mask"
)

const eps = 1e-9

func TestNewWindowRejectsDegenerate(t *testing.T) {
	for _, tc := range []struct{ w, h float64 }{{0, 10}, {10, 0}, {-5, 5}} {
		_, err := NewWindow(tc.w, tc.h)
		assert.ErrorIs(t, err, ErrDegenerateWindow)
	}
	w, err := NewWindow(300, 200)
	require.NoError(t, err)
	assert.Equal(t, r2.Vec{X: 150, Y: 100}, w.Center())
}

func TestWindowFor(t *testing.T) {
	custom, err := mask.NewCustom(400, 200)
	require.NoError(t, err)

	w, err := WindowFor(custom, 0)
	require.NoError(t, err)
	assert.Equal(t, Window{Width: 400, Height: 200}, w)

	w, err = WindowFor(custom, 300)
	require.NoError(t, err)
	assert.InDelta(t, 300, w.Width, eps)
	assert.InDelta(t, 150, w.Height, eps)

	_, err = WindowFor(mask.Descriptor{Shape: mask.Custom}, 300)
	assert.ErrorIs(t, err, ErrDegenerateWindow)
}

func TestNaturalFitFrameSquare(t *testing.T) {
	f, err := NaturalFitFrame(1000, 1000, 300, 300)
	require.NoError(t, err)
	assert.InDelta(t, 0, f.Min.X, eps)
	assert.InDelta(t, 0, f.Min.Y, eps)
	assert.InDelta(t, 300, f.Width(), eps)
	assert.InDelta(t, 300, f.Height(), eps)
}

func TestNaturalFitFrameLandscapeOverflowsHorizontally(t *testing.T) {
	f, err := NaturalFitFrame(800, 400, 300, 300)
	require.NoError(t, err)
	assert.InDelta(t, 600, f.Width(), eps)
	assert.InDelta(t, 300, f.Height(), eps)
	assert.InDelta(t, -150, f.Min.X, eps)
	assert.InDelta(t, 0, f.Min.Y, eps)
	assert.True(t, f.Covers(RectFromSize(300, 300), eps))
}

func TestNaturalFitFramePortraitOverflowsVertically(t *testing.T) {
	f, err := NaturalFitFrame(300, 900, 400, 200)
	require.NoError(t, err)
	assert.InDelta(t, 400, f.Width(), eps)
	assert.InDelta(t, 1200, f.Height(), eps)
	assert.InDelta(t, -500, f.Min.Y, eps)
	assert.True(t, f.Covers(RectFromSize(400, 200), eps))
}

func TestNaturalFitFrameDegenerate(t *testing.T) {
	_, err := NaturalFitFrame(0, 100, 300, 300)
	assert.ErrorIs(t, err, ErrDegenerateWindow)
	_, err = NaturalFitFrame(100, 100, 300, 0)
	assert.ErrorIs(t, err, ErrDegenerateWindow)
}

func TestTransformedScalesAboutCentreThenTranslates(t *testing.T) {
	w := Window{Width: 300, Height: 300}
	f := w.Bounds()

	got := w.Transformed(f, 2, r2.Vec{X: 10, Y: -20})
	assert.InDelta(t, -150+10, got.Min.X, eps)
	assert.InDelta(t, -150-20, got.Min.Y, eps)
	assert.InDelta(t, 450+10, got.Max.X, eps)
	assert.InDelta(t, 450-20, got.Max.Y, eps)
}

func TestRectHelpers(t *testing.T) {
	r := NewRect(10.2, 5.5, 0.4, 20.1)
	assert.InDelta(t, 0.4, r.Min.X, eps)
	assert.InDelta(t, 9.8, r.Width(), eps)
	assert.Equal(t, image.Rect(0, 5, 11, 21), r.Image())
	assert.False(t, r.Covers(RectFromSize(100, 100), 0))
}
