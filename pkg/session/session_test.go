package session

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/menta2k/image-cropper/pkg/mask"
	"github.com/menta2k/image-cropper/pkg/raster"
	"github.com/menta2k/image-cropper/pkg/transform"
)

// createTestImage creates a horizontal gradient image
func createTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / width), uint8(y * 255 / height), 128, 255})
		}
	}
	return img
}

type countingHaptics struct{ pulses int }

func (h *countingHaptics) Pulse() { h.pulses++ }

func pick(i int) Chooser {
	return ChooserFunc(func([]mask.Descriptor) (int, error) { return i, nil })
}

func TestBeginUsesChosenDescriptor(t *testing.T) {
	opts := mask.DefaultOptions()
	s, err := Begin(opts, createTestImage(200, 100), pick(0))
	require.NoError(t, err)
	assert.Equal(t, mask.Circle, s.Mask().Shape)
	assert.Equal(t, 300.0, s.Window().Width)
	assert.Equal(t, transform.Identity(), s.Preview())
}

func TestBeginErrors(t *testing.T) {
	_, err := Begin(nil, createTestImage(10, 10), pick(0))
	assert.ErrorIs(t, err, ErrNoOptions)

	_, err = Begin(mask.DefaultOptions(), createTestImage(10, 10), pick(9))
	assert.Error(t, err)

	dismissed := errors.New("dismissed")
	_, err = Begin(mask.DefaultOptions(), createTestImage(10, 10), ChooserFunc(func([]mask.Descriptor) (int, error) {
		return 0, dismissed
	}))
	assert.ErrorIs(t, err, dismissed)
}

func TestNaturalFitFrame(t *testing.T) {
	s, err := Start(mask.NewSquare(), createTestImage(200, 100))
	require.NoError(t, err)
	f := s.NaturalFitFrame()
	assert.InDelta(t, -150, f.Min.X, 1e-9)
	assert.InDelta(t, 450, f.Max.X, 1e-9)
	assert.InDelta(t, 0, f.Min.Y, 1e-9)
	assert.InDelta(t, 300, f.Max.Y, 1e-9)
}

func TestDragPastEdgeSnapsBack(t *testing.T) {
	h := &countingHaptics{}
	s, err := Start(mask.NewSquare(), createTestImage(200, 100), WithHaptics(h))
	require.NoError(t, err)

	s.DragChanged(500, 40)
	assert.Equal(t, r2.Vec{X: 500, Y: 40}, s.Preview().Translation)
	s.DragEnded()
	c := s.InteractionEnded()

	require.True(t, c.Moved())
	assert.Equal(t, transform.Horizontal|transform.Vertical, c.Axes)
	assert.InDelta(t, 150, s.Preview().Translation.X, 1e-9)
	assert.InDelta(t, 0, s.Preview().Translation.Y, 1e-9)
	assert.Equal(t, s.Preview().Translation, s.State().RestTranslation)
	assert.Equal(t, 1, h.pulses)

	// a second release is a no-op
	c = s.InteractionEnded()
	assert.False(t, c.Moved())
	assert.Equal(t, 1, h.pulses)
}

// Scenario D: committing without an image fails and closes the session.
func TestCommitWithoutImage(t *testing.T) {
	s, err := Start(mask.NewSquare(), nil)
	require.NoError(t, err)

	s.PinchChanged(2)
	s.PinchEnded()
	s.InteractionEnded()

	out, err := s.Commit()
	assert.Nil(t, out)
	assert.ErrorIs(t, err, raster.ErrNoSourceImage)
	assert.True(t, s.Closed())

	_, err = s.Commit()
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestCommitMatchesPreview(t *testing.T) {
	src := createTestImage(640, 480)
	desc, err := mask.NewCustom(400, 200)
	require.NoError(t, err)
	s, err := Start(desc, src)
	require.NoError(t, err)

	s.PinchChanged(1.8)
	s.PinchEnded()
	s.DragChanged(-35, 12)
	s.DragEnded()
	s.InteractionEnded()

	preview := s.Preview()
	want, err := raster.New().Render(src, preview, s.Window(), desc)
	require.NoError(t, err)

	got, err := s.Commit()
	require.NoError(t, err)
	require.Equal(t, image.Pt(400, 200), got.Bounds().Size())
	assert.Equal(t, want.Pix, got.(*image.RGBA).Pix)
}

func TestCancel(t *testing.T) {
	s, err := Start(mask.NewCircle(), createTestImage(50, 50))
	require.NoError(t, err)

	s.DragChanged(10, 10)
	s.Cancel()
	s.Cancel()
	assert.True(t, s.Closed())
	assert.Equal(t, transform.Identity(), s.Preview())

	// events after close are ignored
	s.DragChanged(99, 99)
	assert.Equal(t, transform.Identity(), s.Preview())

	_, err = s.Commit()
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestWithInitialIsClamped(t *testing.T) {
	s, err := Start(mask.NewSquare(), createTestImage(300, 300),
		WithInitial(transform.State{Scale: 2, Translation: r2.Vec{X: 1000, Y: -20}}))
	require.NoError(t, err)

	st := s.State()
	assert.Equal(t, 2.0, st.Scale)
	assert.Equal(t, 1.0, st.RestScale)
	// at scale 2 the image spans -150..450, so the translation is bounded by 150
	assert.InDelta(t, 150, st.Translation.X, 1e-9)
	assert.InDelta(t, -20, st.Translation.Y, 1e-9)
	assert.Equal(t, st.Translation, st.RestTranslation)
}

func TestStartWithNilPointerImage(t *testing.T) {
	s, err := Start(mask.NewSquare(), (*image.RGBA)(nil))
	require.NoError(t, err)
	assert.Equal(t, s.Window().Bounds(), s.NaturalFitFrame())

	s.DragChanged(40, 0)
	s.DragEnded()
	s.InteractionEnded()

	out, err := s.Commit()
	assert.Nil(t, out)
	assert.ErrorIs(t, err, raster.ErrNoSourceImage)
}

func TestWithInitialRejectsNonFiniteState(t *testing.T) {
	s, err := Start(mask.NewSquare(), createTestImage(300, 300),
		WithInitial(transform.State{Scale: math.NaN(), Translation: r2.Vec{X: math.Inf(1)}}))
	require.NoError(t, err)
	assert.Equal(t, transform.Initial(), s.State())
}

func TestWithDisplaySide(t *testing.T) {
	desc, err := mask.NewCustom(400, 200)
	require.NoError(t, err)

	s, err := Start(desc, createTestImage(10, 10), WithDisplaySide(0))
	require.NoError(t, err)
	assert.Equal(t, 400.0, s.Window().Width)
	assert.Equal(t, 200.0, s.Window().Height)

	s, err = Start(desc, createTestImage(10, 10), WithDisplaySide(100))
	require.NoError(t, err)
	assert.Equal(t, 100.0, s.Window().Width)
	assert.Equal(t, 50.0, s.Window().Height)
}

func TestLogsCommitAndFailure(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	s, err := Start(mask.NewSquare(), createTestImage(20, 20), WithLogger(logger))
	require.NoError(t, err)
	_, err = s.Commit()
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("crop committed").Len())

	s, err = Start(mask.NewSquare(), nil, WithLogger(logger))
	require.NoError(t, err)
	_, err = s.Commit()
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("crop failed").Len())
}

func TestApplyAllReturnsLastCorrection(t *testing.T) {
	s, err := Start(mask.NewSquare(), createTestImage(100, 100))
	require.NoError(t, err)
	events := []transform.Event{
		transform.DragChanged{DX: 0, DY: 80},
		transform.DragEnded{},
		transform.InteractionEnded{},
	}
	c := s.ApplyAll(events)
	assert.True(t, c.Moved())
	assert.Equal(t, transform.Vertical, c.Axes)
	assert.InDelta(t, 0, s.Preview().Translation.Y, 1e-9)
}
