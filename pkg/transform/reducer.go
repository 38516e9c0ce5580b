package transform

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/menta2k/image-cropper/pkg/geometry"
)

// tolerance below which an edge gap is treated as closed
const tolerance = 1e-9

// Axis flags which axes a snap-back moved
type Axis uint8

const (
	Horizontal Axis = 1 << iota
	Vertical
)

// Correction describes the snap-back performed at the end of an interaction.
// Before is the released transform, After the clamped one.
type Correction struct {
	Before Snapshot
	After  Snapshot
	Axes   Axis
}

// Moved reports whether any axis was corrected
func (c Correction) Moved() bool {
	return c.Axes != 0
}

// Reducer applies gesture events to a State. Window and Frame are fixed for
// the session: Frame is the natural fit of the image inside Window.
type Reducer struct {
	Window geometry.Window
	Frame  geometry.Rect
}

// NewReducer builds a reducer for an imageW x imageH image inside window
func NewReducer(window geometry.Window, imageW, imageH float64) (Reducer, error) {
	frame, err := window.NaturalFitFrame(imageW, imageH)
	if err != nil {
		return Reducer{}, err
	}
	return Reducer{Window: window, Frame: frame}, nil
}

// Reduce returns the state after ev. Only InteractionEnded produces a
// non-empty Correction; drags and pinches may overshoot freely until then.
// A drag or pinch whose result is not finite is ignored.
func (r Reducer) Reduce(s State, ev Event) (State, Correction) {
	switch e := ev.(type) {
	case DragChanged:
		if t := r2.Add(s.RestTranslation, r2.Vec{X: e.DX, Y: e.DY}); finite(t.X) && finite(t.Y) {
			s.Translation = t
		}
	case PinchChanged:
		v := s.RestScale + e.Magnification
		if math.IsNaN(v) || math.IsInf(v, 1) {
			break
		}
		s.Scale = math.Max(MinScale, v)
	case PinchEnded:
		if s.Scale < MinScale {
			s.Scale = MinScale
			s.RestScale = 0
		} else {
			s.RestScale = s.Scale - MinScale
		}
	case InteractionEnded:
		before := s.Snapshot()
		var axes Axis
		s, axes = r.clamp(s)
		s.RestTranslation = s.Translation
		return s, Correction{Before: before, After: s.Snapshot(), Axes: axes}
	case DragEnded:
	}
	snap := s.Snapshot()
	return s, Correction{Before: snap, After: snap}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clamp returns s with the translation corrected so that the transformed
// image covers the window. The rest state is left untouched.
func (r Reducer) Clamp(s State) State {
	s, _ = r.clamp(s)
	return s
}

// Covered reports whether the transformed image covers the whole window
func (r Reducer) Covered(snap Snapshot) bool {
	rect := r.Window.Transformed(r.Frame, snap.Scale, snap.Translation)
	return rect.Covers(r.Window.Bounds(), 1e-6)
}

// clamp corrects each edge in a fixed order, min-X, min-Y, max-X, max-Y,
// recomputing the image rectangle after every step so a later edge sees the
// offset left by an earlier one.
func (r Reducer) clamp(s State) (State, Axis) {
	var axes Axis
	win := r.Window.Bounds()
	rect := func() geometry.Rect {
		return r.Window.Transformed(r.Frame, s.Scale, s.Translation)
	}

	if gap := rect().Min.X - win.Min.X; gap > tolerance {
		s.Translation.X -= gap
		axes |= Horizontal
	}
	if gap := rect().Min.Y - win.Min.Y; gap > tolerance {
		s.Translation.Y -= gap
		axes |= Vertical
	}
	if gap := win.Max.X - rect().Max.X; gap > tolerance {
		s.Translation.X += gap
		axes |= Horizontal
	}
	if gap := win.Max.Y - rect().Max.Y; gap > tolerance {
		s.Translation.Y += gap
		axes |= Vertical
	}
	return s, axes
}
