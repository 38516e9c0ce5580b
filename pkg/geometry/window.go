// Package geometry holds the crop window and the aspect-fill placement that
// the preview, the gesture reducer and the rasterizer all share.
//
// Layout coordinates put the window's top-left corner at the origin. The
// image is placed by NaturalFitFrame and then transformed by a scale about
// the window centre followed by a translation in layout units.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/menta2k/image-cropper/pkg/mask"
)

// ErrDegenerateWindow is returned for windows or images with a non-positive dimension
var ErrDegenerateWindow = errors.New("crop window size must be positive")

// Window is the fixed viewport through which the transformed image is seen
type Window struct {
	Width  float64
	Height float64
}

// NewWindow validates and returns a window of the given size
func NewWindow(width, height float64) (Window, error) {
	w := Window{Width: width, Height: height}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// WindowFor derives the on-screen window for a mask. The window keeps the
// mask's output aspect; maxSide bounds its longer edge. A maxSide <= 0 keeps
// the output pixel size.
func WindowFor(desc mask.Descriptor, maxSide float64) (Window, error) {
	if err := desc.Validate(); err != nil {
		return Window{}, fmt.Errorf("%w: %v", ErrDegenerateWindow, err)
	}
	w, h := float64(desc.Width), float64(desc.Height)
	if maxSide > 0 {
		k := maxSide / math.Max(w, h)
		w, h = w*k, h*k
	}
	return NewWindow(w, h)
}

// Validate checks that both dimensions are positive and finite
func (w Window) Validate() error {
	if !(w.Width > 0) || !(w.Height > 0) || math.IsInf(w.Width, 0) || math.IsInf(w.Height, 0) {
		return fmt.Errorf("%w: %gx%g", ErrDegenerateWindow, w.Width, w.Height)
	}
	return nil
}

// Bounds returns the window rectangle in layout coordinates
func (w Window) Bounds() Rect {
	return RectFromSize(w.Width, w.Height)
}

// Center returns the window centre, the anchor for interactive scaling
func (w Window) Center() r2.Vec {
	return r2.Vec{X: w.Width / 2, Y: w.Height / 2}
}

// NaturalFitFrame is the aspect-fill placement of an image inside this window
func (w Window) NaturalFitFrame(imageW, imageH float64) (Rect, error) {
	return NaturalFitFrame(imageW, imageH, w.Width, w.Height)
}

// Transformed returns where frame lands on screen for the given scale and translation
func (w Window) Transformed(frame Rect, scale float64, translation r2.Vec) Rect {
	return Transformed(frame, w, scale, translation)
}

// NaturalFitFrame scales an imageW x imageH image so that it covers a
// windowW x windowH window on both axes, preserving aspect ratio, and centres
// it. The overflow lies outside the window on one axis.
func NaturalFitFrame(imageW, imageH, windowW, windowH float64) (Rect, error) {
	if !(imageW > 0) || !(imageH > 0) {
		return Rect{}, fmt.Errorf("%w: image %gx%g", ErrDegenerateWindow, imageW, imageH)
	}
	if !(windowW > 0) || !(windowH > 0) {
		return Rect{}, fmt.Errorf("%w: window %gx%g", ErrDegenerateWindow, windowW, windowH)
	}

	k := math.Max(windowW/imageW, windowH/imageH)
	fw, fh := imageW*k, imageH*k
	x0 := (windowW - fw) / 2
	y0 := (windowH - fh) / 2
	return NewRect(x0, y0, x0+fw, y0+fh), nil
}

// Transformed applies the interactive transform to a natural fit frame:
// scale about the window centre, then translate.
func Transformed(frame Rect, window Window, scale float64, translation r2.Vec) Rect {
	return frame.ScaleAbout(window.Center(), scale).Translate(translation)
}
