package raster

import (
	"image"
	"image/color"
	"math"
)

// circle is an alpha mask that is opaque inside the circle inscribed in
// bounds and transparent elsewhere. Pixels are tested at their centres.
type circle struct {
	bounds image.Rectangle
	cx, cy float64
	r2     float64
}

func newCircle(bounds image.Rectangle) *circle {
	d := math.Min(float64(bounds.Dx()), float64(bounds.Dy()))
	return &circle{
		bounds: bounds,
		cx:     float64(bounds.Min.X) + float64(bounds.Dx())/2,
		cy:     float64(bounds.Min.Y) + float64(bounds.Dy())/2,
		r2:     (d / 2) * (d / 2),
	}
}

func (c *circle) ColorModel() color.Model {
	return color.AlphaModel
}

func (c *circle) Bounds() image.Rectangle {
	return c.bounds
}

func (c *circle) At(x, y int) color.Color {
	if c.Inside(x, y) {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}

// Inside reports whether the centre of pixel (x, y) lies in the circle
func (c *circle) Inside(x, y int) bool {
	dx := float64(x) + 0.5 - c.cx
	dy := float64(y) + 0.5 - c.cy
	return dx*dx+dy*dy <= c.r2
}
