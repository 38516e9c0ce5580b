package geometry

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rect is an axis-aligned rectangle in layout units
type Rect struct {
	r2.Box
}

// NewRect returns the rectangle spanning (x0,y0)-(x1,y1)
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{r2.NewBox(x0, y0, x1, y1)}
}

// RectFromSize returns a rectangle at the origin with the given size
func RectFromSize(w, h float64) Rect {
	return NewRect(0, 0, w, h)
}

// Width returns the horizontal extent
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Translate moves the rectangle by v
func (r Rect) Translate(v r2.Vec) Rect {
	return Rect{r.Box.Add(v)}
}

// ScaleAbout scales the rectangle uniformly about the point c
func (r Rect) ScaleAbout(c r2.Vec, s float64) Rect {
	return Rect{r2.Box{
		Min: r2.Add(c, r2.Scale(s, r2.Sub(r.Min, c))),
		Max: r2.Add(c, r2.Scale(s, r2.Sub(r.Max, c))),
	}.Canon()}
}

// Covers reports whether r fully contains other, allowing eps of slack on
// every edge for floating point noise.
func (r Rect) Covers(other Rect, eps float64) bool {
	return r.Min.X <= other.Min.X+eps &&
		r.Min.Y <= other.Min.Y+eps &&
		r.Max.X >= other.Max.X-eps &&
		r.Max.Y >= other.Max.Y-eps
}

// Image rounds the rectangle outward to integer pixel bounds
func (r Rect) Image() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.Min.X)), int(math.Floor(r.Min.Y)),
		int(math.Ceil(r.Max.X)), int(math.Ceil(r.Max.Y)),
	)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.2f,%.2f)-(%.2f,%.2f)", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
}
