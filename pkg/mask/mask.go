package mask

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// DefaultSize is the output edge length used by the fixed shapes
const DefaultSize = 300

// ErrDegenerateSize is returned when a descriptor has a non-positive dimension
var ErrDegenerateSize = errors.New("mask output size must be positive")

// Shape identifies one of the supported crop shapes
type Shape int

const (
	Circle Shape = iota
	Rectangle
	Square
	Custom
)

func (s Shape) String() string {
	switch s {
	case Circle:
		return "circle"
	case Rectangle:
		return "rectangle"
	case Square:
		return "square"
	case Custom:
		return "custom"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Descriptor describes a crop shape and the pixel size of the committed image.
// The zero value is not valid; use the constructors.
type Descriptor struct {
	Shape  Shape
	Width  int
	Height int
}

// NewCircle returns the circular mask at the default output size
func NewCircle() Descriptor {
	return Descriptor{Shape: Circle, Width: DefaultSize, Height: DefaultSize}
}

// NewRectangle returns the rectangular mask at the default output size
func NewRectangle() Descriptor {
	return Descriptor{Shape: Rectangle, Width: DefaultSize, Height: DefaultSize}
}

// NewSquare returns the square mask at the default output size
func NewSquare() Descriptor {
	return Descriptor{Shape: Square, Width: DefaultSize, Height: DefaultSize}
}

// NewCustom returns an unclipped mask with a caller supplied output size
func NewCustom(width, height int) (Descriptor, error) {
	d := Descriptor{Shape: Custom, Width: width, Height: height}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// DefaultOptions returns the shape menu offered when a photo is picked
func DefaultOptions() []Descriptor {
	return []Descriptor{
		NewCircle(),
		NewSquare(),
		NewRectangle(),
		{Shape: Custom, Width: DefaultSize, Height: DefaultSize},
	}
}

// Parse builds a descriptor from a shape name. Width and height are only
// consulted for custom shapes.
func Parse(name string, width, height int) (Descriptor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "circle":
		return NewCircle(), nil
	case "rectangle", "rect":
		return NewRectangle(), nil
	case "square":
		return NewSquare(), nil
	case "custom":
		return NewCustom(width, height)
	default:
		return Descriptor{}, fmt.Errorf("unknown mask shape: %q", name)
	}
}

// ParseSize parses a "WxH" string. Nothing may follow the height.
func ParseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q (want WxH): %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q (want WxH): %w", s, err)
	}
	return w, h, nil
}

// Validate checks that both output dimensions are positive
func (d Descriptor) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrDegenerateSize, d.Width, d.Height)
	}
	return nil
}

// Name returns the label shown in the shape menu
func (d Descriptor) Name() string {
	switch d.Shape {
	case Circle:
		return "Circle"
	case Rectangle:
		return "Rectangle"
	case Square:
		return "Square"
	case Custom:
		return fmt.Sprintf("Custom %dX%d", d.Width, d.Height)
	default:
		return d.Shape.String()
	}
}

// OutputSize returns the committed image size in pixels
func (d Descriptor) OutputSize() image.Point {
	return image.Pt(d.Width, d.Height)
}

// Aspect returns width / height of the output
func (d Descriptor) Aspect() float64 {
	if d.Height == 0 {
		return 0
	}
	return float64(d.Width) / float64(d.Height)
}

// Clipped reports whether the output is clipped to the inscribed circle
func (d Descriptor) Clipped() bool {
	return d.Shape == Circle
}
