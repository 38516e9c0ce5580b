package types

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FullFrame is the box covering the whole image
var FullFrame = Box{X: 0, Y: 0, W: 1, H: 1}

// Center returns the normalized centre of the box
func (b Box) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Empty reports whether the box has no area
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// Subject is the dominant subject a vision model located in an image
type Subject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Detection is the complete answer of the vision model for one image
type Detection struct {
	Subject     Subject `json:"primary"`
	Description string  `json:"description"`
}

// Found reports whether the detection names a real subject
func (d *Detection) Found() bool {
	return d != nil && d.Subject.Label != "none" && !d.Subject.Box.Empty()
}
