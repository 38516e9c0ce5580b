// Package transform holds the interactive crop transform and the reducer that
// turns gesture events into bounded updates of it.
package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MinScale is the floor for the interactive scale. At 1.0 the image exactly
// fills the window at its natural fit.
const MinScale = 1.0

// State is the transform of one crop session.
//
// RestScale stores the scale above MinScale at the end of the last pinch, so
// a fresh session has RestScale 0. RestTranslation is the translation at the
// end of the last interaction. Both are the baselines for the next gesture.
type State struct {
	Scale           float64
	Translation     r2.Vec
	RestScale       float64
	RestTranslation r2.Vec
}

// Initial returns the state a session starts in
func Initial() State {
	return State{Scale: MinScale}
}

// Snapshot freezes the scale and translation for preview or commit
func (s State) Snapshot() Snapshot {
	return Snapshot{Scale: s.Scale, Translation: s.Translation}
}

// Snapshot is an immutable view of the current scale and translation
type Snapshot struct {
	Scale       float64
	Translation r2.Vec
}

// Identity is the snapshot of a session nobody has touched yet
func Identity() Snapshot {
	return Snapshot{Scale: MinScale}
}

// Valid reports whether the snapshot can be rendered
func (s Snapshot) Valid() bool {
	return s.Scale >= MinScale && !math.IsInf(s.Scale, 0) &&
		!math.IsNaN(s.Translation.X) && !math.IsNaN(s.Translation.Y) &&
		!math.IsInf(s.Translation.X, 0) && !math.IsInf(s.Translation.Y, 0)
}

func (s Snapshot) String() string {
	return fmt.Sprintf("scale=%.3f translation=(%.2f,%.2f)", s.Scale, s.Translation.X, s.Translation.Y)
}
