// Package animation interpolates the snap-back that follows an interaction.
// It only shapes the presentation; the clamped target comes from the reducer.
package animation

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/menta2k/image-cropper/pkg/transform"
)

// DefaultDuration matches the short ease used when an edge is pulled back
const DefaultDuration = 200 * time.Millisecond

// Snapback animates from the released transform to the clamped one
type Snapback struct {
	From     transform.Snapshot
	To       transform.Snapshot
	Duration time.Duration
}

// FromCorrection builds the animation for a reducer correction. A zero
// duration uses DefaultDuration.
func FromCorrection(c transform.Correction, d time.Duration) Snapback {
	if d <= 0 {
		d = DefaultDuration
	}
	return Snapback{From: c.Before, To: c.After, Duration: d}
}

// At returns the snapshot to display after elapsed time. Once the duration
// has passed it returns To exactly.
func (s Snapback) At(elapsed time.Duration) transform.Snapshot {
	if s.Duration <= 0 || elapsed >= s.Duration {
		return s.To
	}
	if elapsed <= 0 {
		return s.From
	}
	p := EaseInOut(float64(elapsed) / float64(s.Duration))
	return transform.Snapshot{
		Scale: s.From.Scale + (s.To.Scale-s.From.Scale)*p,
		Translation: r2.Add(s.From.Translation,
			r2.Scale(p, r2.Sub(s.To.Translation, s.From.Translation))),
	}
}

// Done reports whether the animation has finished at elapsed
func (s Snapback) Done(elapsed time.Duration) bool {
	return elapsed >= s.Duration
}

// Frames samples the animation at the given frame rate, ending on To
func (s Snapback) Frames(fps int) []transform.Snapshot {
	if fps <= 0 || s.Duration <= 0 {
		return []transform.Snapshot{s.To}
	}
	step := time.Second / time.Duration(fps)
	var out []transform.Snapshot
	for t := step; t < s.Duration; t += step {
		out = append(out, s.At(t))
	}
	return append(out, s.To)
}

// EaseInOut is a cubic ease-in-out curve on [0,1]
func EaseInOut(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < 0.5:
		return 4 * t * t * t
	default:
		u := -2*t + 2
		return 1 - u*u*u/2
	}
}
