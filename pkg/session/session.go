// Package session drives one crop session: a mask is chosen for a decoded
// image, gesture events update the transform, and the session ends with a
// commit that produces the cropped bitmap or a cancel that produces nothing.
package session

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"

	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/mask"
	"github.com/menta2k/image-cropper/pkg/raster"
	"github.com/menta2k/image-cropper/pkg/transform"
)

// DefaultDisplaySide is the longest edge of the on-screen window, in layout units
const DefaultDisplaySide = 300

var (
	// ErrSessionClosed is returned by Commit after the session was committed or cancelled
	ErrSessionClosed = errors.New("crop session closed")
	// ErrNoOptions is returned by Begin when the shape menu is empty
	ErrNoOptions = errors.New("no mask options")
)

// Chooser presents the shape menu and returns the index picked
type Chooser interface {
	Choose(options []mask.Descriptor) (int, error)
}

// ChooserFunc adapts a function to Chooser
type ChooserFunc func(options []mask.Descriptor) (int, error)

// Choose calls f
func (f ChooserFunc) Choose(options []mask.Descriptor) (int, error) {
	return f(options)
}

// Haptics receives a pulse whenever a release snaps the image back
type Haptics interface {
	Pulse()
}

// Session is a single crop session. Its methods are safe to call from
// several goroutines, but events are expected from one interaction thread
// in order.
type Session struct {
	mu sync.Mutex

	desc    mask.Descriptor
	window  geometry.Window
	src     image.Image
	reducer transform.Reducer
	state   transform.State
	closed  bool

	rasterizer *raster.Rasterizer
	haptics    Haptics
	logger     *zap.Logger
}

type options struct {
	logger      *zap.Logger
	rasterizer  *raster.Rasterizer
	haptics     Haptics
	displaySide float64
	initial     *transform.State
}

// Option configures a Session
type Option func(*options)

// WithLogger sets the logger; the default discards everything
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRasterizer sets the rasterizer used on commit
func WithRasterizer(r *raster.Rasterizer) Option {
	return func(o *options) { o.rasterizer = r }
}

// WithHaptics sets the receiver of snap-back pulses
func WithHaptics(h Haptics) Option {
	return func(o *options) { o.haptics = h }
}

// WithDisplaySide sets the longest edge of the on-screen window. Zero or
// less uses the mask's output pixel size as the window.
func WithDisplaySide(side float64) Option {
	return func(o *options) { o.displaySide = side }
}

// WithInitial starts the session from s instead of the identity transform.
// The state is clamped before use.
func WithInitial(s transform.State) Option {
	return func(o *options) { o.initial = &s }
}

// Begin offers the shape menu through choose and starts a session with the
// picked descriptor.
func Begin(options []mask.Descriptor, src image.Image, choose Chooser, opts ...Option) (*Session, error) {
	if len(options) == 0 {
		return nil, ErrNoOptions
	}
	i, err := choose.Choose(options)
	if err != nil {
		return nil, fmt.Errorf("mask selection failed: %w", err)
	}
	if i < 0 || i >= len(options) {
		return nil, fmt.Errorf("mask selection out of range: %d of %d", i, len(options))
	}
	return Start(options[i], src, opts...)
}

// Start begins a session for desc without presenting a menu. src may be nil
// or a nil pointer, in which case gestures are accepted but Commit fails with
// raster.ErrNoSourceImage.
func Start(desc mask.Descriptor, src image.Image, opts ...Option) (*Session, error) {
	o := options{displaySide: DefaultDisplaySide}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.rasterizer == nil {
		o.rasterizer = raster.New()
	}

	window, err := geometry.WindowFor(desc, o.displaySide)
	if err != nil {
		return nil, err
	}
	b, present := raster.SourceBounds(src)
	if !present {
		src = nil
	}

	s := &Session{
		desc:       desc,
		window:     window,
		src:        src,
		state:      transform.Initial(),
		rasterizer: o.rasterizer,
		haptics:    o.haptics,
		logger:     o.logger.With(zap.String("mask", desc.Name())),
	}

	// Without an image the window itself stands in as the frame so the
	// reducer still has something to clamp against.
	s.reducer = transform.Reducer{Window: window, Frame: window.Bounds()}
	if present && !b.Empty() {
		s.reducer, err = transform.NewReducer(window, float64(b.Dx()), float64(b.Dy()))
		if err != nil {
			return nil, err
		}
	}

	if o.initial != nil {
		st := *o.initial
		if !(st.Scale >= transform.MinScale) {
			st.Scale = transform.MinScale
		}
		if !st.Snapshot().Valid() {
			st = transform.Initial()
		}
		st = s.reducer.Clamp(st)
		st.RestScale = st.Scale - transform.MinScale
		st.RestTranslation = st.Translation
		s.state = st
	}

	s.logger.Debug("crop session started",
		zap.Float64("window_width", window.Width),
		zap.Float64("window_height", window.Height),
		zap.Bool("has_image", present),
	)
	return s, nil
}

// Mask returns the session's descriptor
func (s *Session) Mask() mask.Descriptor {
	return s.desc
}

// Window returns the on-screen crop window
func (s *Session) Window() geometry.Window {
	return s.window
}

// NaturalFitFrame returns the aspect-fill placement of the image in the window
func (s *Session) NaturalFitFrame() geometry.Rect {
	return s.reducer.Frame
}

// Preview returns the transform to display right now
func (s *Session) Preview() transform.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// State returns a copy of the full transform state, rest values included
func (s *Session) State() transform.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Closed reports whether the session was committed or cancelled
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Apply feeds one gesture event to the reducer. Events after the session
// closed are ignored.
func (s *Session) Apply(ev transform.Event) transform.Correction {
	s.mu.Lock()
	if s.closed {
		snap := s.state.Snapshot()
		s.mu.Unlock()
		return transform.Correction{Before: snap, After: snap}
	}
	var c transform.Correction
	s.state, c = s.reducer.Reduce(s.state, ev)
	s.mu.Unlock()

	if c.Moved() {
		s.logger.Debug("snapped back",
			zap.Stringer("from", c.Before),
			zap.Stringer("to", c.After),
			zap.Bool("horizontal", c.Axes&transform.Horizontal != 0),
			zap.Bool("vertical", c.Axes&transform.Vertical != 0),
		)
		if s.haptics != nil {
			s.haptics.Pulse()
		}
	}
	return c
}

// ApplyAll feeds events in order and returns the correction of the last one
func (s *Session) ApplyAll(events []transform.Event) transform.Correction {
	last := transform.Correction{Before: s.Preview(), After: s.Preview()}
	for _, ev := range events {
		last = s.Apply(ev)
	}
	return last
}

// DragChanged reports the drag offset since the drag began
func (s *Session) DragChanged(dx, dy float64) {
	s.Apply(transform.DragChanged{DX: dx, DY: dy})
}

// DragEnded reports the release of the drag
func (s *Session) DragEnded() {
	s.Apply(transform.DragEnded{})
}

// PinchChanged reports the magnification since the pinch began
func (s *Session) PinchChanged(magnification float64) {
	s.Apply(transform.PinchChanged{Magnification: magnification})
}

// PinchEnded reports the release of the pinch
func (s *Session) PinchEnded() {
	s.Apply(transform.PinchEnded{})
}

// InteractionEnded clamps the transform once all gestures are released
func (s *Session) InteractionEnded() transform.Correction {
	return s.Apply(transform.InteractionEnded{})
}

// Commit rasterizes the visible region and closes the session. It returns
// the bitmap on success; any failure is reported once and the session is
// closed regardless.
func (s *Session) Commit() (image.Image, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.closed = true
	snap := s.state.Snapshot()
	src := s.src
	s.mu.Unlock()

	out, err := s.rasterizer.Render(src, snap, s.window, s.desc)
	if err != nil {
		s.logger.Warn("crop failed", zap.Stringer("transform", snap), zap.Error(err))
		return nil, fmt.Errorf("commit crop: %w", err)
	}

	s.logger.Info("crop committed",
		zap.Stringer("transform", snap),
		zap.Int("width", out.Bounds().Dx()),
		zap.Int("height", out.Bounds().Dy()),
	)
	return out, nil
}

// Cancel discards the session without producing output. It is safe to call
// more than once.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.src = nil
	s.state = transform.Initial()
	s.logger.Debug("crop session cancelled")
}
