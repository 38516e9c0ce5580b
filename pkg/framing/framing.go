// Package framing seeds a crop session from a located subject: the transform
// is chosen so the subject sits in the middle of the mask window at a zoom
// that keeps it whole, and is then clamped so the image still covers the window.
package framing

import (
	"context"
	"fmt"
	"image"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/menta2k/image-cropper/pkg/detection"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/imageio"
	"github.com/menta2k/image-cropper/pkg/mask"
	"github.com/menta2k/image-cropper/pkg/raster"
	"github.com/menta2k/image-cropper/pkg/transform"
	"github.com/menta2k/image-cropper/pkg/types"
)

const (
	// DefaultMaxScale bounds the zoom an automatic framing may pick
	DefaultMaxScale = 4.0
	// DefaultFill is the share of the window the subject's longer side may occupy
	DefaultFill = 0.8
)

// Suggest returns the transform that centres box in the window. frame is the
// natural fit of the image and box is normalized to the image. The scale is
// capped at maxScale (DefaultMaxScale when below 1) and never drops below 1.
func Suggest(frame geometry.Rect, window geometry.Window, box types.Box, maxScale float64) transform.State {
	if maxScale < transform.MinScale {
		maxScale = DefaultMaxScale
	}
	if box.Empty() {
		return transform.Initial()
	}

	subject := geometry.NewRect(
		frame.Min.X+box.X*frame.Width(), frame.Min.Y+box.Y*frame.Height(),
		frame.Min.X+(box.X+box.W)*frame.Width(), frame.Min.Y+(box.Y+box.H)*frame.Height(),
	)

	scale := DefaultFill * math.Min(window.Width/subject.Width(), window.Height/subject.Height())
	scale = math.Max(transform.MinScale, math.Min(scale, maxScale))

	// A point p lands at c + scale*(p-c) + t; pick t so the subject centre lands on c.
	c := window.Center()
	t := r2.Scale(-scale, r2.Sub(subject.Center(), c))

	r := transform.Reducer{Window: window, Frame: frame}
	s := r.Clamp(transform.State{Scale: scale, Translation: t})
	s.RestScale = s.Scale - transform.MinScale
	s.RestTranslation = s.Translation
	return s
}

// Locator finds the subject a crop of desc should keep
type Locator interface {
	Locate(ctx context.Context, img image.Image, desc mask.Descriptor) (*types.Detection, error)
}

// ModelConfig holds configuration for model-based locating
type ModelConfig struct {
	Model   string
	MaxDim  int
	Quality int
}

// DefaultModelConfig returns the settings used by the CLI
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Model:   "llava:13b",
		MaxDim:  768,
		Quality: 85,
	}
}

// ModelLocator locates subjects with a vision model behind a detection.Detector
type ModelLocator struct {
	detector *detection.Detector
	config   ModelConfig
}

// NewModelLocator creates a locator that sends a downscaled JPEG to the model
func NewModelLocator(detector *detection.Detector, config ModelConfig) *ModelLocator {
	return &ModelLocator{detector: detector, config: config}
}

// Locate encodes img and asks the model for the subject
func (m *ModelLocator) Locate(ctx context.Context, img image.Image, desc mask.Descriptor) (*types.Detection, error) {
	imgB64, err := imageio.EncodeBase64(img, "jpg", m.config.MaxDim, m.config.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare image: %w", err)
	}
	return m.detector.DetectSubject(ctx, m.config.Model, imgB64, desc.Shape.String(), desc.Aspect())
}

// Framer turns a located subject into the initial transform of a session
type Framer struct {
	locator  Locator
	maxScale float64
	logger   *zap.Logger
}

// NewFramer creates a framer. A nil logger discards output; maxScale below 1
// uses DefaultMaxScale.
func NewFramer(locator Locator, maxScale float64, logger *zap.Logger) *Framer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxScale < transform.MinScale {
		maxScale = DefaultMaxScale
	}
	return &Framer{locator: locator, maxScale: maxScale, logger: logger}
}

// Frame locates the subject of img and returns the transform that frames it
// inside window. When no subject is found the identity is returned; without
// an image it fails with raster.ErrNoSourceImage.
func (f *Framer) Frame(ctx context.Context, img image.Image, desc mask.Descriptor, window geometry.Window) (transform.State, *types.Detection, error) {
	b, ok := raster.SourceBounds(img)
	if !ok {
		return transform.State{}, nil, raster.ErrNoSourceImage
	}
	frame, err := window.NaturalFitFrame(float64(b.Dx()), float64(b.Dy()))
	if err != nil {
		return transform.State{}, nil, err
	}

	det, err := f.locator.Locate(ctx, img, desc)
	if err != nil {
		return transform.State{}, nil, err
	}
	if !det.Found() {
		f.logger.Info("no subject found, keeping natural fit", zap.String("description", det.Description))
		return transform.Initial(), det, nil
	}

	s := Suggest(frame, window, det.Subject.Box, f.maxScale)
	f.logger.Info("subject framed",
		zap.String("label", det.Subject.Label),
		zap.Float64("confidence", det.Subject.Confidence),
		zap.Stringer("transform", s.Snapshot()),
	)
	return s, det, nil
}
