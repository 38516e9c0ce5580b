// Package imagecropper crops photos through a shaped mask the way a user does
// it on screen: pick a mask, drag and pinch the photo inside the mask window,
// release, and commit the visible region as a new bitmap.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		imagecropper "github.com/menta2k/image-cropper"
//		"github.com/menta2k/image-cropper/pkg/mask"
//	)
//
//	func main() {
//		c := imagecropper.New()
//
//		img, err := c.LoadImage("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		s, err := c.Start(mask.NewCircle(), img)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// zoom in and move the photo right, then let go
//		s.PinchChanged(1.5)
//		s.PinchEnded()
//		s.DragChanged(40, 0)
//		s.DragEnded()
//		s.InteractionEnded()
//
//		out, err := s.Commit()
//		if err != nil {
//			log.Fatal(err)
//		}
//		if err := c.SaveImage(out, "photo_circle.png"); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package is a thin facade over its components:
//
//  1. Mask (pkg/mask): shape menu and output sizes
//  2. Geometry (pkg/geometry): crop window and natural fit frame
//  3. Transform (pkg/transform): gesture events and the coverage clamp
//  4. Raster (pkg/raster): deterministic resampling of the visible region
//  5. Session (pkg/session): begin, commit and cancel
//
// Automatic framing (pkg/framing) can seed a session from a subject found by
// a vision model or by the offline saliency detector in pkg/vision.
package imagecropper

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/menta2k/image-cropper/pkg/framing"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/imageio"
	"github.com/menta2k/image-cropper/pkg/mask"
	"github.com/menta2k/image-cropper/pkg/raster"
	"github.com/menta2k/image-cropper/pkg/session"
	"github.com/menta2k/image-cropper/pkg/transform"
)

// Version of the image cropper library
const Version = "1.0.0"

// Config holds configuration for an ImageCropper
type Config struct {
	Filter      string
	DisplaySide float64
	Quality     int
	Lossless    bool
	Logger      *zap.Logger
}

// DefaultConfig returns the configuration used by New
func DefaultConfig() Config {
	return Config{
		Filter:      raster.DefaultFilter,
		DisplaySide: session.DefaultDisplaySide,
		Quality:     imageio.DefaultQuality,
	}
}

// ImageCropper provides a high-level interface for mask cropping
type ImageCropper struct {
	config     Config
	codec      *imageio.Codec
	rasterizer *raster.Rasterizer
	logger     *zap.Logger
}

// New creates a new ImageCropper with default configuration
func New() *ImageCropper {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a new ImageCropper with custom configuration
func NewWithConfig(config Config) *ImageCropper {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageCropper{
		config:     config,
		codec:      imageio.New(),
		rasterizer: raster.NewWithConfig(raster.Config{Filter: config.Filter}),
		logger:     logger,
	}
}

// Options returns the shape menu offered by Begin
func (ic *ImageCropper) Options() []mask.Descriptor {
	return mask.DefaultOptions()
}

// LoadImage loads an image from a file path or URL
func (ic *ImageCropper) LoadImage(source string) (image.Image, error) {
	return ic.codec.LoadSmart(source)
}

// SaveImage saves an image, choosing the format from the file extension
func (ic *ImageCropper) SaveImage(img image.Image, path string) error {
	return ic.codec.Save(img, path, "", ic.config.Quality, ic.config.Lossless)
}

// Begin offers the shape menu through choose and starts a session
func (ic *ImageCropper) Begin(src image.Image, choose session.Chooser, opts ...session.Option) (*session.Session, error) {
	return session.Begin(ic.Options(), src, choose, ic.sessionOptions(opts)...)
}

// Start starts a session for desc
func (ic *ImageCropper) Start(desc mask.Descriptor, src image.Image, opts ...session.Option) (*session.Session, error) {
	return session.Start(desc, src, ic.sessionOptions(opts)...)
}

// CropWith replays events on a fresh session for desc and commits it
func (ic *ImageCropper) CropWith(img image.Image, desc mask.Descriptor, events []transform.Event) (image.Image, error) {
	s, err := ic.Start(desc, img)
	if err != nil {
		return nil, err
	}
	s.ApplyAll(events)
	return s.Commit()
}

// AutoCrop frames the subject found by locator, replays events on top and commits
func (ic *ImageCropper) AutoCrop(ctx context.Context, img image.Image, desc mask.Descriptor, locator framing.Locator, events []transform.Event) (image.Image, error) {
	window, err := geometry.WindowFor(desc, ic.config.DisplaySide)
	if err != nil {
		return nil, err
	}
	initial, _, err := framing.NewFramer(locator, 0, ic.logger).Frame(ctx, img, desc, window)
	if err != nil {
		return nil, fmt.Errorf("auto framing failed: %w", err)
	}

	s, err := ic.Start(desc, img, session.WithInitial(initial))
	if err != nil {
		return nil, err
	}
	s.ApplyAll(events)
	return s.Commit()
}

func (ic *ImageCropper) sessionOptions(extra []session.Option) []session.Option {
	opts := []session.Option{
		session.WithLogger(ic.logger),
		session.WithRasterizer(ic.rasterizer),
		session.WithDisplaySide(ic.config.DisplaySide),
	}
	return append(opts, extra...)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
