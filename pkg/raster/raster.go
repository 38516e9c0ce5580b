package raster

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/mask"
	"github.com/menta2k/image-cropper/pkg/transform"
)

var (
	// ErrNoSourceImage is returned when there is no decoded image to crop
	ErrNoSourceImage = errors.New("no source image")
	// ErrRasterization is returned when reading or resampling pixels fails
	ErrRasterization = errors.New("rasterization failed")
)

// DefaultFilter is the resampling filter used when none is configured
const DefaultFilter = "catmullrom"

// Rasterizer renders the visible part of a transformed image into a bitmap
// of the mask's output size
type Rasterizer struct {
	config Config
	interp draw.Interpolator
}

// Config holds configuration for rasterization
type Config struct {
	// Filter is one of nearest, approxbilinear, bilinear or catmullrom
	Filter string
}

// New creates a Rasterizer with the default filter
func New() *Rasterizer {
	return NewWithConfig(Config{Filter: DefaultFilter})
}

// NewWithConfig creates a Rasterizer with custom configuration. An unknown
// filter falls back to DefaultFilter.
func NewWithConfig(config Config) *Rasterizer {
	interp, err := ParseFilter(config.Filter)
	if err != nil {
		config.Filter = DefaultFilter
		interp = draw.CatmullRom
	}
	return &Rasterizer{config: config, interp: interp}
}

// ParseFilter maps a filter name to an interpolator
func ParseFilter(name string) (draw.Interpolator, error) {
	switch strings.ToLower(name) {
	case "nearest", "nearestneighbor":
		return draw.NearestNeighbor, nil
	case "approxbilinear":
		return draw.ApproxBiLinear, nil
	case "bilinear", "linear":
		return draw.BiLinear, nil
	case "catmullrom", "", "cubic":
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown resample filter: %q", name)
	}
}

// Filter returns the configured filter name
func (r *Rasterizer) Filter() string {
	return r.config.Filter
}

// Render maps src through the natural fit frame and the snapshot, samples the
// part that falls inside window and resamples it to desc's output size.
// Circle masks clear every pixel outside the inscribed circle.
func (r *Rasterizer) Render(src image.Image, snap transform.Snapshot, window geometry.Window, desc mask.Descriptor) (out *image.RGBA, err error) {
	if _, ok := SourceBounds(src); !ok {
		return nil, ErrNoSourceImage
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", geometry.ErrDegenerateWindow, err)
	}
	if !snap.Valid() {
		return nil, fmt.Errorf("%w: invalid transform %s", ErrRasterization, snap)
	}

	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrRasterization, p)
		}
	}()

	pix := normalize(src)
	b := pix.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty source image", geometry.ErrDegenerateWindow)
	}

	s2d, err := sourceToOutput(b.Dx(), b.Dy(), snap, window, desc)
	if err != nil {
		return nil, err
	}

	outRect := image.Rect(0, 0, desc.Width, desc.Height)
	dst := image.NewRGBA(outRect)
	r.interp.Transform(dst, s2d, pix, b, draw.Src, nil)

	if desc.Clipped() {
		clipped := image.NewRGBA(outRect)
		draw.DrawMask(clipped, outRect, dst, image.Point{}, newCircle(outRect), image.Point{}, draw.Src)
		dst = clipped
	}
	return dst, nil
}

// SourceBounds returns the bounds of src. ok is false when there is no image:
// src is nil, or a typed nil pointer whose Bounds panics.
func SourceBounds(src image.Image) (b image.Rectangle, ok bool) {
	if src == nil {
		return image.Rectangle{}, false
	}
	defer func() {
		if recover() != nil {
			b, ok = image.Rectangle{}, false
		}
	}()
	return src.Bounds(), true
}

// VisibleRegion returns the rectangle of source pixels that window shows for
// the given snapshot. It is the region the committed bitmap is sampled from.
func VisibleRegion(srcW, srcH int, snap transform.Snapshot, window geometry.Window) (geometry.Rect, error) {
	frame, err := window.NaturalFitFrame(float64(srcW), float64(srcH))
	if err != nil {
		return geometry.Rect{}, err
	}
	onScreen := window.Transformed(frame, snap.Scale, snap.Translation)
	kx := float64(srcW) / onScreen.Width()
	ky := float64(srcH) / onScreen.Height()
	win := window.Bounds()
	return geometry.NewRect(
		(win.Min.X-onScreen.Min.X)*kx, (win.Min.Y-onScreen.Min.Y)*ky,
		(win.Max.X-onScreen.Min.X)*kx, (win.Max.Y-onScreen.Min.Y)*ky,
	), nil
}

// normalize copies src into an NRGBA buffer anchored at the origin. The
// standard library image types go through imaging's parallel scanner; any
// other implementation is read on the calling goroutine so a panicking At
// surfaces as ErrRasterization.
func normalize(src image.Image) *image.NRGBA {
	switch src.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64,
		*image.YCbCr, *image.Gray, *image.Gray16, *image.Paletted:
		return imaging.Clone(src)
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// sourceToOutput builds the affine that carries source pixel coordinates to
// output pixel coordinates: source -> natural fit frame -> interactive
// transform -> window -> output.
func sourceToOutput(srcW, srcH int, snap transform.Snapshot, window geometry.Window, desc mask.Descriptor) (f64.Aff3, error) {
	frame, err := window.NaturalFitFrame(float64(srcW), float64(srcH))
	if err != nil {
		return f64.Aff3{}, err
	}
	onScreen := window.Transformed(frame, snap.Scale, snap.Translation)

	ox := float64(desc.Width) / window.Width
	oy := float64(desc.Height) / window.Height
	return f64.Aff3{
		ox * onScreen.Width() / float64(srcW), 0, ox * onScreen.Min.X,
		0, oy * onScreen.Height() / float64(srcH), oy * onScreen.Min.Y,
	}, nil
}
