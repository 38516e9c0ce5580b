package imageio

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/types"
)

var (
	gold  = color.NRGBA{255, 204, 0, 255}   // visible region
	white = color.NRGBA{255, 255, 255, 160} // thirds
	green = color.NRGBA{0, 255, 0, 255}     // detected subject
)

// GridOverlay draws the region a crop will keep onto a copy of src, with a
// rule-of-thirds grid inside it. visible is in source pixel coordinates as
// returned by raster.VisibleRegion. A non-nil subject box is drawn too.
func GridOverlay(src image.Image, visible geometry.Rect, subject *types.Box) *image.NRGBA {
	nrgba := imaging.Clone(src)
	w, h := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()
	stroke := int(math.Max(2, 0.004*float64(min(w, h))))

	r := visible.Image()
	for s := 0; s < stroke; s++ {
		drawRect(nrgba, r.Min.X+s, r.Min.Y+s, r.Max.X-1-s, r.Max.Y-1-s, gold)
	}
	for i := 1; i < 3; i++ {
		x := r.Min.X + r.Dx()*i/3
		y := r.Min.Y + r.Dy()*i/3
		drawVLine(nrgba, x, r.Min.Y, r.Max.Y, white)
		drawHLine(nrgba, y, r.Min.X, r.Max.X, white)
	}

	if subject != nil && !subject.Empty() {
		x0, y0, x1, y1 := boxToPixels(*subject, w, h)
		for s := 0; s < stroke; s++ {
			drawRect(nrgba, x0+s, y0+s, x1-1-s, y1-1-s, green)
		}
	}
	return nrgba
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boxToPixels(box types.Box, w, h int) (int, int, int, int) {
	x0 := int(clamp(box.X, 0, 1)*float64(w) + 0.5)
	y0 := int(clamp(box.Y, 0, 1)*float64(h) + 0.5)
	x1 := int(clamp(box.X+box.W, 0, 1)*float64(w) + 0.5)
	y1 := int(clamp(box.Y+box.H, 0, 1)*float64(h) + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, y0, x1, y1
}

// drawRect outlines the inclusive rectangle x0,y0..x1,y1
func drawRect(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	if x1 < x0 || y1 < y0 {
		return
	}
	drawHLine(img, y0, x0, x1+1, c)
	drawHLine(img, y1, x0, x1+1, c)
	drawVLine(img, x0, y0, y1+1, c)
	drawVLine(img, x1, y0, y1+1, c)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0, x1 = max(x0, 0), min(x1, img.Bounds().Dx())
	for x := x0; x < x1; x++ {
		blend(img, x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0, y1 = max(y0, 0), min(y1, img.Bounds().Dy())
	for y := y0; y < y1; y++ {
		blend(img, x, y, c)
	}
}

// blend paints c over the pixel at x,y using c's alpha
func blend(img *image.NRGBA, x, y int, c color.NRGBA) {
	i := img.PixOffset(x, y)
	a := uint32(c.A)
	mix := func(dst, src uint8) uint8 {
		return uint8((uint32(src)*a + uint32(dst)*(255-a)) / 255)
	}
	img.Pix[i+0] = mix(img.Pix[i+0], c.R)
	img.Pix[i+1] = mix(img.Pix[i+1], c.G)
	img.Pix[i+2] = mix(img.Pix[i+2], c.B)
	img.Pix[i+3] = 255
}
