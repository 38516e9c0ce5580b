package imageio

import "image"

// Info contains basic image metadata
type Info struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

// Describe returns basic information about an image. An image without rows
// reports an aspect ratio of zero.
func Describe(img image.Image) Info {
	b := img.Bounds()
	info := Info{Width: b.Dx(), Height: b.Dy(), Area: b.Dx() * b.Dy()}
	if info.Height > 0 {
		info.AspectRatio = float64(info.Width) / float64(info.Height)
	}
	return info
}
