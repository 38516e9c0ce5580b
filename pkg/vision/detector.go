package vision

import (
	"context"
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-cropper/pkg/mask"
	"github.com/menta2k/image-cropper/pkg/types"
)

// SubjectDetector finds the most salient region of an image without a model.
// It is the offline locator for automatic framing.
type SubjectDetector struct {
	config DetectionConfig
}

// DetectionConfig holds configuration for subject detection
type DetectionConfig struct {
	// AnalysisSize is the longer side the image is reduced to before scanning
	AnalysisSize int
	// EdgeThreshold is how much a region must beat the image mean, relative
	// to it, before it counts as a subject
	EdgeThreshold   float64
	ContrastWeight  float64
	ColorWeight     float64
	MinSubjectRatio float64
}

// New creates a new SubjectDetector with default configuration
func New() *SubjectDetector {
	return &SubjectDetector{
		config: DetectionConfig{
			AnalysisSize:    160,
			EdgeThreshold:   0.25,
			ContrastWeight:  0.7,
			ColorWeight:     0.3,
			MinSubjectRatio: 0.05,
		},
	}
}

// NewWithConfig creates a new SubjectDetector with custom configuration
func NewWithConfig(config DetectionConfig) *SubjectDetector {
	if config.AnalysisSize <= 0 {
		config.AnalysisSize = 160
	}
	return &SubjectDetector{config: config}
}

// Region represents a rectangular region of interest in analysis pixels
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
	Score  float64
}

// Area returns the area of the region
func (r Region) Area() int {
	return r.Width * r.Height
}

// Locate returns the most salient region with the mask's aspect as a
// normalized box. Flat images report no subject.
func (d *SubjectDetector) Locate(ctx context.Context, img image.Image, desc mask.Descriptor) (*types.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	small := imaging.Fit(img, d.config.AnalysisSize, d.config.AnalysisSize, imaging.Box)
	width, height := small.Bounds().Dx(), small.Bounds().Dy()
	if width < 3 || height < 3 {
		return noSubject(), nil
	}

	sal := d.saliencyTable(small)
	mean := sal.sum(0, 0, width, height) / float64(width*height)
	regions := d.detectSubjects(sal, width, height, desc.Aspect())
	if len(regions) == 0 || mean < 1e-9 {
		return noSubject(), nil
	}

	best := regions[0]
	lift := best.Score/mean - 1
	if lift < d.config.EdgeThreshold {
		return noSubject(), nil
	}

	return &types.Detection{
		Subject: types.Subject{
			Label:      "salient region",
			Confidence: math.Min(1, lift/(1+lift)),
			Box: types.Box{
				X: float64(best.X) / float64(width),
				Y: float64(best.Y) / float64(height),
				W: float64(best.Width) / float64(width),
				H: float64(best.Height) / float64(height),
			},
		},
		Description: "most salient region",
	}, nil
}

// detectSubjects scans windows of the given aspect at several sizes and
// returns them ordered by mean saliency, best first
func (d *SubjectDetector) detectSubjects(sal *integral, width, height int, aspect float64) []Region {
	if aspect <= 0 {
		aspect = 1
	}
	minArea := int(float64(width*height) * d.config.MinSubjectRatio)

	var regions []Region
	for _, f := range []float64{0.25, 0.35, 0.5, 0.7} {
		side := f * float64(min(width, height))
		ww := int(math.Min(float64(width), side*math.Sqrt(aspect)))
		wh := int(math.Min(float64(height), side/math.Sqrt(aspect)))
		if ww < 2 || wh < 2 || ww*wh < minArea {
			continue
		}
		step := max(1, int(side/8))
		for y := 0; y+wh <= height; y += step {
			for x := 0; x+ww <= width; x += step {
				regions = append(regions, Region{
					X: x, Y: y, Width: ww, Height: wh,
					Score: sal.sum(x, y, x+ww, y+wh) / float64(ww*wh),
				})
			}
		}
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Score > regions[j].Score
	})
	return regions
}

// saliencyTable scores each interior pixel by its colour distance to the
// eight neighbours and its brightness deviation from the image mean
func (d *SubjectDetector) saliencyTable(img *image.NRGBA) *integral {
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	lum := make([]float64, width*height)
	var total float64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.NRGBAAt(x, y)
			l := (float64(c.R) + float64(c.G) + float64(c.B)) / (3 * 255)
			lum[y*width+x] = l
			total += l
		}
	}
	meanLum := total / float64(len(lum))

	neighbors := [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	sal := newIntegral(width, height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			c := img.NRGBAAt(x, y)
			var edge float64
			for _, o := range neighbors {
				n := img.NRGBAAt(x+o[0], y+o[1])
				dr := float64(c.R) - float64(n.R)
				dg := float64(c.G) - float64(n.G)
				db := float64(c.B) - float64(n.B)
				edge += math.Sqrt(dr*dr + dg*dg + db*db)
			}
			edge /= 8 * 255 * math.Sqrt(3)

			dev := math.Abs(lum[y*width+x] - meanLum)
			sal.set(x, y, d.config.ContrastWeight*edge+d.config.ColorWeight*dev)
		}
	}
	sal.build()
	return sal
}

func noSubject() *types.Detection {
	return &types.Detection{
		Subject:     types.Subject{Label: "none", Box: types.FullFrame},
		Description: "no salient region",
	}
}

// integral is a summed-area table over a width x height grid
type integral struct {
	width, height int
	v             []float64
}

func newIntegral(width, height int) *integral {
	return &integral{width: width, height: height, v: make([]float64, (width+1)*(height+1))}
}

func (t *integral) set(x, y int, value float64) {
	t.v[(y+1)*(t.width+1)+x+1] = value
}

func (t *integral) build() {
	stride := t.width + 1
	for y := 1; y <= t.height; y++ {
		for x := 1; x <= t.width; x++ {
			i := y*stride + x
			t.v[i] += t.v[i-1] + t.v[i-stride] - t.v[i-stride-1]
		}
	}
}

// sum returns the total over [x0,x1) x [y0,y1)
func (t *integral) sum(x0, y0, x1, y1 int) float64 {
	stride := t.width + 1
	return t.v[y1*stride+x1] - t.v[y0*stride+x1] - t.v[y1*stride+x0] + t.v[y0*stride+x0]
}
