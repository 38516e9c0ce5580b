package detection

import (
	"context"
	"fmt"
	"strings"

	"github.com/menta2k/image-cropper/pkg/client"
	"github.com/menta2k/image-cropper/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// promptTemplate asks for the subject that a crop of the given shape should keep
const promptTemplate = `You are helping frame a photo inside a %s crop mask with aspect ratio %.3f (width / height).

Return JSON only:
{
  "primary": {
    "label": "string",
    "confidence": 0.0,
    "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
  },
  "description": "short neutral sentence (<= 20 words)"
}

RULES
- Coordinates are normalized to [0,1] (NOT pixels); x,y is the top-left corner.
- The box should tightly include the subject the crop must keep (prefer faces, people, animals, vehicles; else the most salient object).
- For a circle mask prefer a head-and-shoulders box when a person is present.
- If no subject is found, return:
  {"primary":{"label":"none","confidence":0.0,"box":{"x":0.0,"y":0.0,"w":1.0,"h":1.0}},"description":"no subject"}
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// MinConfidence below which a detection is treated as no subject
const MinConfidence = 0.2

// Prompt builds the locator prompt for a mask shape and aspect
func Prompt(shape string, aspect float64) string {
	return fmt.Sprintf(promptTemplate, strings.ToLower(shape), aspect)
}

// Detector locates the subject a crop should keep using a vision model
type Detector struct {
	client client.VisionClient
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient) *Detector {
	return &Detector{client: client}
}

// DetectSubject asks the model for the subject to keep inside a mask of the
// given shape and aspect
func (d *Detector) DetectSubject(ctx context.Context, model, imageB64, shape string, aspect float64) (*types.Detection, error) {
	return d.DetectSubjectWithPrompt(ctx, model, imageB64, Prompt(shape, aspect))
}

// DetectSubjectWithPrompt analyzes an image with a custom prompt
func (d *Detector) DetectSubjectWithPrompt(ctx context.Context, model, imageB64, prompt string) (*types.Detection, error) {
	result, err := d.client.LocateSubject(ctx, model, prompt, imageB64)
	if err != nil {
		return nil, fmt.Errorf("subject detection failed: %w", err)
	}

	result.Subject.Box = normalizeBox(result.Subject.Box)
	return validate(result), nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, model, imageB64 string) (string, error) {
	return d.client.SimpleQuery(ctx, model, SimpleTestPrompt, imageB64)
}

// validate marks unreliable answers as "none" with a full-frame box
func validate(result *types.Detection) *types.Detection {
	label := strings.ToLower(strings.TrimSpace(result.Subject.Label))
	if label == "none" {
		result.Subject = none()
		return result
	}

	if result.Subject.Confidence < MinConfidence || result.Subject.Box.Empty() {
		result.Subject = none()
		return result
	}

	fallbackIndicators := []string{"unclear", "empty", "parse", "error", "fallback", "non-json"}
	for _, indicator := range fallbackIndicators {
		if strings.Contains(label, indicator) ||
			strings.Contains(strings.ToLower(result.Description), indicator) {
			result.Subject = none()
			break
		}
	}
	return result
}

func none() types.Subject {
	return types.Subject{Label: "none", Box: types.FullFrame}
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox keeps the box inside the unit square
func normalizeBox(b types.Box) types.Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}
