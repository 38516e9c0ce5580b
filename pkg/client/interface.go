package client

import (
	"context"

	"github.com/menta2k/image-cropper/pkg/types"
)

// VisionClient is a vision model backend able to look at an encoded image
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	LocateSubject(ctx context.Context, model, prompt, imgB64 string) (*types.Detection, error)
}
