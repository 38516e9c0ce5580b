// Package imageio decodes the photos a crop session starts from and encodes
// the committed bitmaps. Decoding and encoding are delegated to imaging and
// the webp codecs; nothing here touches pixels beyond orientation fixes.
package imageio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-cropper/internal/utils"
)

// DefaultQuality is the JPEG/WebP quality used when none is given
const DefaultQuality = 90

// Codec loads and saves images
type Codec struct {
	client *http.Client
}

// New creates a codec with a 30 second download timeout
func New() *Codec {
	return &Codec{client: &http.Client{Timeout: 30 * time.Second}}
}

// LoadFromURL downloads and decodes an image
func (c *Codec) LoadFromURL(imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "image-cropper/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %s", resp.Status)
	}
	if contentType := resp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return Decode(data)
}

// Load opens an image file, applying EXIF orientation so that the photo is
// cropped the way it is displayed
func (c *Codec) Load(path string) (image.Image, error) {
	if img, err := imaging.Open(path, imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadSmart loads an image from either a file path or URL
func (c *Codec) LoadSmart(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return c.LoadFromURL(source)
	}
	return c.Load(source)
}

// Decode decodes image bytes with the registered decoders, then chai2010/webp
func Decode(data []byte) (image.Image, error) {
	if img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// FormatFor returns the output format implied by a path: jpg, png or webp.
// Unknown extensions fall back to png so circle crops keep their transparency.
func FormatFor(path string) string {
	switch ext := utils.GetFileExtension(path); ext {
	case "jpg", "jpeg":
		return "jpg"
	case "webp":
		return "webp"
	default:
		return "png"
	}
}

// Save writes img to path. quality <= 0 uses DefaultQuality; lossless only
// affects webp. JPEG has no alpha channel, so transparent circle corners come
// out black there.
func (c *Codec) Save(img image.Image, path, format string, quality int, lossless bool) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if quality <= 0 {
		quality = DefaultQuality
	}
	if format == "" {
		format = FormatFor(path)
	}

	var enc func(io.Writer) error
	switch strings.ToLower(format) {
	case "webp":
		enc = func(w io.Writer) error {
			return webp.Encode(w, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
		}
	case "png":
		enc = func(w io.Writer) error {
			return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
		}
	case "jpg", "jpeg":
		enc = func(w io.Writer) error {
			return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
		}
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := enc(f); err != nil {
		f.Close()
		return fmt.Errorf("%s encode failed: %w", format, err)
	}
	return f.Close()
}

// EncodeBase64 shrinks img to maxDim on its longer side and encodes it for a
// vision model request
func EncodeBase64(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}
	if quality <= 0 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
