// Package imaging turns an encoded source image into a bounded JPEG thumbnail.
//
// Resizing follows the common "thumbnail" convention: the image is scaled down
// so that neither side exceeds the bound, aspect ratio is kept, and an image
// that already fits is never enlarged.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxDimension is the bounding box side for thumbnails.
const DefaultMaxDimension = 128

// DefaultJPEGQuality matches the quality most image libraries use when none is given.
const DefaultJPEGQuality = 75

// Decode decodes JPEG, PNG, GIF, WebP, BMP or TIFF data and returns the
// image with its format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image (%d bytes): %w", len(data), err)
	}
	return img, format, nil
}

// FitDimensions returns the size of a width x height image scaled to fit
// within a maxDimension square. Sizes that already fit are returned as is.
// The shorter side is rounded to nearest and never drops below 1.
func FitDimensions(width, height, maxDimension int) (int, int) {
	if width <= maxDimension && height <= maxDimension {
		return width, height
	}

	if width >= height {
		newHeight := int(math.Round(float64(height) * float64(maxDimension) / float64(width)))
		return maxDimension, max(newHeight, 1)
	}

	newWidth := int(math.Round(float64(width) * float64(maxDimension) / float64(height)))
	return max(newWidth, 1), maxDimension
}

// Thumbnail scales img down to fit within maxDimension using Catmull-Rom
// resampling. An image that already fits is returned unchanged.
func Thumbnail(img image.Image, maxDimension int) image.Image {
	bounds := img.Bounds()
	origWidth, origHeight := bounds.Dx(), bounds.Dy()

	newWidth, newHeight := FitDimensions(origWidth, origHeight, maxDimension)
	if newWidth == origWidth && newHeight == origHeight {
		return img
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Src, nil)

	log.Debug().
		Int("orig_width", origWidth).
		Int("orig_height", origHeight).
		Int("new_width", newWidth).
		Int("new_height", newHeight).
		Msg("Image resized")

	return resized
}

// EncodeJPEG encodes img as JPEG at the given quality. JPEG has no alpha
// channel, so translucent pixels are composited onto white first.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}
