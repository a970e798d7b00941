package codec

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/slok/imgconv/internal/model"
)

// Mode is a pixel representation an image can be converted to.
type Mode string

const (
	// ModeRGB is a plain 8 bit per channel representation without alpha.
	ModeRGB Mode = "RGB"
)

// Codec knows how to decode, convert and encode images.
// Decode and encode errors are wrapped with model.ErrCodec.
type Codec interface {
	// Open decodes the image at path.
	Open(ctx context.Context, path string) (image.Image, error)
	// ConvertMode converts the image to a different pixel representation.
	ConvertMode(img image.Image, mode Mode) (image.Image, error)
	// Save encodes img in format f and writes it at path.
	Save(ctx context.Context, img image.Image, path string, f model.Format) error
}

// HasAlphaOrPalette returns true if the image is paletted or its pixel
// representation carries an alpha channel that is in use.
func HasAlphaOrPalette(img image.Image) bool {
	if _, ok := img.(*image.Paletted); ok {
		return true
	}

	// Images that report all their pixels as opaque are RGB in practice.
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}

	return false
}

// ConvertMode converts img to mode.
func ConvertMode(img image.Image, mode Mode) (image.Image, error) {
	switch mode {
	case ModeRGB:
		return Flatten(img), nil
	default:
		return nil, fmt.Errorf("unsupported mode %q: %w", mode, model.ErrCodec)
	}
}

// Flatten drops the alpha channel of img keeping the color channels as they are.
// No background compositing is done, fully transparent pixels usually end up black.
func Flatten(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// PrepareForFormat returns the image that should be encoded for format f.
// JPEG can't hold alpha or palettes, so those images are flattened to RGB.
func PrepareForFormat(c Codec, img image.Image, f model.Format) (image.Image, error) {
	if f != model.FormatJPG || !HasAlphaOrPalette(img) {
		return img, nil
	}

	return c.ConvertMode(img, ModeRGB)
}
