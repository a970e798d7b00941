package native

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	ico "github.com/sergeymakinen/go-ico"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/slok/imgconv/internal/codec"
	"github.com/slok/imgconv/internal/log"
	"github.com/slok/imgconv/internal/model"
)

// maxICOSize is the biggest width and height an ICO entry can hold.
const maxICOSize = 256

// CodecConfig is the configuration for the native codec.
type CodecConfig struct {
	Logger log.Logger
}

func (c *CodecConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "codec.Native"})
	return nil
}

// Codec is a pure Go codec.Codec implementation.
type Codec struct {
	logger log.Logger
}

// NewCodec returns a new native codec.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Codec{logger: cfg.Logger}, nil
}

// Open decodes the image at path. The format is detected from the content.
func (c *Codec) Open(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %s: %w", err, model.ErrCodec)
	}

	c.logger.Debugf("Decoded %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// ConvertMode converts the image pixel representation.
func (c *Codec) ConvertMode(img image.Image, mode codec.Mode) (image.Image, error) {
	return codec.ConvertMode(img, mode)
}

// Save encodes img in format f at path. A partially written file is removed on error.
func (c *Codec) Save(ctx context.Context, img image.Image, path string, f model.Format) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create output file: %s: %w", err, model.ErrCodec)
	}
	defer func() {
		cerr := file.Close()
		if err == nil && cerr != nil {
			err = fmt.Errorf("could not close output file: %s: %w", cerr, model.ErrCodec)
		}
		if err != nil {
			if rerr := os.Remove(path); rerr != nil && !os.IsNotExist(rerr) {
				c.logger.Warningf("could not remove partial output %s: %s", path, rerr)
			}
		}
	}()

	w := bufio.NewWriter(file)
	if err := encode(w, img, f); err != nil {
		return fmt.Errorf("could not encode image as %s: %s: %w", f, err, model.ErrCodec)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("could not write output file: %s: %w", err, model.ErrCodec)
	}

	c.logger.Debugf("Encoded %s", path)
	return nil
}

func encode(w io.Writer, img image.Image, f model.Format) error {
	switch f {
	case model.FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case model.FormatJPG:
		return imaging.Encode(w, img, imaging.JPEG)
	case model.FormatGIF:
		return imaging.Encode(w, img, imaging.GIF)
	case model.FormatBMP:
		return imaging.Encode(w, img, imaging.BMP)
	case model.FormatTIFF:
		return imaging.Encode(w, img, imaging.TIFF)
	case model.FormatWebP:
		return nativewebp.Encode(w, img, nil)
	case model.FormatICO:
		return ico.Encode(w, fitICO(img))
	}

	return fmt.Errorf("unsupported format %q", f)
}

// fitICO shrinks images that don't fit in a single ICO entry, keeping the aspect ratio.
func fitICO(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxICOSize && b.Dy() <= maxICOSize {
		return img
	}
	return imaging.Fit(img, maxICOSize, maxICOSize, imaging.Lanczos)
}
