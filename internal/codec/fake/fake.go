package fake

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/slok/imgconv/internal/codec"
	"github.com/slok/imgconv/internal/log"
	"github.com/slok/imgconv/internal/model"
)

// CodecConfig is the configuration for the fake codec.
type CodecConfig struct {
	// Images are the images returned by Open per path. Paths not present
	// return a small opaque RGB image.
	Images map[string]image.Image
	// OpenErrors makes Open fail for the given paths.
	OpenErrors map[string]error
	// SaveErrors makes Save fail for the given output paths.
	SaveErrors map[string]error
	// OnOpen is called at the start of every Open, before any error is returned.
	OnOpen func(ctx context.Context, path string)
	Logger log.Logger
}

func (c *CodecConfig) defaults() error {
	if c.Images == nil {
		c.Images = map[string]image.Image{}
	}
	if c.OpenErrors == nil {
		c.OpenErrors = map[string]error{}
	}
	if c.SaveErrors == nil {
		c.SaveErrors = map[string]error{}
	}
	if c.OnOpen == nil {
		c.OnOpen = func(context.Context, string) {}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "codec.Fake"})
	return nil
}

// SavedImage is an image "written" by the fake codec.
type SavedImage struct {
	Image  image.Image
	Format model.Format
}

// Codec is a fake codec.Codec that works in memory.
// It records every opened and saved path.
type Codec struct {
	cfg    CodecConfig
	mu     sync.Mutex
	opened []string
	saved  map[string]SavedImage
	order  []string
	logger log.Logger
}

// NewCodec returns a new fake codec.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Codec{
		cfg:    cfg,
		saved:  map[string]SavedImage{},
		logger: cfg.Logger,
	}, nil
}

// Open returns the configured image for path.
func (c *Codec) Open(ctx context.Context, path string) (image.Image, error) {
	c.cfg.OnOpen(ctx, path)

	c.mu.Lock()
	c.opened = append(c.opened, path)
	c.mu.Unlock()

	if err, ok := c.cfg.OpenErrors[path]; ok {
		return nil, fmt.Errorf("could not decode image: %s: %w", err, model.ErrCodec)
	}

	if img, ok := c.cfg.Images[path]; ok {
		return img, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	return img, nil
}

// ConvertMode converts the image pixel representation.
func (c *Codec) ConvertMode(img image.Image, mode codec.Mode) (image.Image, error) {
	return codec.ConvertMode(img, mode)
}

// Save stores the image in memory.
func (c *Codec) Save(ctx context.Context, img image.Image, path string, f model.Format) error {
	if err, ok := c.cfg.SaveErrors[path]; ok {
		return fmt.Errorf("could not encode image as %s: %s: %w", f, err, model.ErrCodec)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.saved[path] = SavedImage{Image: img, Format: f}
	c.order = append(c.order, path)
	c.logger.Debugf("Saved %s", path)

	return nil
}

// Opened returns the paths passed to Open, in call order.
func (c *Codec) Opened() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.opened...)
}

// SavedPaths returns the paths passed to Save, in call order (overwrites included).
func (c *Codec) SavedPaths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.order...)
}

// Saved returns the last image saved at path.
func (c *Codec) Saved(path string) (SavedImage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.saved[path]
	return s, ok
}
