package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an image output format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPG  Format = "jpg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatWebP Format = "webp"
	FormatTIFF Format = "tiff"
	FormatICO  Format = "ico"
)

// Formats are all the supported output formats, in display order.
var Formats = []Format{
	FormatPNG,
	FormatJPG,
	FormatGIF,
	FormatBMP,
	FormatWebP,
	FormatTIFF,
	FormatICO,
}

// formatAliases maps alternative names to their canonical format.
var formatAliases = map[string]Format{
	"jpeg": FormatJPG,
	"tif":  FormatTIFF,
}

// InputExtensions are the file extensions (without dot, lowercase) accepted as input.
var InputExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "webp", "tiff", "tif", "ico"}

// ParseFormat parses a format name case-insensitively.
// An empty name means no format was selected.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, ".")))
	if name == "" {
		return "", fmt.Errorf("output format is required: %w", ErrValidation)
	}

	if f, ok := formatAliases[name]; ok {
		return f, nil
	}

	f := Format(name)
	if !f.Valid() {
		return "", fmt.Errorf("unsupported output format %q: %w", s, ErrValidation)
	}

	return f, nil
}

// Valid returns true if the format is one of the supported ones.
func (f Format) Valid() bool {
	for _, sf := range Formats {
		if f == sf {
			return true
		}
	}
	return false
}

func (f Format) String() string { return string(f) }

// Aliases returns the alternative names accepted by ParseFormat for the format.
func (f Format) Aliases() []string {
	var aliases []string
	for a, af := range formatAliases {
		if af == f {
			aliases = append(aliases, a)
		}
	}
	return aliases
}

// IsInputFile returns true if the path has one of the accepted input extensions.
func IsInputFile(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, e := range InputExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// OutputFileName returns the target file name for an input path:
// the basename without its extension plus the format extension.
func OutputFileName(inputPath string, f Format) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "." + string(f)
}
