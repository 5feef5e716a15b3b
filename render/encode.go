package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/bmp"
)

// Format is an output image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatBMP  Format = "bmp"
	FormatWebP Format = "webp"
)

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("render: unsupported image format %q", filepath.Ext(path))
}

func EncodeImage(w io.Writer, im image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, im)
	case FormatBMP:
		return bmp.Encode(w, im)
	case FormatWebP:
		return nativewebp.Encode(w, im, nil)
	}
	return fmt.Errorf("render: unsupported image format %q", format)
}

// SaveImage writes im to path in the format named by its extension.
func SaveImage(path string, im image.Image) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}
	if err := EncodeImage(file, im, format); err != nil {
		file.Close()
		return fmt.Errorf("render: encode %s: %w", path, err)
	}
	return file.Close()
}
