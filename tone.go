package xtoon

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Ensure decoders are present
	_ "image/png"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// ToneSize is the canonical extent of a tone texture in both dimensions.
const ToneSize = 256

// toneEpsilon keeps a coordinate of exactly 1 inside the last texel.
const toneEpsilon = 1e-9

// ToneTexture is the 2D lookup table of the shader. Columns are indexed by the
// lambertian coordinate and rows by the expressive coordinate. It is never
// modified after construction.
type ToneTexture struct {
	Width  int
	Height int
	image  *image.NRGBA
}

// NewToneTexture normalizes im to ToneSize x ToneSize. Larger images are
// cropped and smaller ones padded with black; content is never rescaled.
func NewToneTexture(im image.Image) *ToneTexture {
	dst := image.NewNRGBA(image.Rect(0, 0, ToneSize, ToneSize))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.NRGBA{0, 0, 0, 255}), image.Point{}, draw.Src)
	b := im.Bounds()
	if b.Dx() != ToneSize || b.Dy() != ToneSize {
		Logger().Info("xtoon: normalizing tone texture extent",
			"width", b.Dx(), "height", b.Dy(), "extent", ToneSize)
	}
	draw.Copy(dst, image.Point{}, im, b, draw.Src, nil)
	// Tone images carry no coverage, keep every texel opaque.
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 255
	}
	return &ToneTexture{Width: ToneSize, Height: ToneSize, image: dst}
}

// LoadToneTexture reads a BMP, TGA, PNG or JPEG file.
func LoadToneTexture(path string) (*ToneTexture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}
	defer file.Close()
	t, err := DecodeToneTexture(file)
	if err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}
	return t, nil
}

// LoadToneTextureFromURL fetches a tone texture over HTTP.
func LoadToneTextureFromURL(url string) (*ToneTexture, error) {
	client := http.Client{
		Timeout: 10 * time.Second,
	}
	resp, err := client.Get(url)
	if err != nil {
		return nil, &ResourceError{Path: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &ResourceError{Path: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	t, err := DecodeToneTexture(resp.Body)
	if err != nil {
		return nil, &ResourceError{Path: url, Err: err}
	}
	return t, nil
}

func DecodeToneTexture(r io.Reader) (*ToneTexture, error) {
	im, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode tone texture: %w", err)
	}
	Logger().Debug("xtoon: decoded tone texture", "format", format)
	return NewToneTexture(im), nil
}

func ToneTextureFromBytes(data []byte) (*ToneTexture, error) {
	return DecodeToneTexture(bytes.NewReader(data))
}

// Sample returns the texel at (row, col) without interpolation. Indices are
// clamped to the logical extent.
func (t *ToneTexture) Sample(row, col int) Color {
	row = ClampInt(row, 0, t.Height-1)
	col = ClampInt(col, 0, t.Width-1)
	i := t.image.PixOffset(col, row)
	p := t.image.Pix[i : i+3 : i+3]
	const d = 0xff
	return Color{float64(p[0]) / d, float64(p[1]) / d, float64(p[2]) / d, 1}
}

// SampleNormalized maps the lambertian coordinate l to a column and the
// expressive coordinate d to a row. Both are clamped to [0, 1] first.
func (t *ToneTexture) SampleNormalized(l, d float64) Color {
	return t.Sample(toneIndex(d, t.Height), toneIndex(l, t.Width))
}

func toneIndex(c float64, extent int) int {
	// NaN fails both comparisons and lands on 0.
	if !(c > 0) {
		c = 0
	} else if c > 1 {
		c = 1
	}
	return int(math.Floor(c * (float64(extent) - toneEpsilon)))
}

func (t *ToneTexture) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.Width, t.Height)
}

// Image returns a copy of the texels, for upload or inspection.
func (t *ToneTexture) Image() *image.NRGBA {
	dst := image.NewNRGBA(t.image.Bounds())
	copy(dst.Pix, t.image.Pix)
	return dst
}
