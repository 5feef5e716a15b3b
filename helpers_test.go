package xtoon

import (
	"image"
	"image/color"
)

// gradientImage encodes the column in red and the row in green.
func gradientImage(w, h int) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	return im
}

func gradientTexture() *ToneTexture {
	return NewToneTexture(gradientImage(ToneSize, ToneSize))
}

// texel decodes the (row, col) a gradient texture color was sampled from.
func texel(c Color) (row, col int) {
	n := c.NRGBA()
	return int(n.G), int(n.R)
}

// axisCamera sits on the z axis looking towards -z.
type axisCamera struct {
	z float64
}

func (c axisCamera) Position() Vector       { return Vector{0, 0, c.z} }
func (c axisCamera) Depth(p Vector) float64 { return c.z - p.Z }
