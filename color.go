package xtoon

import (
	"fmt"
	"image/color"
	"strings"
)

var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
	Transparent = Color{}
)

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// HexColor parses "rgb", "rrggbb" or "rrggbbaa", with or without a leading '#'.
// Unparseable input yields Black.
func HexColor(x string) Color {
	x = strings.TrimPrefix(x, "#")
	var r, g, b, a int
	a = 255
	var err error
	switch len(x) {
	case 3:
		_, err = fmt.Sscanf(x, "%1x%1x%1x", &r, &g, &b)
		r = (r << 4) | r
		g = (g << 4) | g
		b = (b << 4) | b
	case 6:
		_, err = fmt.Sscanf(x, "%02x%02x%02x", &r, &g, &b)
	case 8:
		_, err = fmt.Sscanf(x, "%02x%02x%02x%02x", &r, &g, &b, &a)
	default:
		return Black
	}
	if err != nil {
		return Black
	}
	const d = 0xff
	return Color{float64(r) / d, float64(g) / d, float64(b) / d, float64(a) / d}
}

func (c Color) NRGBA() color.NRGBA {
	const d = 0xff
	r := Clamp(c.R, 0, 1)
	g := Clamp(c.G, 0, 1)
	b := Clamp(c.B, 0, 1)
	a := Clamp(c.A, 0, 1)
	return color.NRGBA{uint8(r*d + 0.5), uint8(g*d + 0.5), uint8(b*d + 0.5), uint8(a*d + 0.5)}
}

func (c Color) Opaque() Color {
	return Color{c.R, c.G, c.B, 1}
}

func (a Color) Add(b Color) Color {
	return Color{a.R + b.R, a.G + b.G, a.B + b.B, a.A + b.A}
}

func (a Color) Sub(b Color) Color {
	return Color{a.R - b.R, a.G - b.G, a.B - b.B, a.A - b.A}
}

func (a Color) MulScalar(b float64) Color {
	return Color{a.R * b, a.G * b, a.B * b, a.A * b}
}

func (a Color) Lerp(b Color, t float64) Color {
	return a.Add(b.Sub(a).MulScalar(t))
}
