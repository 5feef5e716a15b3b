package render

import (
	"math"

	"github.com/netisu/xtoon"
)

// LightFromScreen places the light on the hemisphere facing the viewer,
// above the screen point (x, y) of a w x h viewport. The distance of current
// from the origin is kept.
func LightFromScreen(x, y, w, h int, current xtoon.Vector) xtoon.Vector {
	a := (float64(x) - float64(w)/2) / (float64(w) / 2)
	b := -(float64(y) - float64(h)/2) / (float64(h) / 2)
	if l := math.Hypot(a, b); l > 1 {
		a /= l
		b /= l
	}
	l := current.Length()
	return xtoon.Vector{
		X: a * l,
		Y: b * l,
		Z: l * math.Sqrt(math.Max(1-a*a-b*b, 0)),
	}
}
