package render

import (
	"math"

	"github.com/netisu/xtoon"
)

// DepthRange returns the smallest and largest camera-space depth over the
// vertices of mesh placed by model.
func DepthRange(mesh *Mesh, model Matrix, cam xtoon.Camera) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	mesh.Vertices(func(v Vertex) {
		z := cam.Depth(model.MulPosition(v.Position))
		min = math.Min(min, z)
		max = math.Max(max, z)
	})
	return min, max
}

// RefocusDepth spans the depth range of o.
func RefocusDepth(h *xtoon.Handle[xtoon.DepthParams], o *Object, cam xtoon.Camera) error {
	min, max := DepthRange(o.Mesh, o.Matrix, cam)
	p := xtoon.DepthParams{ZNear: min, ZFar: max}
	if err := p.Validate(); err != nil {
		return err
	}
	h.Set(p)
	return nil
}

// RefocusFocus centers the focal plane on o with a zero width band falling
// off over a quarter of its depth.
func RefocusFocus(h *xtoon.Handle[xtoon.FocusParams], o *Object, cam xtoon.Camera) error {
	min, max := DepthRange(o.Mesh, o.Matrix, cam)
	p := xtoon.FocusParams{ZFocal: (min + max) / 2, ZNear: 0, ZFar: (max - min) / 4}
	if err := p.Validate(); err != nil {
		return err
	}
	h.Set(p)
	return nil
}
