package render

import "github.com/netisu/xtoon"

// SolidShader paints every fragment with the object color, or with Color
// when the object has none.
type SolidShader struct {
	Color xtoon.Color
}

func NewSolidShader(c xtoon.Color) *SolidShader {
	return &SolidShader{Color: c}
}

func (s *SolidShader) Vertex(v Vertex, t *Transform) Vertex {
	return t.Apply(v)
}

func (s *SolidShader) Fragment(v Vertex, fromObject *Object) xtoon.Color {
	if fromObject != nil && fromObject.Color.A > 0 {
		return fromObject.Color
	}
	return s.Color
}
