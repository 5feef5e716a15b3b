package render

import "github.com/netisu/xtoon"

// Shader shader interface
type Shader interface {
	Vertex(Vertex, *Transform) Vertex
	Fragment(Vertex, *Object) xtoon.Color
}

// Preparer is implemented by shaders that must check their collaborators
// before a frame is drawn.
type Preparer interface {
	Prepare() error
}

// Transform holds the per-object matrices a shader needs.
type Transform struct {
	// MVP maps object space to clip space.
	MVP Matrix
	// Model maps object space to world space.
	Model Matrix
	// Normal is the inverse transpose of Model.
	Normal Matrix
}

func NewTransform(viewProjection, model Matrix) *Transform {
	return &Transform{
		MVP:    viewProjection.Mul(model),
		Model:  model,
		Normal: model.Inverse().Transpose(),
	}
}

// Apply writes the clip-space position and the world-space position and
// normal of v.
func (t *Transform) Apply(v Vertex) Vertex {
	v.Output = t.MVP.MulPositionW(v.Position)
	v.Position = t.Model.MulPosition(v.Position)
	v.Normal = t.Normal.MulDirection(v.Normal)
	return v
}
