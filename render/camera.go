package render

import "github.com/netisu/xtoon"

// LookAtCamera is a perspective camera aimed at a point. It implements
// xtoon.Camera. The matrices are rebuilt by the setters, so a camera can be
// read from many goroutines while a frame is drawn.
type LookAtCamera struct {
	eye, center, up         xtoon.Vector
	fovy, aspect, near, far float64

	view       Matrix
	projection Matrix
}

var _ xtoon.Camera = (*LookAtCamera)(nil)

// NewLookAtCamera takes the vertical field of view in degrees.
func NewLookAtCamera(eye, center, up xtoon.Vector, fovy, aspect, near, far float64) *LookAtCamera {
	c := &LookAtCamera{eye: eye, center: center, up: up, fovy: fovy, aspect: aspect, near: near, far: far}
	c.update()
	return c
}

func (c *LookAtCamera) update() {
	c.view = LookAt(c.eye, c.center, c.up)
	c.projection = Perspective(c.fovy, c.aspect, c.near, c.far)
}

func (c *LookAtCamera) SetFovy(fovy float64) {
	c.fovy = fovy
	c.update()
}

func (c *LookAtCamera) SetClip(near, far float64) {
	c.near, c.far = near, far
	c.update()
}

func (c *LookAtCamera) Fovy() float64   { return c.fovy }
func (c *LookAtCamera) Aspect() float64 { return c.aspect }
func (c *LookAtCamera) Near() float64   { return c.near }
func (c *LookAtCamera) Far() float64    { return c.far }

// View is the world-to-view transform.
func (c *LookAtCamera) View() Matrix { return c.view }

// Matrix is the combined view-projection transform.
func (c *LookAtCamera) Matrix() Matrix {
	return c.projection.Mul(c.view)
}

func (c *LookAtCamera) Position() xtoon.Vector {
	return c.eye
}

// Depth is the distance of p in front of the camera along the view axis.
func (c *LookAtCamera) Depth(p xtoon.Vector) float64 {
	return -c.view.MulPosition(p).Z
}

// ToView expresses a world position in view space.
func (c *LookAtCamera) ToView(p xtoon.Vector) xtoon.Vector {
	return c.view.MulPosition(p)
}

// CameraBlockSize is the float count of the vertex stage's Camera uniform.
const CameraBlockSize = 4*16 + 4

// CameraBlock packs the vertex stage's Camera uniform for an object drawn
// with model: mvp, model, normal_matrix and view as column-major matrices,
// then the eye. The matrices are the ones Transform applies on the CPU.
func (c *LookAtCamera) CameraBlock(model Matrix) [CameraBlockSize]float32 {
	t := NewTransform(c.Matrix(), model)
	var b [CameraBlockSize]float32
	for i, m := range [...]Matrix{t.MVP, t.Model, t.Normal, c.view} {
		f := m.Float32()
		copy(b[i*16:], f[:])
	}
	e := c.eye.Float32()
	copy(b[64:], e[:])
	b[67] = 1
	return b
}
