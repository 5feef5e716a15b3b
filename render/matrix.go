package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/netisu/xtoon"
)

// Matrix is a column-major 4x4 transform.
type Matrix mgl64.Mat4

func Identity() Matrix {
	return Matrix(mgl64.Ident4())
}

func Translate(v xtoon.Vector) Matrix {
	return Matrix(mgl64.Translate3D(v.X, v.Y, v.Z))
}

func Scale(v xtoon.Vector) Matrix {
	return Matrix(mgl64.Scale3D(v.X, v.Y, v.Z))
}

// Rotate builds a rotation of a radians about axis v.
func Rotate(v xtoon.Vector, a float64) Matrix {
	return Matrix(mgl64.HomogRotate3D(a, vec3(v.Normalize())))
}

func LookAt(eye, center, up xtoon.Vector) Matrix {
	return Matrix(mgl64.LookAtV(vec3(eye), vec3(center), vec3(up)))
}

// Perspective builds a projection with a vertical field of view in degrees.
func Perspective(fovy, aspect, near, far float64) Matrix {
	return Matrix(mgl64.Perspective(mgl64.DegToRad(fovy), aspect, near, far))
}

// Screen maps normalized device coordinates to pixels, y pointing down and
// depth remapped to [0, 1].
func Screen(w, h int) Matrix {
	w2 := float64(w) / 2
	h2 := float64(h) / 2
	return Matrix(mgl64.Translate3D(w2, h2, 0.5).Mul4(mgl64.Scale3D(w2, -h2, 0.5)))
}

func (a Matrix) Translate(v xtoon.Vector) Matrix {
	return Translate(v).Mul(a)
}

func (a Matrix) Scale(v xtoon.Vector) Matrix {
	return Scale(v).Mul(a)
}

func (a Matrix) Rotate(v xtoon.Vector, angle float64) Matrix {
	return Rotate(v, angle).Mul(a)
}

// Perspective applies a projection after a.
func (a Matrix) Perspective(fovy, aspect, near, far float64) Matrix {
	return Perspective(fovy, aspect, near, far).Mul(a)
}

// Mul returns a*b, b being applied first.
func (a Matrix) Mul(b Matrix) Matrix {
	return Matrix(mgl64.Mat4(a).Mul4(mgl64.Mat4(b)))
}

func (a Matrix) MulPosition(b xtoon.Vector) xtoon.Vector {
	v := mgl64.Mat4(a).Mul4x1(mgl64.Vec4{b.X, b.Y, b.Z, 1})
	return xtoon.Vector{X: v[0], Y: v[1], Z: v[2]}
}

func (a Matrix) MulPositionW(b xtoon.Vector) VectorW {
	v := mgl64.Mat4(a).Mul4x1(mgl64.Vec4{b.X, b.Y, b.Z, 1})
	return VectorW{v[0], v[1], v[2], v[3]}
}

func (a Matrix) MulDirection(b xtoon.Vector) xtoon.Vector {
	v := mgl64.Mat4(a).Mul4x1(mgl64.Vec4{b.X, b.Y, b.Z, 0})
	return xtoon.Vector{X: v[0], Y: v[1], Z: v[2]}.Normalize()
}

func (a Matrix) Transpose() Matrix {
	return Matrix(mgl64.Mat4(a).Transpose())
}

func (a Matrix) Inverse() Matrix {
	return Matrix(mgl64.Mat4(a).Inv())
}

// Float32 packs the matrix column-major for uniform upload.
func (a Matrix) Float32() [16]float32 {
	var out [16]float32
	for i, v := range a {
		out[i] = float32(v)
	}
	return out
}

func vec3(v xtoon.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
