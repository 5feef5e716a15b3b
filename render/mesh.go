package render

import (
	"math"

	"github.com/fogleman/simplify"

	"github.com/netisu/xtoon"
)

// VectorW is a homogeneous clip-space position.
type VectorW struct {
	X, Y, Z, W float64
}

func (a VectorW) Vector() xtoon.Vector {
	return xtoon.Vector{X: a.X, Y: a.Y, Z: a.Z}
}

func (a VectorW) DivScalar(b float64) VectorW {
	return VectorW{a.X / b, a.Y / b, a.Z / b, a.W / b}
}

func (a VectorW) Dot(b VectorW) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W
}

// Outside reports whether the position lies outside the view volume.
func (a VectorW) Outside() bool {
	x, y, z, w := a.X, a.Y, a.Z, a.W
	return x < -w || x > w || y < -w || y > w || z < -w || z > w
}

// Vertex carries the per-vertex attributes through the pipeline. Position
// and Normal are in world space once a shader has run.
type Vertex struct {
	Position xtoon.Vector
	Normal   xtoon.Vector
	Color    xtoon.Color
	Output   VectorW
}

func (a Vertex) Outside() bool {
	return a.Output.Outside()
}

func lerpVertex(a, b Vertex, t float64) Vertex {
	return Vertex{
		Position: a.Position.Lerp(b.Position, t),
		Normal:   a.Normal.Lerp(b.Normal, t).Normalize(),
		Color:    a.Color.Lerp(b.Color, t),
		Output: VectorW{
			a.Output.X + (b.Output.X-a.Output.X)*t,
			a.Output.Y + (b.Output.Y-a.Output.Y)*t,
			a.Output.Z + (b.Output.Z-a.Output.Z)*t,
			a.Output.W + (b.Output.W-a.Output.W)*t,
		},
	}
}

// InterpolateVertexes blends three vertices with perspective-corrected
// barycentric weights b (b.W is the normalizing factor).
func InterpolateVertexes(v1, v2, v3 Vertex, b VectorW) Vertex {
	v := Vertex{}
	v.Position = interpolateVectors(v1.Position, v2.Position, v3.Position, b)
	v.Normal = interpolateVectors(v1.Normal, v2.Normal, v3.Normal, b).Normalize()
	v.Color = v1.Color.MulScalar(b.X).Add(v2.Color.MulScalar(b.Y)).Add(v3.Color.MulScalar(b.Z)).MulScalar(b.W)
	v.Output = VectorW{
		(v1.Output.X*b.X + v2.Output.X*b.Y + v3.Output.X*b.Z) * b.W,
		(v1.Output.Y*b.X + v2.Output.Y*b.Y + v3.Output.Y*b.Z) * b.W,
		(v1.Output.Z*b.X + v2.Output.Z*b.Y + v3.Output.Z*b.Z) * b.W,
		(v1.Output.W*b.X + v2.Output.W*b.Y + v3.Output.W*b.Z) * b.W,
	}
	return v
}

func interpolateVectors(v1, v2, v3 xtoon.Vector, b VectorW) xtoon.Vector {
	n := v1.MulScalar(b.X)
	n = n.Add(v2.MulScalar(b.Y))
	n = n.Add(v3.MulScalar(b.Z))
	return n.MulScalar(b.W)
}

type Triangle struct {
	V1, V2, V3 Vertex
}

func NewTriangle(v1, v2, v3 Vertex) *Triangle {
	t := Triangle{v1, v2, v3}
	t.FixNormals()
	return &t
}

func NewTriangleForPoints(p1, p2, p3 xtoon.Vector) *Triangle {
	v1 := Vertex{Position: p1}
	v2 := Vertex{Position: p2}
	v3 := Vertex{Position: p3}
	return NewTriangle(v1, v2, v3)
}

func (t *Triangle) Normal() xtoon.Vector {
	e1 := t.V2.Position.Sub(t.V1.Position)
	e2 := t.V3.Position.Sub(t.V1.Position)
	return e1.Cross(e2).Normalize()
}

// FixNormals replaces missing vertex normals with the face normal.
func (t *Triangle) FixNormals() {
	n := t.Normal()
	zero := xtoon.Vector{}
	if t.V1.Normal == zero {
		t.V1.Normal = n
	}
	if t.V2.Normal == zero {
		t.V2.Normal = n
	}
	if t.V3.Normal == zero {
		t.V3.Normal = n
	}
}

func (t *Triangle) SetColor(c xtoon.Color) {
	t.V1.Color = c
	t.V2.Color = c
	t.V3.Color = c
}

func (t *Triangle) BoundingBox() Box {
	min := t.V1.Position.Min(t.V2.Position).Min(t.V3.Position)
	max := t.V1.Position.Max(t.V2.Position).Max(t.V3.Position)
	return Box{min, max}
}

// Box is an axis aligned bounding box.
type Box struct {
	Min, Max xtoon.Vector
}

var EmptyBox = Box{}

func BoxForBoxes(boxes []Box) Box {
	if len(boxes) == 0 {
		return EmptyBox
	}
	x0, y0, z0 := boxes[0].Min.X, boxes[0].Min.Y, boxes[0].Min.Z
	x1, y1, z1 := boxes[0].Max.X, boxes[0].Max.Y, boxes[0].Max.Z
	for _, box := range boxes {
		x0 = math.Min(x0, box.Min.X)
		y0 = math.Min(y0, box.Min.Y)
		z0 = math.Min(z0, box.Min.Z)
		x1 = math.Max(x1, box.Max.X)
		y1 = math.Max(y1, box.Max.Y)
		z1 = math.Max(z1, box.Max.Z)
	}
	return Box{xtoon.V(x0, y0, z0), xtoon.V(x1, y1, z1)}
}

func (a Box) Size() xtoon.Vector {
	return a.Max.Sub(a.Min)
}

func (a Box) Center() xtoon.Vector {
	return a.Min.Add(a.Max).MulScalar(0.5)
}

func (a Box) Corners() []xtoon.Vector {
	return []xtoon.Vector{
		{X: a.Min.X, Y: a.Min.Y, Z: a.Min.Z},
		{X: a.Min.X, Y: a.Min.Y, Z: a.Max.Z},
		{X: a.Min.X, Y: a.Max.Y, Z: a.Min.Z},
		{X: a.Min.X, Y: a.Max.Y, Z: a.Max.Z},
		{X: a.Max.X, Y: a.Min.Y, Z: a.Min.Z},
		{X: a.Max.X, Y: a.Min.Y, Z: a.Max.Z},
		{X: a.Max.X, Y: a.Max.Y, Z: a.Min.Z},
		{X: a.Max.X, Y: a.Max.Y, Z: a.Max.Z},
	}
}

// Mesh is a triangle soup.
type Mesh struct {
	Triangles []*Triangle
	box       *Box
}

func NewTriangleMesh(triangles []*Triangle) *Mesh {
	return &Mesh{Triangles: triangles}
}

func (m *Mesh) dirty() {
	m.box = nil
}

func (m *Mesh) BoundingBox() Box {
	if m.box == nil {
		if len(m.Triangles) == 0 {
			return EmptyBox
		}
		box := m.Triangles[0].BoundingBox()
		for _, t := range m.Triangles[1:] {
			box = BoxForBoxes([]Box{box, t.BoundingBox()})
		}
		m.box = &box
	}
	return *m.box
}

// Vertices calls fn for every triangle corner in order.
func (m *Mesh) Vertices(fn func(v Vertex)) {
	for _, t := range m.Triangles {
		fn(t.V1)
		fn(t.V2)
		fn(t.V3)
	}
}

func (m *Mesh) Transform(matrix Matrix) {
	normal := matrix.Inverse().Transpose()
	for _, t := range m.Triangles {
		for _, v := range []*Vertex{&t.V1, &t.V2, &t.V3} {
			v.Position = matrix.MulPosition(v.Position)
			v.Normal = normal.MulDirection(v.Normal)
		}
	}
	m.dirty()
}

// CenterAndScaleToUnit moves the vertex centroid to the origin and scales
// the mesh so that its farthest vertex lies on the unit sphere.
func (m *Mesh) CenterAndScaleToUnit() {
	if len(m.Triangles) == 0 {
		return
	}
	var c xtoon.Vector
	n := 0
	m.Vertices(func(v Vertex) {
		c = c.Add(v.Position)
		n++
	})
	c = c.DivScalar(float64(n))
	maxD := 0.0
	m.Vertices(func(v Vertex) {
		maxD = math.Max(maxD, v.Position.Distance(c))
	})
	if maxD == 0 {
		maxD = 1
	}
	m.Transform(Translate(c.Negate()).Scale(xtoon.V(1/maxD, 1/maxD, 1/maxD)))
}

// SmoothNormals sets each vertex normal to the normalized sum of the face
// normals sharing its position.
func (m *Mesh) SmoothNormals() {
	lookup := make(map[xtoon.Vector]xtoon.Vector)
	for _, t := range m.Triangles {
		n := t.Normal()
		lookup[t.V1.Position] = lookup[t.V1.Position].Add(n)
		lookup[t.V2.Position] = lookup[t.V2.Position].Add(n)
		lookup[t.V3.Position] = lookup[t.V3.Position].Add(n)
	}
	for k, v := range lookup {
		lookup[k] = v.Normalize()
	}
	for _, t := range m.Triangles {
		t.V1.Normal = lookup[t.V1.Position]
		t.V2.Normal = lookup[t.V2.Position]
		t.V3.Normal = lookup[t.V3.Position]
	}
}

func (m *Mesh) SetColor(c xtoon.Color) {
	for _, t := range m.Triangles {
		t.SetColor(c)
	}
}

// Simplify collapses edges until about factor of the triangles remain.
// Normals are recomputed afterwards.
func (m *Mesh) Simplify(factor float64) {
	st := make([]*simplify.Triangle, len(m.Triangles))
	for i, t := range m.Triangles {
		v1 := simplify.Vector(t.V1.Position)
		v2 := simplify.Vector(t.V2.Position)
		v3 := simplify.Vector(t.V3.Position)
		st[i] = simplify.NewTriangle(v1, v2, v3)
	}
	sm := simplify.NewMesh(st)
	sm = sm.Simplify(factor)
	m.Triangles = make([]*Triangle, len(sm.Triangles))
	for i, t := range sm.Triangles {
		v1 := xtoon.Vector(t.V1)
		v2 := xtoon.Vector(t.V2)
		v3 := xtoon.Vector(t.V3)
		m.Triangles[i] = NewTriangleForPoints(v1, v2, v3)
	}
	m.SmoothNormals()
	m.dirty()
}
