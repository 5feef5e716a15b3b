package render

import (
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/netisu/xtoon"
)

type Face int

const (
	_ Face = iota
	FaceCW
	FaceCCW
)

type Cull int

const (
	_ Cull = iota
	CullNone
	CullFront
	CullBack
)

// Context rasterizes meshes into a color and depth buffer.
//
// A mesh is drawn in two passes. The vertex pass runs the Shader's Vertex
// stage, clips and culls every triangle and keeps the survivors in screen
// space. The fragment pass splits the frame into horizontal bands, one per
// worker, and each worker fills the parts of every triangle inside its band,
// so no two workers write the same pixel.
type Context struct {
	Width       int
	Height      int
	Shader      Shader
	ColorBuffer *image.NRGBA
	DepthBuffer []float64
	ClearColor  xtoon.Color
	ReadDepth   bool
	WriteDepth  bool
	WriteColor  bool
	AlphaBlend  bool
	Wireframe   bool
	FrontFace   Face
	Cull        Cull
	LineWidth   float64
	DepthBias   float64
	// Workers bounds the goroutines of both passes; 0 means one per CPU.
	Workers int

	screen Matrix
}

// screenTriangle is a triangle that survived the vertex pass. v holds the
// shaded vertices for interpolation, s their screen positions.
type screenTriangle struct {
	v      [3]Vertex
	s      [3]xtoon.Vector
	object *Object
}

func NewContext(width, height int, shader Shader) *Context {
	dc := &Context{
		Width:       width,
		Height:      height,
		Shader:      shader,
		ColorBuffer: image.NewNRGBA(image.Rect(0, 0, width, height)),
		DepthBuffer: make([]float64, width*height),
		ClearColor:  xtoon.Transparent,
		ReadDepth:   true,
		WriteDepth:  true,
		WriteColor:  true,
		AlphaBlend:  true,
		FrontFace:   FaceCCW,
		Cull:        CullBack,
		LineWidth:   2,
		screen:      Screen(width, height),
	}
	dc.ClearDepthBuffer()
	return dc
}

func (dc *Context) Image() image.Image {
	return dc.ColorBuffer
}

// ClearColorBuffer fills the frame with ClearColor, doubling the filled
// prefix of the pixel slice on every copy.
func (dc *Context) ClearColorBuffer() {
	pix := dc.ColorBuffer.Pix
	if len(pix) == 0 {
		return
	}
	c := dc.ClearColor.NRGBA()
	pix[0], pix[1], pix[2], pix[3] = c.R, c.G, c.B, c.A
	for n := 4; n < len(pix); n *= 2 {
		copy(pix[n:], pix[:n])
	}
}

func (dc *Context) ClearDepthBuffer() {
	for i := range dc.DepthBuffer {
		dc.DepthBuffer[i] = math.MaxFloat64
	}
}

func (dc *Context) workers() int {
	if dc.Workers > 0 {
		return dc.Workers
	}
	return runtime.NumCPU()
}

// DrawObject draws o with the object's model matrix applied after
// viewProjection.
func (dc *Context) DrawObject(o *Object, viewProjection Matrix) {
	if o.Mesh == nil {
		xtoon.Logger().Warn("render: object without mesh skipped")
		return
	}
	dc.DrawMesh(o.Mesh, NewTransform(viewProjection, o.Matrix), o)
}

func (dc *Context) DrawMesh(mesh *Mesh, tr *Transform, fromObject *Object) {
	dc.fill(dc.project(mesh, tr, fromObject))
}

// project is the vertex pass.
func (dc *Context) project(mesh *Mesh, tr *Transform, o *Object) []screenTriangle {
	n := min(dc.workers(), max(len(mesh.Triangles), 1))
	parts := make([][]screenTriangle, n)
	var wg sync.WaitGroup
	for w := range parts {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var out []screenTriangle
			for i := w; i < len(mesh.Triangles); i += n {
				out = dc.appendTriangle(out, mesh.Triangles[i], tr, o)
			}
			parts[w] = out
		}(w)
	}
	wg.Wait()

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	tris := make([]screenTriangle, 0, total)
	for _, p := range parts {
		tris = append(tris, p...)
	}
	return tris
}

func (dc *Context) appendTriangle(out []screenTriangle, t *Triangle, tr *Transform, o *Object) []screenTriangle {
	v0 := dc.Shader.Vertex(t.V1, tr)
	v1 := dc.Shader.Vertex(t.V2, tr)
	v2 := dc.Shader.Vertex(t.V3, tr)
	if !v0.Outside() && !v1.Outside() && !v2.Outside() {
		return dc.appendScreen(out, v0, v1, v2, o)
	}
	for _, c := range ClipTriangle(&Triangle{v0, v1, v2}) {
		out = dc.appendScreen(out, c.V1, c.V2, c.V3, o)
	}
	return out
}

// appendScreen culls a clipped triangle and maps it to the screen. In
// wireframe mode the triangle is replaced by quads along its edges.
func (dc *Context) appendScreen(out []screenTriangle, v0, v1, v2 Vertex, o *Object) []screenTriangle {
	t := screenTriangle{v: [3]Vertex{v0, v1, v2}, object: o}
	var ndc [3]xtoon.Vector
	for i, v := range t.v {
		ndc[i] = v.Output.DivScalar(v.Output.W).Vector()
	}
	if dc.culled(ndc) {
		return out
	}
	for i, p := range ndc {
		t.s[i] = dc.screen.MulPosition(p)
	}
	if !dc.Wireframe {
		return append(out, t)
	}
	for i := range 3 {
		out = dc.appendEdge(out, t, i, (i+1)%3)
	}
	return out
}

func (dc *Context) culled(ndc [3]xtoon.Vector) bool {
	if dc.Cull == CullNone {
		return false
	}
	a, b, c := ndc[0], ndc[1], ndc[2]
	area := (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
	if dc.FrontFace == FaceCW {
		area = -area
	}
	if dc.Cull == CullBack {
		return area <= 0
	}
	return area >= 0
}

// appendEdge covers the edge i-j of t with a LineWidth wide quad, extended
// by half the width past both ends so corners close.
func (dc *Context) appendEdge(out []screenTriangle, t screenTriangle, i, j int) []screenTriangle {
	half := dc.LineWidth / 2
	a, b := t.s[i], t.s[j]
	dir := b.Sub(a).Normalize()
	n := dir.Perpendicular().MulScalar(half)
	a = a.Sub(dir.MulScalar(half))
	b = b.Add(dir.MulScalar(half))
	va, vb := t.v[i], t.v[j]
	return append(out,
		screenTriangle{v: [3]Vertex{vb, va, va}, s: [3]xtoon.Vector{b.Sub(n), a.Sub(n), a.Add(n)}, object: t.object},
		screenTriangle{v: [3]Vertex{vb, vb, va}, s: [3]xtoon.Vector{b.Add(n), b.Sub(n), a.Add(n)}, object: t.object},
	)
}

// fill is the fragment pass.
func (dc *Context) fill(tris []screenTriangle) {
	if len(tris) == 0 || dc.Height == 0 {
		return
	}
	n := min(dc.workers(), dc.Height)
	band := (dc.Height + n - 1) / n
	var wg sync.WaitGroup
	for y := 0; y < dc.Height; y += band {
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			for i := range tris {
				dc.rasterize(&tris[i], y0, y1)
			}
		}(y, min(y+band, dc.Height))
	}
	wg.Wait()
}

// edge is twice the signed area of the triangle a, b, c.
func edge(a, b, c xtoon.Vector) float64 {
	return (b.X-c.X)*(a.Y-c.Y) - (b.Y-c.Y)*(a.X-c.X)
}

// rasterize fills the pixel rows [bandMin, bandMax) of t whose centers lie
// inside it.
func (dc *Context) rasterize(t *screenTriangle, bandMin, bandMax int) {
	s0, s1, s2 := t.s[0], t.s[1], t.s[2]
	area := edge(s0, s1, s2)
	if area == 0 || math.IsNaN(area) {
		return
	}
	lo := s0.Min(s1).Min(s2).Floor()
	hi := s0.Max(s1).Max(s2).Ceil()
	x0 := xtoon.ClampInt(int(lo.X), 0, dc.Width-1)
	x1 := xtoon.ClampInt(int(hi.X), 0, dc.Width-1)
	y0 := max(xtoon.ClampInt(int(lo.Y), 0, dc.Height-1), bandMin)
	y1 := min(xtoon.ClampInt(int(hi.Y), 0, dc.Height-1), bandMax-1)

	inv := 1 / area
	rw := [3]float64{1 / t.v[0].Output.W, 1 / t.v[1].Output.W, 1 / t.v[2].Output.W}
	// Per pixel step of each edge function along x.
	d0, d1, d2 := s2.Y-s1.Y, s0.Y-s2.Y, s1.Y-s0.Y

	for y := y0; y <= y1; y++ {
		p := xtoon.Vector{X: float64(x0) + 0.5, Y: float64(y) + 0.5}
		w0, w1, w2 := edge(s1, s2, p), edge(s2, s0, p), edge(s0, s1, p)
		row := y * dc.Width
		for x := x0; x <= x1; x, w0, w1, w2 = x+1, w0+d0, w1+d1, w2+d2 {
			b0, b1, b2 := w0*inv, w1*inv, w2*inv
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}
			dc.shadePixel(t, row+x, b0, b1, b2, rw)
		}
	}
}

// shadePixel depth tests, shades and stores the sample of t at pixel i with
// screen space barycentrics b0, b1, b2.
func (dc *Context) shadePixel(t *screenTriangle, i int, b0, b1, b2 float64, rw [3]float64) {
	z := b0*t.s[0].Z + b1*t.s[1].Z + b2*t.s[2].Z
	if dc.ReadDepth && z+dc.DepthBias > dc.DepthBuffer[i] {
		return
	}
	// Perspective correct weights.
	b := VectorW{b0 * rw[0], b1 * rw[1], b2 * rw[2], 0}
	b.W = 1 / (b.X + b.Y + b.Z)
	c := dc.Shader.Fragment(InterpolateVertexes(t.v[0], t.v[1], t.v[2], b), t.object)
	if c.A <= 0 {
		return
	}
	if dc.WriteDepth {
		dc.DepthBuffer[i] = z
	}
	if dc.WriteColor {
		dc.store(c, i*4)
	}
}

// store writes c at pix offset i, composited over the current pixel when
// blending a translucent color.
func (dc *Context) store(c xtoon.Color, i int) {
	pix := dc.ColorBuffer.Pix[i : i+4 : i+4]
	if dc.AlphaBlend && c.A < 1 {
		const d = 0xff
		dst := xtoon.Color{R: float64(pix[0]) / d, G: float64(pix[1]) / d, B: float64(pix[2]) / d, A: float64(pix[3]) / d}
		k := dst.A * (1 - c.A)
		a := c.A + k
		out := c.MulScalar(c.A).Add(dst.MulScalar(k))
		if a > 0 {
			out = out.MulScalar(1 / a)
		}
		out.A = a
		c = out
	}
	n := c.NRGBA()
	pix[0], pix[1], pix[2], pix[3] = n.R, n.G, n.B, n.A
}
