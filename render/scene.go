package render

import (
	"image"
	"io"
	"math"

	"github.com/nfnt/resize"

	"github.com/netisu/xtoon"
)

// Scene struct to store all data for a scene
type Scene struct {
	Context *Context
	Objects []*Object
	Shader  Shader
	Camera  *LookAtCamera
	size    int
	scale   int
}

// NewScene renders size x size images. The context is scale times larger and
// the result is filtered down, so scale > 1 antialiases.
func NewScene(camera *LookAtCamera, size int, scale int, shader Shader) *Scene {
	if scale < 1 {
		scale = 1
	}
	context := NewContext(size*scale, size*scale, shader)
	context.LineWidth *= float64(scale)
	return &Scene{Context: context, Shader: shader, Camera: camera, size: size, scale: scale}
}

// AddObject adds an object to the scene
func (s *Scene) AddObject(o *Object) {
	s.Objects = append(s.Objects, o)
}

// AddObjects is a convenience method to add multiple objects
func (s *Scene) AddObjects(objects []*Object) {
	for _, o := range objects {
		s.AddObject(o)
	}
}

func (s *Scene) boundingBox() (Box, bool) {
	var boxes []Box
	for _, o := range s.Objects {
		if o.Mesh != nil {
			box := o.Mesh.BoundingBox()
			corners := box.Corners()
			for i, c := range corners {
				corners[i] = o.Matrix.MulPosition(c)
			}
			min, max := corners[0], corners[0]
			for _, c := range corners[1:] {
				min = min.Min(c)
				max = max.Max(c)
			}
			boxes = append(boxes, Box{min, max})
		}
	}
	if len(boxes) == 0 {
		return EmptyBox, false
	}
	return BoxForBoxes(boxes), true
}

// FitObjectsToScene widens or narrows the camera's field of view so that
// every object fits in the frame.
func (s *Scene) FitObjectsToScene() {
	sceneBox, ok := s.boundingBox()
	if !ok {
		// Default FOV of 60 degrees.
		s.Camera.SetFovy(60)
		return
	}

	viewMatrix := s.Camera.View()
	aspect := s.Camera.Aspect()

	var maxAngleX, maxAngleY float64
	for _, corner := range sceneBox.Corners() {
		p := viewMatrix.MulPosition(corner)

		// The camera looks down the negative Z-axis in view space.
		absZ := math.Abs(p.Z)
		if absZ < 1e-6 { // Avoid division by zero for points at the camera's position.
			continue
		}

		angleX := math.Atan(math.Abs(p.X) / absZ)
		if angleX > maxAngleX {
			maxAngleX = angleX
		}

		angleY := math.Atan(math.Abs(p.Y) / absZ)
		if angleY > maxAngleY {
			maxAngleY = angleY
		}
	}

	fovyFromY := 2 * maxAngleY
	fovyFromX := 2 * math.Atan(math.Tan(maxAngleX)/aspect)
	finalFovyRad := math.Max(fovyFromX, fovyFromY)

	// Convert to degrees and add a 5% padding to prevent objects from clipping.
	s.Camera.SetFovy(finalFovyRad * (180 / math.Pi) * 1.05)
}

// Render draws every object and returns the frame at its final size.
func (s *Scene) Render() (image.Image, error) {
	if p, ok := s.Shader.(Preparer); ok {
		if err := p.Prepare(); err != nil {
			return nil, err
		}
	}
	s.Context.ClearColorBuffer()
	s.Context.ClearDepthBuffer()
	vp := s.Camera.Matrix()
	for _, o := range s.Objects {
		s.Context.DrawObject(o, vp)
	}
	im := s.Context.Image()
	if s.scale > 1 {
		im = resize.Resize(uint(s.size), uint(s.size), im, resize.Bilinear)
	}
	return im, nil
}

// Draw renders the scene and saves it to path, the format following the
// extension.
func (s *Scene) Draw(path string) error {
	im, err := s.Render()
	if err != nil {
		return err
	}
	return SaveImage(path, im)
}

// DrawToWriter renders the scene and encodes it in format.
func (s *Scene) DrawToWriter(w io.Writer, format Format) error {
	im, err := s.Render()
	if err != nil {
		return err
	}
	return EncodeImage(w, im, format)
}

// Stats summarizes the scene geometry.
type Stats struct {
	Objects   int
	Triangles int
	Box       Box
}

func (s *Scene) Stats() Stats {
	st := Stats{Objects: len(s.Objects)}
	for _, o := range s.Objects {
		if o.Mesh != nil {
			st.Triangles += len(o.Mesh.Triangles)
		}
	}
	st.Box, _ = s.boundingBox()
	return st
}

// SetClearColor sets the background of subsequent renders.
func (s *Scene) SetClearColor(c xtoon.Color) {
	s.Context.ClearColor = c
}
