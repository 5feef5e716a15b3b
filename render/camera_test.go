package render

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netisu/xtoon"
)

func TestCameraDepth(t *testing.T) {
	cam := frontCamera()
	assert.InDelta(t, 3, cam.Depth(xtoon.V(0, 0, 0)), 1e-9)
	assert.InDelta(t, 10, cam.Depth(xtoon.V(0, 0, -7)), 1e-9)
	// Depth runs along the view axis only.
	assert.InDelta(t, 3, cam.Depth(xtoon.V(4, -2, 0)), 1e-9)
	assert.Equal(t, xtoon.V(0, 0, 3), cam.Position())

	v := cam.ToView(xtoon.V(0, 0, 0))
	assert.InDelta(t, -3, v.Z, 1e-9)
}

func TestCameraProjection(t *testing.T) {
	cam := frontCamera()
	clip := cam.Matrix().MulPositionW(xtoon.V(0, 0, 0))
	assert.InDelta(t, 0, clip.X, 1e-9)
	assert.InDelta(t, 0, clip.Y, 1e-9)
	assert.InDelta(t, 3, clip.W, 1e-9)
	assert.False(t, clip.Outside())

	behind := cam.Matrix().MulPositionW(xtoon.V(0, 0, 5))
	assert.True(t, behind.Outside())

	cam.SetFovy(90)
	assert.Equal(t, 90.0, cam.Fovy())
	cam.SetClip(1, 10)
	assert.Equal(t, 1.0, cam.Near())
	assert.Equal(t, 10.0, cam.Far())
}

// mulColumnMajor applies a packed 4x4 matrix to the point p.
func mulColumnMajor(m []float32, p xtoon.Vector) (x, y, z float64) {
	v := [4]float64{p.X, p.Y, p.Z, 1}
	var out [3]float64
	for row := range out {
		for col := 0; col < 4; col++ {
			out[row] += float64(m[col*4+row]) * v[col]
		}
	}
	return out[0], out[1], out[2]
}

func TestCameraBlockMatchesTransform(t *testing.T) {
	cam := frontCamera()
	model := Translate(xtoon.V(0.5, 0, -2))
	block := cam.CameraBlock(model)
	tr := NewTransform(cam.Matrix(), model)

	p := xtoon.V(0.25, -0.5, 1)
	world := tr.Apply(Vertex{Position: p, Normal: xtoon.V(0, 0, 1)}).Position

	x, y, z := mulColumnMajor(block[16:32], p)
	assert.InDelta(t, world.X, x, 1e-5)
	assert.InDelta(t, world.Y, y, 1e-5)
	assert.InDelta(t, world.Z, z, 1e-5)

	_, _, vz := mulColumnMajor(block[48:64], world)
	assert.InDelta(t, cam.Depth(world), -vz, 1e-5)
	assert.Equal(t, []float32{0, 0, 3, 1}, block[64:68])
}

func TestDepthRange(t *testing.T) {
	m := loadCube(t)
	cam := frontCamera()
	min, max := DepthRange(m, Identity(), cam)
	assert.Less(t, min, 3.0)
	assert.Greater(t, max, 3.0)
	assert.InDelta(t, 6, min+max, 0.2)

	// Moving the object away shifts the range.
	min2, max2 := DepthRange(m, Translate(xtoon.V(0, 0, -2)), cam)
	assert.InDelta(t, min+2, min2, 1e-9)
	assert.InDelta(t, max+2, max2, 1e-9)
}

func TestRefocus(t *testing.T) {
	o := NewObjectFromMesh(loadCube(t))
	cam := frontCamera()
	min, max := DepthRange(o.Mesh, o.Matrix, cam)

	dh := xtoon.NewHandle(xtoon.DepthParams{ZNear: 1, ZFar: 100})
	require.NoError(t, RefocusDepth(dh, o, cam))
	assert.Equal(t, xtoon.DepthParams{ZNear: min, ZFar: max}, dh.Get())

	fh := xtoon.NewHandle(xtoon.FocusParams{ZFocal: 7, ZNear: 0.5, ZFar: 2.5})
	require.NoError(t, RefocusFocus(fh, o, cam))
	f := fh.Get()
	assert.InDelta(t, (min+max)/2, f.ZFocal, 1e-12)
	assert.Equal(t, 0.0, f.ZNear)
	assert.InDelta(t, (max-min)/4, f.ZFar, 1e-12)
}

func TestRefocusDepthInsideMesh(t *testing.T) {
	o := NewObjectFromMesh(loadCube(t))
	inside := NewLookAtCamera(xtoon.V(0, 0, 0), xtoon.V(0, 0, -1), xtoon.V(0, 1, 0), 45, 1, 0.1, 100)
	h := xtoon.NewHandle(xtoon.DepthParams{ZNear: 1, ZFar: 100})
	err := RefocusDepth(h, o, inside)
	assert.True(t, errors.Is(err, xtoon.ErrConfiguration))
	assert.Equal(t, xtoon.DepthParams{ZNear: 1, ZFar: 100}, h.Get())
}

func TestLightFromScreen(t *testing.T) {
	current := xtoon.V(0, 3, 4)
	tests := []struct {
		name string
		x, y int
		want xtoon.Vector
	}{
		{"center", 50, 50, xtoon.V(0, 0, 5)},
		{"right edge", 100, 50, xtoon.V(5, 0, 0)},
		{"top edge", 50, 0, xtoon.V(0, 5, 0)},
		{"outside corner", 100, 0, xtoon.V(5/math.Sqrt2, 5/math.Sqrt2, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LightFromScreen(tt.x, tt.y, 100, 100, current)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.want.Z, got.Z, 1e-9)
			assert.InDelta(t, 5, got.Length(), 1e-9)
		})
	}
}
