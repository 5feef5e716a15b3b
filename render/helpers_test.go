package render

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netisu/xtoon"
)

// cubeOFF is an axis aligned cube with outward facing quads.
const cubeOFF = `OFF
# cube
8 6 12
-1 -1 -1
 1 -1 -1
 1  1 -1
-1  1 -1
-1 -1  1
 1 -1  1
 1  1  1
-1  1  1
4 4 5 6 7
4 0 3 2 1
4 1 2 6 5
4 0 4 7 3
4 3 7 6 2
4 0 1 5 4
`

func loadCube(t *testing.T) *Mesh {
	t.Helper()
	m, err := LoadOFFFromReader(strings.NewReader(cubeOFF))
	require.NoError(t, err)
	return m
}

func solidTexture(c color.NRGBA) *xtoon.ToneTexture {
	im := image.NewNRGBA(image.Rect(0, 0, xtoon.ToneSize, xtoon.ToneSize))
	for y := 0; y < xtoon.ToneSize; y++ {
		for x := 0; x < xtoon.ToneSize; x++ {
			im.SetNRGBA(x, y, c)
		}
	}
	return xtoon.NewToneTexture(im)
}

func frontCamera() *LookAtCamera {
	return NewLookAtCamera(xtoon.V(0, 0, 3), xtoon.V(0, 0, 0), xtoon.V(0, 1, 0), 45, 1, 0.1, 100)
}
