package xtoon

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestToneIndex(t *testing.T) {
	tests := []struct {
		name string
		c    float64
		want int
	}{
		{"zero", 0, 0},
		{"one", 1, 255},
		{"half", 0.5, 127},
		{"quarter", 0.25, 63},
		{"just below last texel", 255.0 / 256, 254},
		{"negative", -3, 0},
		{"above one", 4, 255},
		{"nan", math.NaN(), 0},
		{"inf", math.Inf(1), 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toneIndex(tt.c, ToneSize))
		})
	}
}

func TestSampleNormalizedSweep(t *testing.T) {
	tex := gradientTexture()
	index := func(c float64) int {
		return int(math.Floor(c * (ToneSize - 1e-9)))
	}

	var cs []float64
	for i := 0; i <= 300; i++ {
		cs = append(cs, float64(i)/300)
	}
	// Texel edges and centers.
	for k := 0; k <= ToneSize; k++ {
		cs = append(cs, float64(k)/ToneSize)
		if k < ToneSize {
			cs = append(cs, (float64(k)+0.5)/ToneSize)
		}
	}

	seen := make(map[int]bool)
	for _, l := range cs {
		for _, d := range cs {
			row, col := index(d), index(l)
			require.True(t, row >= 0 && row < ToneSize && col >= 0 && col < ToneSize, "l=%v d=%v", l, d)
			got := tex.SampleNormalized(l, d)
			require.Equal(t, tex.Sample(row, col), got, "l=%v d=%v", l, d)
			gr, gc := texel(got)
			require.Equal(t, row, gr)
			require.Equal(t, col, gc)
		}
		seen[index(l)] = true
	}
	assert.Len(t, seen, ToneSize)

	prev := -1
	for _, c := range cs[:301] {
		i := toneIndex(c, ToneSize)
		assert.GreaterOrEqual(t, i, prev)
		prev = i
	}
}

func TestSampleNormalizedOrientation(t *testing.T) {
	tex := gradientTexture()

	row, col := texel(tex.SampleNormalized(1, 0))
	assert.Equal(t, 0, row)
	assert.Equal(t, 255, col)

	row, col = texel(tex.SampleNormalized(0, 1))
	assert.Equal(t, 255, row)
	assert.Equal(t, 0, col)

	row, col = texel(tex.SampleNormalized(0.5, 0.25))
	assert.Equal(t, 63, row)
	assert.Equal(t, 127, col)
}

func TestSampleClampsIndices(t *testing.T) {
	tex := gradientTexture()
	assert.Equal(t, tex.Sample(0, 0), tex.Sample(-5, -5))
	assert.Equal(t, tex.Sample(255, 255), tex.Sample(900, 900))
	assert.Equal(t, 1.0, tex.Sample(3, 4).A)
}

func TestNewToneTexturePadsAndCrops(t *testing.T) {
	small := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := range small.Pix {
		small.Pix[i] = 255
	}
	tex := NewToneTexture(small)
	assert.Equal(t, ToneSize, tex.Width)
	assert.Equal(t, ToneSize, tex.Height)
	assert.Equal(t, White, tex.Sample(9, 9))
	assert.Equal(t, Black, tex.Sample(10, 10))
	assert.Equal(t, Black, tex.Sample(200, 3))

	big := gradientImage(300, 280)
	tex = NewToneTexture(big)
	assert.Equal(t, image.Rect(0, 0, ToneSize, ToneSize), tex.Bounds())
	row, col := texel(tex.Sample(255, 255))
	assert.Equal(t, 255, row)
	assert.Equal(t, 255, col)
}

func TestNewToneTextureForcesOpaque(t *testing.T) {
	im := image.NewNRGBA(image.Rect(0, 0, ToneSize, ToneSize))
	im.SetNRGBA(1, 2, color.NRGBA{10, 20, 30, 0})
	tex := NewToneTexture(im)
	assert.Equal(t, uint8(255), tex.Image().NRGBAAt(1, 2).A)
	assert.Equal(t, uint8(10), tex.Image().NRGBAAt(1, 2).R)
}

func TestImageReturnsCopy(t *testing.T) {
	tex := gradientTexture()
	before := tex.Sample(7, 9)
	im := tex.Image()
	im.SetNRGBA(9, 7, color.NRGBA{255, 255, 255, 255})
	assert.Equal(t, before, tex.Sample(7, 9))
}

func TestDecodeToneTexture(t *testing.T) {
	src := gradientImage(ToneSize, ToneSize)

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, src))
	tex, err := ToneTextureFromBytes(pngBuf.Bytes())
	require.NoError(t, err)
	row, col := texel(tex.Sample(40, 80))
	assert.Equal(t, 40, row)
	assert.Equal(t, 80, col)

	var bmpBuf bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpBuf, src))
	tex, err = DecodeToneTexture(&bmpBuf)
	require.NoError(t, err)
	row, col = texel(tex.Sample(200, 17))
	assert.Equal(t, 200, row)
	assert.Equal(t, 17, col)

	_, err = ToneTextureFromBytes([]byte("not an image"))
	assert.Error(t, err)
}

func TestLoadToneTextureMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.bmp")
	_, err := LoadToneTexture(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResource))

	var rerr *ResourceError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, path, rerr.Path)
	assert.Equal(t, ModeNone, rerr.Mode)
}

func TestLoadToneTextureFromURL(t *testing.T) {
	var body bytes.Buffer
	require.NoError(t, png.Encode(&body, gradientImage(ToneSize, ToneSize)))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tone.png" {
			http.NotFound(w, r)
			return
		}
		w.Write(body.Bytes())
	}))
	defer srv.Close()

	tex, err := LoadToneTextureFromURL(srv.URL + "/tone.png")
	require.NoError(t, err)
	row, col := texel(tex.Sample(12, 34))
	assert.Equal(t, 12, row)
	assert.Equal(t, 34, col)

	_, err = LoadToneTextureFromURL(srv.URL + "/missing.png")
	assert.True(t, errors.Is(err, ErrResource))
	assert.ErrorContains(t, err, "404")
}
