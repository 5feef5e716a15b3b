package shaderprog

import (
	"errors"
	"image"
	"image/color"
	"io/fs"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netisu/xtoon"
)

var fragments = []string{
	"xtoon_depth.frag.wgsl",
	"xtoon_focus.frag.wgsl",
	"xtoon_silhouette.frag.wgsl",
	"xtoon_highlight.frag.wgsl",
}

func readShader(t *testing.T, name string) string {
	t.Helper()
	b, err := fs.ReadFile(xtoon.Shaders(), name)
	require.NoError(t, err)
	return string(b)
}

func mustLower(t *testing.T, src string) *ir.Module {
	t.Helper()
	m, err := lower(src)
	require.NoError(t, err)
	return m
}

func TestEmbeddedProgramsCompileAndLink(t *testing.T) {
	vert := readShader(t, xtoon.VertexProgramFile)
	s := NewService()
	for _, name := range fragments {
		t.Run(name, func(t *testing.T) {
			h, err := s.Load(name, vert, readShader(t, name))
			require.NoError(t, err)
			p, ok := s.Program(h)
			require.True(t, ok)
			assert.NotEmpty(t, p.Vertex)
			assert.NotEmpty(t, p.Fragment)
			// SPIR-V magic number.
			assert.Equal(t, uint32(0x07230203), p.Vertex[0])
			assert.Equal(t, uint32(0x07230203), p.Fragment[0])
		})
	}
	assert.Equal(t, len(fragments), s.Len())
}

func TestUniformBlockLayout(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		size   int
	}{
		{"xtoon_depth.frag.wgsl", []Field{
			{"light", "vec3<f32>", 0, 12},
			{"zmin", "f32", 12, 4},
			{"zmax", "f32", 16, 4},
		}, 32},
		{"xtoon_focus.frag.wgsl", []Field{
			{"light", "vec3<f32>", 0, 12},
			{"zmin", "f32", 12, 4},
			{"zmax", "f32", 16, 4},
			{"zfoc", "f32", 20, 4},
		}, 32},
		{"xtoon_silhouette.frag.wgsl", []Field{
			{"light", "vec3<f32>", 0, 12},
			{"r", "f32", 12, 4},
		}, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, size, err := uniformBlock(mustLower(t, readShader(t, tt.name)))
			require.NoError(t, err)
			assert.Equal(t, tt.fields, fields)
			assert.Equal(t, tt.size, size)
		})
	}
}

func TestVertexCameraBlock(t *testing.T) {
	m := mustLower(t, readShader(t, xtoon.VertexProgramFile))
	var camera *ir.StructType
	for _, g := range m.GlobalVariables {
		if g.Space == ir.SpaceUniform {
			st, ok := m.Types[g.Type].Inner.(ir.StructType)
			require.True(t, ok)
			camera = &st
		}
	}
	require.NotNil(t, camera)

	type member struct {
		name   string
		offset uint32
	}
	var got []member
	for _, mem := range camera.Members {
		got = append(got, member{mem.Name, mem.Offset})
	}
	// Outputs are in world space.
	assert.Equal(t, []member{
		{"mvp", 0},
		{"model", 64},
		{"normal_matrix", 128},
		{"view", 192},
		{"eye", 256},
	}, got)
	assert.Equal(t, uint32(272), camera.Span)
}

func TestUniformBlockUnsupportedType(t *testing.T) {
	src := `
struct P {
    m: mat3x3<f32>,
}
@group(0) @binding(0) var<uniform> p: P;
`
	_, _, err := uniformBlock(mustLower(t, src))
	assert.ErrorContains(t, err, "mat3x3<f32>")
}

func TestReflectTextures(t *testing.T) {
	m := mustLower(t, readShader(t, "xtoon_highlight.frag.wgsl"))
	assert.Equal(t, []string{xtoon.ToneSamplerName}, textures(m))

	fields, _, err := uniformBlock(m)
	require.NoError(t, err)
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"light", "s"}, names)

	none := mustLower(t, "fn nothing() {}")
	assert.Empty(t, textures(none))
	fields, size, err := uniformBlock(none)
	require.NoError(t, err)
	assert.Empty(t, fields)
	assert.Zero(t, size)
}

func TestLinkMismatch(t *testing.T) {
	vert := `
struct Out {
    @builtin(position) clip: vec4<f32>,
    @location(0) world: vec3<f32>,
}
@vertex
fn vs_main(@location(0) p: vec3<f32>) -> Out {
    var o: Out;
    o.clip = vec4<f32>(p, 1.0);
    o.world = p;
    return o;
}
`
	missing := `
struct In {
    @location(0) world: vec3<f32>,
    @location(1) normal: vec3<f32>,
}
@fragment
fn fs_main(input: In) -> @location(0) vec4<f32> {
    return vec4<f32>(input.normal, 1.0);
}
`
	wrongType := `
struct In {
    @location(0) world: vec4<f32>,
}
@fragment
fn fs_main(input: In) -> @location(0) vec4<f32> {
    return input.world;
}
`
	direct := `
@fragment
fn fs_main(@location(0) world: vec3<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(world, 1.0);
}
`
	vm := mustLower(t, vert)
	var lerr *LinkError
	err := link("missing", vm, mustLower(t, missing))
	require.True(t, errors.As(err, &lerr))
	assert.Contains(t, lerr.Reason, "@location(1)")

	err = link("type", vm, mustLower(t, wrongType))
	require.True(t, errors.As(err, &lerr))
	assert.Contains(t, lerr.Reason, "vec4<f32>")
	assert.Contains(t, lerr.Reason, "vec3<f32>")

	assert.NoError(t, link("direct", vm, mustLower(t, direct)))

	err = link("entry", mustLower(t, "fn nothing() {}"), mustLower(t, missing))
	require.True(t, errors.As(err, &lerr))
	assert.Contains(t, lerr.Reason, "@vertex")
}

func TestLoadCompileError(t *testing.T) {
	s := NewService()
	vert := readShader(t, xtoon.VertexProgramFile)

	_, err := s.Load("broken", vert, "this is not wgsl {")
	var cerr *CompileError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, StageFragment, cerr.Stage)
	assert.Equal(t, "broken", cerr.Name)

	_, err = s.Load("broken", "fn (", readShader(t, fragments[0]))
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, StageVertex, cerr.Stage)
	assert.Zero(t, s.Len())
}

func TestUniformsAndTexture(t *testing.T) {
	s := NewService()
	h, err := s.Load("depth", readShader(t, xtoon.VertexProgramFile), readShader(t, "xtoon_depth.frag.wgsl"))
	require.NoError(t, err)

	require.NoError(t, s.SetUniformScalar(h, "zmin", 1.5))
	require.NoError(t, s.SetUniformScalar(h, "zmax", 40))
	require.NoError(t, s.SetUniformVec3(h, "light", [3]float32{1, 2, 3}))

	p, _ := s.Program(h)
	v, ok := p.Scalar("zmax")
	require.True(t, ok)
	assert.Equal(t, float32(40), v)
	l, ok := p.Vec3("light")
	require.True(t, ok)
	assert.Equal(t, [3]float32{1, 2, 3}, l)
	assert.Equal(t, 1, p.Writes("zmin"))

	assert.True(t, errors.Is(s.SetUniformScalar(h, "zfoc", 1), ErrUnknownUniform))
	assert.True(t, errors.Is(s.SetUniformScalar(h, "light", 1), ErrUnknownUniform))
	assert.True(t, errors.Is(s.SetUniformVec3(h, "zmin", [3]float32{}), ErrUnknownUniform))

	im := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	im.SetNRGBA(3, 1, color.NRGBA{9, 8, 7, 255})
	require.NoError(t, s.BindTexture(h, xtoon.ToneSamplerName, im))
	tex := p.Textures[xtoon.ToneSamplerName]
	require.NotNil(t, tex)
	assert.Equal(t, gputypes.Extent3D{Width: 4, Height: 2, DepthOrArrayLayers: 1}, tex.Descriptor.Size)
	assert.Equal(t, gputypes.TextureFormatRGBA8Unorm, tex.Descriptor.Format)
	assert.Len(t, tex.Data, 4*2*4)
	assert.Equal(t, []byte{9, 8, 7, 255}, tex.Data[len(tex.Data)-4:])
	assert.Equal(t, 1, tex.Uploads)

	assert.True(t, errors.Is(s.BindTexture(h, "albedo", im), ErrUnknownTexture))
}

func TestUseAndRelease(t *testing.T) {
	s := NewService()
	h, err := s.Load("silhouette", readShader(t, xtoon.VertexProgramFile), readShader(t, "xtoon_silhouette.frag.wgsl"))
	require.NoError(t, err)

	require.NoError(t, s.Use(h))
	assert.Equal(t, h, s.Current())
	require.NoError(t, s.Release(h))
	assert.Zero(t, s.Current())
	assert.Zero(t, s.Len())

	assert.True(t, errors.Is(s.Release(h), ErrUnknownProgram))
	assert.True(t, errors.Is(s.Use(h), ErrUnknownProgram))
	assert.True(t, errors.Is(s.SetUniformScalar(h, "r", 1), ErrUnknownProgram))
}

func TestEngineOnService(t *testing.T) {
	s := NewService()
	tex := xtoon.NewToneTexture(image.NewNRGBA(image.Rect(0, 0, xtoon.ToneSize, xtoon.ToneSize)))
	e := xtoon.New(tex, xtoon.V(0, 0, 5), xtoon.WithProgramService(s))

	h := xtoon.NewHandle(xtoon.FocusParams{ZFocal: 7, ZNear: 0, ZFar: 2.5})
	require.NoError(t, e.SetForFocus(h, xtoon.GPU))
	p, ok := s.Program(s.Current())
	require.True(t, ok)
	zfoc, _ := p.Scalar("zfoc")
	assert.Equal(t, float32(7), zfoc)

	h.Update(func(f *xtoon.FocusParams) { f.ZFocal = 9 })
	require.NoError(t, e.Refresh())
	zfoc, _ = p.Scalar("zfoc")
	assert.Equal(t, float32(9), zfoc)
	assert.Equal(t, 2, p.Writes("zfoc"))
	assert.Equal(t, 1, p.Writes("zmin"))

	require.NoError(t, e.Close())
	assert.Zero(t, s.Len())
}
