package xtoon

import (
	"embed"
	"image"
	"io/fs"
)

// ProgramHandle identifies a program loaded by a ProgramService.
type ProgramHandle uint32

// ProgramService compiles and drives GPU programs on behalf of the engine.
// The engine only chooses which pair of sources belongs to the active mode.
type ProgramService interface {
	// Load compiles and links a vertex/fragment pair.
	Load(name, vertexSource, fragmentSource string) (ProgramHandle, error)
	// BindTexture uploads img and binds it to the sampler called name.
	BindTexture(h ProgramHandle, name string, img *image.NRGBA) error
	SetUniformScalar(h ProgramHandle, name string, v float32) error
	SetUniformVec3(h ProgramHandle, name string, v [3]float32) error
	Use(h ProgramHandle) error
	Release(h ProgramHandle) error
}

// Names shared with the embedded programs.
const (
	VertexProgramFile  = "xtoon.vert.wgsl"
	ToneSamplerName    = "tone"
	LightUniformName   = "light"
	programLabelPrefix = "xtoon-"
)

//go:embed shaders/*.wgsl
var embeddedShaders embed.FS

// Shaders returns the built-in WGSL programs: the shared vertex stage and one
// fragment stage per mode.
func Shaders() fs.FS {
	sub, err := fs.Sub(embeddedShaders, "shaders")
	if err != nil {
		panic(err)
	}
	return sub
}

// programSources reads the vertex/fragment pair of mode m.
func programSources(fsys fs.FS, m Mode) (vert, frag string, err error) {
	v, err := fs.ReadFile(fsys, VertexProgramFile)
	if err != nil {
		return "", "", &ResourceError{Mode: m, Path: VertexProgramFile, Err: err}
	}
	f, err := fs.ReadFile(fsys, m.fragmentFile())
	if err != nil {
		return "", "", &ResourceError{Mode: m, Path: m.fragmentFile(), Err: err}
	}
	return string(v), string(f), nil
}
