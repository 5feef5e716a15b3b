// Package shaderprog implements xtoon.ProgramService on WGSL sources.
//
// Programs are compiled to SPIR-V with naga. The lowered naga IR of each
// stage drives linking, matching the vertex outputs against the fragment
// inputs, and reflection of the fragment stage's uniform block and textures.
// Uniform values are packed into a byte block laid out like the fragment
// stage's uniform struct, and the tone texture is staged as RGBA8 texels with
// a matching descriptor, ready to be handed to a device queue.
package shaderprog

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/netisu/xtoon"
)

// TextureDescriptor describes the upload of a bound texture.
type TextureDescriptor struct {
	Label         string
	Size          gputypes.Extent3D
	MipLevelCount uint32
	SampleCount   uint32
	Dimension     gputypes.TextureDimension
	Format        gputypes.TextureFormat
	Usage         gputypes.TextureUsage
}

// Texture is a staged texture upload.
type Texture struct {
	Name       string
	Descriptor TextureDescriptor
	Data       []byte
	Uploads    int
}

// Program is a compiled and linked vertex/fragment pair.
type Program struct {
	Name     string
	Vertex   []uint32
	Fragment []uint32
	Fields   []Field
	Block    []byte
	Textures map[string]*Texture

	samplers map[string]bool
	writes   map[string]int
}

func (p *Program) field(name string) (Field, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Scalar reads back a f32 uniform from the block.
func (p *Program) Scalar(name string) (float32, bool) {
	f, ok := p.field(name)
	if !ok || f.Type != "f32" {
		return 0, false
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p.Block[f.Offset:])), true
}

// Vec3 reads back a vec3<f32> uniform from the block.
func (p *Program) Vec3(name string) ([3]float32, bool) {
	f, ok := p.field(name)
	if !ok || f.Type != "vec3<f32>" {
		return [3]float32{}, false
	}
	var v [3]float32
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(p.Block[f.Offset+4*i:]))
	}
	return v, true
}

// Writes counts the uploads of uniform name since the program was loaded.
func (p *Program) Writes(name string) int {
	return p.writes[name]
}

// Service keeps compiled programs keyed by handle. It is safe for
// concurrent use.
type Service struct {
	mu       sync.Mutex
	programs map[xtoon.ProgramHandle]*Program
	next     xtoon.ProgramHandle
	current  xtoon.ProgramHandle
}

var _ xtoon.ProgramService = (*Service)(nil)

func NewService() *Service {
	return &Service{programs: make(map[xtoon.ProgramHandle]*Program)}
}

func (s *Service) Load(name, vertexSource, fragmentSource string) (xtoon.ProgramHandle, error) {
	vert, err := compileStage(vertexSource)
	if err != nil {
		return 0, &CompileError{Stage: StageVertex, Name: name, Err: err}
	}
	frag, err := compileStage(fragmentSource)
	if err != nil {
		return 0, &CompileError{Stage: StageFragment, Name: name, Err: err}
	}
	if err := link(name, vert.module, frag.module); err != nil {
		return 0, err
	}
	fields, size, err := uniformBlock(frag.module)
	if err != nil {
		return 0, &LinkError{Name: name, Reason: err.Error()}
	}
	p := &Program{
		Name:     name,
		Vertex:   vert.words,
		Fragment: frag.words,
		Fields:   fields,
		Block:    make([]byte, size),
		Textures: make(map[string]*Texture),
		samplers: make(map[string]bool),
		writes:   make(map[string]int),
	}
	for _, t := range textures(frag.module) {
		p.samplers[t] = true
	}

	s.mu.Lock()
	s.next++
	h := s.next
	s.programs[h] = p
	s.mu.Unlock()

	xtoon.Logger().Debug("shaderprog: loaded",
		"name", name, "handle", uint32(h),
		"vertexWords", len(vert.words), "fragmentWords", len(frag.words), "uniformBytes", size)
	return h, nil
}

func (s *Service) lookup(h xtoon.ProgramHandle) (*Program, error) {
	p, ok := s.programs[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProgram, h)
	}
	return p, nil
}

func (s *Service) BindTexture(h xtoon.ProgramHandle, name string, img *image.NRGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(h)
	if err != nil {
		return err
	}
	if !p.samplers[name] {
		return fmt.Errorf("%w: %s in %s", ErrUnknownTexture, name, p.Name)
	}
	b := img.Bounds()
	data := make([]byte, 0, b.Dx()*b.Dy()*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		data = append(data, img.Pix[i:i+b.Dx()*4]...)
	}
	t := p.Textures[name]
	if t == nil {
		t = &Texture{Name: name}
		p.Textures[name] = t
	}
	t.Descriptor = TextureDescriptor{
		Label: p.Name + "/" + name,
		Size: gputypes.Extent3D{
			Width:              uint32(b.Dx()),
			Height:             uint32(b.Dy()),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	}
	t.Data = data
	t.Uploads++
	return nil
}

func (s *Service) SetUniformScalar(h xtoon.ProgramHandle, name string, v float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(h)
	if err != nil {
		return err
	}
	f, ok := p.field(name)
	if !ok || f.Type != "f32" {
		return fmt.Errorf("%w: f32 %s in %s", ErrUnknownUniform, name, p.Name)
	}
	binary.LittleEndian.PutUint32(p.Block[f.Offset:], math.Float32bits(v))
	p.writes[name]++
	return nil
}

func (s *Service) SetUniformVec3(h xtoon.ProgramHandle, name string, v [3]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(h)
	if err != nil {
		return err
	}
	f, ok := p.field(name)
	if !ok || f.Type != "vec3<f32>" {
		return fmt.Errorf("%w: vec3<f32> %s in %s", ErrUnknownUniform, name, p.Name)
	}
	for i, c := range v {
		binary.LittleEndian.PutUint32(p.Block[f.Offset+4*i:], math.Float32bits(c))
	}
	p.writes[name]++
	return nil
}

func (s *Service) Use(h xtoon.ProgramHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(h); err != nil {
		return err
	}
	s.current = h
	return nil
}

func (s *Service) Release(h xtoon.ProgramHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(h); err != nil {
		return err
	}
	delete(s.programs, h)
	if s.current == h {
		s.current = 0
	}
	return nil
}

// Program returns the program behind h.
func (s *Service) Program(h xtoon.ProgramHandle) (*Program, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.programs[h]
	return p, ok
}

// Current returns the program selected by the last Use, 0 if none.
func (s *Service) Current() xtoon.ProgramHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Len reports how many programs are alive.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.programs)
}
