package shaderprog

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

// Field is one member of the fragment uniform block, laid out with the WGSL
// uniform address space rules.
type Field struct {
	Name   string
	Type   string
	Offset int
	Size   int
}

// stage is one compiled shader stage: the lowered naga module, kept for
// reflection, and its SPIR-V words.
type stage struct {
	module *ir.Module
	words  []uint32
}

// lower parses and lowers WGSL source to naga IR.
func lower(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lowering error: %w", err)
	}
	return module, nil
}

func compileStage(source string) (*stage, error) {
	module, err := lower(source)
	if err != nil {
		return nil, err
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("validation failed: %w", &verrs[0])
	}
	spirvBytes, err := naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3})
	if err != nil {
		return nil, err
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("spir-v length %d is not a multiple of 4", len(spirvBytes))
	}
	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return &stage{module: module, words: words}, nil
}

// typeName spells the IR type behind h the way WGSL writes it.
func typeName(m *ir.Module, h ir.TypeHandle) string {
	if int(h) >= len(m.Types) {
		return fmt.Sprintf("type#%d", h)
	}
	t := m.Types[h]
	switch inner := t.Inner.(type) {
	case ir.ScalarType:
		return scalarName(inner)
	case ir.VectorType:
		return fmt.Sprintf("vec%d<%s>", inner.Size, scalarName(inner.Scalar))
	case ir.MatrixType:
		return fmt.Sprintf("mat%dx%d<%s>", inner.Columns, inner.Rows, scalarName(inner.Scalar))
	}
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("%T", t.Inner)
}

func scalarName(s ir.ScalarType) string {
	bits := int(s.Width) * 8
	switch s.Kind {
	case ir.ScalarFloat:
		return fmt.Sprintf("f%d", bits)
	case ir.ScalarSint:
		return fmt.Sprintf("i%d", bits)
	case ir.ScalarUint:
		return fmt.Sprintf("u%d", bits)
	case ir.ScalarBool:
		return "bool"
	}
	return "abstract"
}

// uniformTypes are the member types SetUniformScalar and SetUniformVec3 can
// write, plus the other plain values a block may carry.
var uniformTypes = map[string]bool{
	"f32":       true,
	"i32":       true,
	"u32":       true,
	"vec2<f32>": true,
	"vec3<f32>": true,
	"vec4<f32>": true,
}

// uniformBlock reflects the struct behind the module's uniform variable. It
// returns the fields and the block size rounded up to 16 bytes.
func uniformBlock(m *ir.Module) ([]Field, int, error) {
	for _, g := range m.GlobalVariables {
		if g.Space != ir.SpaceUniform {
			continue
		}
		st, ok := m.Types[g.Type].Inner.(ir.StructType)
		if !ok {
			return nil, 0, fmt.Errorf("uniform %s is not a struct", g.Name)
		}
		fields := make([]Field, 0, len(st.Members))
		for _, mem := range st.Members {
			typ := typeName(m, mem.Type)
			if !uniformTypes[typ] {
				return nil, 0, fmt.Errorf("uniform %s: unsupported type %s", mem.Name, typ)
			}
			fields = append(fields, Field{
				Name:   mem.Name,
				Type:   typ,
				Offset: int(mem.Offset),
				Size:   int(ir.TypeSize(m, mem.Type)),
			})
		}
		return fields, roundUp(int(st.Span), 16), nil
	}
	return nil, 0, nil
}

// textures lists the module's sampled 2D texture variables.
func textures(m *ir.Module) []string {
	var names []string
	for _, g := range m.GlobalVariables {
		if img, ok := m.Types[g.Type].Inner.(ir.ImageType); ok && img.Dim == ir.Dim2D {
			names = append(names, g.Name)
		}
	}
	return names
}

func entryPoint(m *ir.Module, s ir.ShaderStage) (*ir.EntryPoint, bool) {
	for i := range m.EntryPoints {
		if m.EntryPoints[i].Stage == s {
			return &m.EntryPoints[i], true
		}
	}
	return nil, false
}

// locations adds the @location bindings of a value of type h to locs,
// descending into a struct's members.
func locations(m *ir.Module, h ir.TypeHandle, b *ir.Binding, locs map[uint32]string) {
	if b != nil {
		if loc, ok := (*b).(ir.LocationBinding); ok {
			locs[loc.Location] = typeName(m, h)
		}
		return
	}
	if int(h) >= len(m.Types) {
		return
	}
	if st, ok := m.Types[h].Inner.(ir.StructType); ok {
		for _, mem := range st.Members {
			locations(m, mem.Type, mem.Binding, locs)
		}
	}
}

// link checks that the vertex stage feeds every input of the fragment stage.
func link(name string, vert, frag *ir.Module) error {
	vs, ok := entryPoint(vert, ir.StageVertex)
	if !ok || vs.Function.Result == nil {
		return &LinkError{Name: name, Reason: "vertex source has no @vertex entry point with outputs"}
	}
	fs, ok := entryPoint(frag, ir.StageFragment)
	if !ok {
		return &LinkError{Name: name, Reason: "fragment source has no @fragment entry point"}
	}
	outs := make(map[uint32]string)
	locations(vert, vs.Function.Result.Type, vs.Function.Result.Binding, outs)
	ins := make(map[uint32]string)
	for _, arg := range fs.Function.Arguments {
		locations(frag, arg.Type, arg.Binding, ins)
	}
	for loc, typ := range ins {
		out, ok := outs[loc]
		if !ok {
			return &LinkError{Name: name, Reason: fmt.Sprintf("fragment input @location(%d) not written by vertex stage", loc)}
		}
		if out != typ {
			return &LinkError{Name: name, Reason: fmt.Sprintf("@location(%d): vertex writes %s, fragment reads %s", loc, out, typ)}
		}
	}
	return nil
}

func roundUp(n, align int) int {
	return (n + align - 1) / align * align
}
