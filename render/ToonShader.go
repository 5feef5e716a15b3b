package render

import "github.com/netisu/xtoon"

// ToonShader shades with an X-Toon engine on its CPU backend.
//
// By default the tone color is looked up once per vertex and interpolated
// across the triangle. With PerFragment set the lookup runs for every pixel
// on the interpolated position and normal, like the GPU programs do.
type ToonShader struct {
	Engine      *xtoon.Engine
	Camera      xtoon.Camera
	PerFragment bool
	// Fallback is used if the engine refuses a lookup.
	Fallback xtoon.Color
}

func NewToonShader(engine *xtoon.Engine, camera xtoon.Camera) *ToonShader {
	return &ToonShader{
		Engine:   engine,
		Camera:   camera,
		Fallback: xtoon.HexColor("ff00ff"),
	}
}

// Prepare runs at the start of every frame. It fails with a state mismatch
// unless the engine has a mode active on the CPU backend, then refreshes the
// engine so the frame sees the current values of the bound handle.
func (s *ToonShader) Prepare() error {
	st := s.Engine.State()
	if st.Mode == xtoon.ModeNone || st.Backend != xtoon.CPU {
		return &xtoon.StateMismatchError{Op: "ToonShader.Prepare", State: st}
	}
	return s.Engine.Refresh()
}

func (s *ToonShader) Vertex(v Vertex, t *Transform) Vertex {
	v = t.Apply(v)
	if !s.PerFragment {
		v.Color = s.shade(v.Position, v.Normal)
	}
	return v
}

func (s *ToonShader) Fragment(v Vertex, fromObject *Object) xtoon.Color {
	if s.PerFragment {
		return s.shade(v.Position, v.Normal)
	}
	return v.Color.Opaque()
}

func (s *ToonShader) shade(p, n xtoon.Vector) xtoon.Color {
	c, err := s.Engine.Evaluate(s.Camera, p, n)
	if err != nil {
		return s.Fallback
	}
	return c
}
