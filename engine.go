package xtoon

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
)

// Engine maps surface points to tone texture colors. It holds one active
// State at a time, a snapshot of the bound parameters and, on the GPU
// backend, the program those parameters are mirrored into.
//
// Activation, Refresh, SetLight and Close must be called from a single
// goroutine. Evaluate and Coordinates only read engine state and may run
// concurrently with each other.
type Engine struct {
	tex     *ToneTexture
	light   Vector
	service ProgramService
	sources fs.FS

	state   State
	bound   binding
	snap    snapshot
	staging snapshot

	program ProgramHandle
	loaded  bool
	pushed  [maxUniforms]Uniform
	npushed int
	scratch [maxUniforms]Uniform
	pLight  Vector
}

// Option configures an Engine.
type Option func(*Engine)

// WithProgramService enables the GPU backend.
func WithProgramService(s ProgramService) Option {
	return func(e *Engine) {
		e.service = s
	}
}

// WithShaderSources replaces the embedded WGSL programs.
func WithShaderSources(fsys fs.FS) Option {
	return func(e *Engine) {
		e.sources = fsys
	}
}

func New(tex *ToneTexture, light Vector, opts ...Option) *Engine {
	e := &Engine{tex: tex, light: light}
	for _, opt := range opts {
		opt(e)
	}
	if e.sources == nil {
		e.sources = Shaders()
	}
	return e
}

// NewFromFile loads the tone texture at path.
func NewFromFile(path string, light Vector, opts ...Option) (*Engine, error) {
	tex, err := LoadToneTexture(path)
	if err != nil {
		return nil, err
	}
	return New(tex, light, opts...), nil
}

func (e *Engine) State() State          { return e.state }
func (e *Engine) Texture() *ToneTexture { return e.tex }
func (e *Engine) Light() Vector         { return e.light }

// SetLight moves the light. A GPU program receives it on the next Refresh.
func (e *Engine) SetLight(v Vector) {
	e.light = v
}

// Params returns a copy of the active parameter snapshot, nil in ModeNone.
func (e *Engine) Params() Params {
	switch e.snap.mode {
	case ModeDepth:
		return e.snap.depth
	case ModeFocus:
		return e.snap.focus
	case ModeSilhouette:
		return e.snap.silhouette
	case ModeHighlight:
		return e.snap.highlight
	}
	return nil
}

func (e *Engine) SetForDepth(h *Handle[DepthParams], backend BackendKind) error {
	return e.activate(h, backend)
}

func (e *Engine) SetForFocus(h *Handle[FocusParams], backend BackendKind) error {
	return e.activate(h, backend)
}

func (e *Engine) SetForSilhouette(h *Handle[SilhouetteParams], backend BackendKind) error {
	return e.activate(h, backend)
}

func (e *Engine) SetForHighlight(h *Handle[HighlightParams], backend BackendKind) error {
	return e.activate(h, backend)
}

// Activate binds h and switches to its mode on backend. On error the
// previous state, binding and program are left untouched.
func Activate[T Params](e *Engine, h *Handle[T], backend BackendKind) error {
	return e.activate(h, backend)
}

func (e *Engine) activate(b binding, backend BackendKind) error {
	var next snapshot
	if err := b.stage(&next); err != nil {
		return err
	}
	var prog ProgramHandle
	if backend == GPU {
		var err error
		if prog, err = e.openProgram(&next); err != nil {
			return err
		}
	}

	if e.loaded {
		e.releaseProgram()
	}
	e.snap = next
	e.bound = b
	e.state = State{Mode: next.mode, Backend: backend}
	e.program = prog
	e.loaded = backend == GPU
	if e.loaded {
		e.npushed = copy(e.pushed[:], next.params().uniforms(e.scratch[:0]))
		e.pLight = e.light
	} else {
		e.npushed = 0
	}
	Logger().Info("xtoon: activated", "state", e.state.String())
	return nil
}

// openProgram loads, binds and initializes the program of s without touching
// engine state. A failed program is released before returning.
func (e *Engine) openProgram(s *snapshot) (ProgramHandle, error) {
	mode := s.mode
	if e.service == nil {
		return 0, &ResourceError{Mode: mode, Path: mode.fragmentFile(), Err: errors.New("no program service configured")}
	}
	vert, frag, err := programSources(e.sources, mode)
	if err != nil {
		return 0, err
	}
	prog, err := e.service.Load(programLabelPrefix+mode.String(), vert, frag)
	if err != nil {
		return 0, &ResourceError{Mode: mode, Path: mode.fragmentFile(), Err: err}
	}
	fail := func(err error) (ProgramHandle, error) {
		if rerr := e.service.Release(prog); rerr != nil {
			Logger().Warn("xtoon: release failed program", "mode", mode.String(), "err", rerr)
		}
		return 0, &ResourceError{Mode: mode, Path: mode.fragmentFile(), Err: err}
	}
	if err := e.service.BindTexture(prog, ToneSamplerName, e.tex.Image()); err != nil {
		return fail(err)
	}
	for _, u := range s.params().uniforms(e.scratch[:0]) {
		if err := e.service.SetUniformScalar(prog, u.Name, u.Value); err != nil {
			return fail(err)
		}
	}
	if err := e.service.SetUniformVec3(prog, LightUniformName, e.light.Float32()); err != nil {
		return fail(err)
	}
	if err := e.service.Use(prog); err != nil {
		return fail(err)
	}
	return prog, nil
}

// Refresh copies the bound parameters into the snapshot and, on the GPU
// backend, uploads the scalars and light that changed since the last push.
// Values that fail validation are rejected and the previous snapshot stays
// in effect, as it does when an upload fails. Uploads that went through
// before the failure are remembered, so the next Refresh retries only the
// rest. Refresh does not allocate on success.
func (e *Engine) Refresh() error {
	if e.state.Mode == ModeNone {
		return nil
	}
	if err := e.bound.stage(&e.staging); err != nil {
		return err
	}
	if e.state.Backend == GPU {
		if err := e.sync(&e.staging); err != nil {
			return err
		}
	}
	e.snap = e.staging
	return nil
}

func (e *Engine) sync(s *snapshot) error {
	us := s.params().uniforms(e.scratch[:0])
	for i, u := range us {
		if i < e.npushed && e.pushed[i] == u {
			continue
		}
		if err := e.service.SetUniformScalar(e.program, u.Name, u.Value); err != nil {
			return &ResourceError{Mode: e.state.Mode, Path: e.state.Mode.fragmentFile(), Err: err}
		}
		e.pushed[i] = u
		if log := Logger(); log.Enabled(context.Background(), slog.LevelDebug) {
			log.Debug("xtoon: uniform", "name", u.Name, "value", u.Value)
		}
	}
	e.npushed = len(us)
	if e.light != e.pLight {
		if err := e.service.SetUniformVec3(e.program, LightUniformName, e.light.Float32()); err != nil {
			return &ResourceError{Mode: e.state.Mode, Path: e.state.Mode.fragmentFile(), Err: err}
		}
		e.pLight = e.light
	}
	return nil
}

// Coordinates returns the lambertian and expressive coordinates of the
// surface point p with unit normal n.
func (e *Engine) Coordinates(cam Camera, p, n Vector) (l, d float64, err error) {
	if e.state.Mode == ModeNone || e.state.Backend != CPU {
		return 0, 0, &StateMismatchError{Op: "Coordinates", State: e.state}
	}
	l = Lambertian(e.light, p, n)
	d = e.snap.params().coordinate(cam, e.light, p, n)
	return l, d, nil
}

// Evaluate returns the tone color of the surface point p with unit normal n.
// It is only valid on the CPU backend; the GPU backend evaluates inside its
// program.
func (e *Engine) Evaluate(cam Camera, p, n Vector) (Color, error) {
	l, d, err := e.Coordinates(cam, p, n)
	if err != nil {
		return Color{}, &StateMismatchError{Op: "Evaluate", State: e.state}
	}
	return e.tex.SampleNormalized(l, d), nil
}

// Program returns the GPU program the host pipeline draws with. It fails
// with a state mismatch unless a mode is active on the GPU backend.
func (e *Engine) Program() (ProgramHandle, error) {
	if e.state.Mode == ModeNone || e.state.Backend != GPU {
		return 0, &StateMismatchError{Op: "Program", State: e.state}
	}
	return e.program, nil
}

// Deactivate returns to the uninitialized state and releases any program.
func (e *Engine) Deactivate() error {
	var err error
	if e.loaded {
		err = e.releaseProgram()
	}
	prev := e.state
	e.state = State{}
	e.bound = nil
	e.snap = snapshot{}
	e.npushed = 0
	if prev.Mode != ModeNone {
		Logger().Info("xtoon: deactivated", "state", prev.String())
	}
	return err
}

// Close releases GPU resources at teardown.
func (e *Engine) Close() error {
	return e.Deactivate()
}

func (e *Engine) releaseProgram() error {
	e.loaded = false
	if err := e.service.Release(e.program); err != nil {
		Logger().Warn("xtoon: release program", "state", e.state.String(), "err", err)
		return &ResourceError{Mode: e.state.Mode, Path: e.state.Mode.fragmentFile(), Err: err}
	}
	return nil
}
