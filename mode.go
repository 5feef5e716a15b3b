package xtoon

import "fmt"

// Mode selects the expressive coordinate of the tone lookup.
type Mode int

const (
	ModeNone Mode = iota
	ModeDepth
	ModeFocus
	ModeSilhouette
	ModeHighlight
)

var modeNames = [...]string{
	ModeNone:       "None",
	ModeDepth:      "Depth",
	ModeFocus:      "Focus",
	ModeSilhouette: "Silhouette",
	ModeHighlight:  "Highlight",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts the lower or title case mode names.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "depth", "Depth":
		return ModeDepth, nil
	case "focus", "Focus":
		return ModeFocus, nil
	case "silhouette", "Silhouette":
		return ModeSilhouette, nil
	case "highlight", "Highlight":
		return ModeHighlight, nil
	case "none", "None", "":
		return ModeNone, nil
	}
	return ModeNone, fmt.Errorf("xtoon: unknown mode %q", s)
}

// fragmentFile names the fragment program of the mode inside the shader sources.
func (m Mode) fragmentFile() string {
	switch m {
	case ModeDepth:
		return "xtoon_depth.frag.wgsl"
	case ModeFocus:
		return "xtoon_focus.frag.wgsl"
	case ModeSilhouette:
		return "xtoon_silhouette.frag.wgsl"
	case ModeHighlight:
		return "xtoon_highlight.frag.wgsl"
	}
	return ""
}

// BackendKind selects where the tone lookup runs.
type BackendKind int

const (
	// CPU evaluates per vertex through Engine.Evaluate.
	CPU BackendKind = iota
	// GPU keeps the uniforms of an external shader program in sync.
	GPU
)

func (b BackendKind) String() string {
	switch b {
	case CPU:
		return "CPU"
	case GPU:
		return "GPU"
	}
	return fmt.Sprintf("BackendKind(%d)", int(b))
}

func ParseBackend(s string) (BackendKind, error) {
	switch s {
	case "cpu", "CPU", "":
		return CPU, nil
	case "gpu", "GPU":
		return GPU, nil
	}
	return CPU, fmt.Errorf("xtoon: unknown backend %q", s)
}

// State is the active mode crossed with its backend. The zero value is the
// uninitialized state.
type State struct {
	Mode    Mode
	Backend BackendKind
}

func (s State) String() string {
	if s.Mode == ModeNone {
		return "None"
	}
	return s.Mode.String() + s.Backend.String()
}
