package xtoon

import "math"

// Camera is consulted per evaluation for the view position and the
// camera-space depth of a point.
type Camera interface {
	Position() Vector
	Depth(p Vector) float64
}

// Lambertian is the tone coordinate shared by every mode. n must be unit length.
func Lambertian(light, p, n Vector) float64 {
	return math.Max(0, light.Sub(p).Normalize().Dot(n))
}

// DepthCoordinate fades detail logarithmically from zNear (1) to zFar (0).
func DepthCoordinate(z, zNear, zFar float64) float64 {
	return 1 - math.Log(z/zNear)/math.Log(zFar/zNear)
}

// FocusCoordinate is 1 inside the band zFocal±zNear and falls off to 0 at
// zFocal±zFar on either side.
func FocusCoordinate(z, zFocal, zNear, zFar float64) float64 {
	switch {
	case z > zFocal+zNear:
		return math.Log(z/(zFocal+zFar)) / math.Log((zFocal+zNear)/(zFocal+zFar))
	case z < zFocal-zNear:
		return 1 - math.Log(z/(zFocal-zNear))/math.Log((zFocal-zFar)/(zFocal-zNear))
	}
	return 1
}

// SilhouetteCoordinate is |n·v|^r for unit normal n and view vector v.
func SilhouetteCoordinate(n, v Vector, r float64) float64 {
	return math.Pow(math.Abs(n.Dot(v)), r)
}

// HighlightCoordinate is |refl·v|^s where refl mirrors the light vector l
// about n.
func HighlightCoordinate(n, v, l Vector, s float64) float64 {
	refl := n.MulScalar(n.Dot(l)).Add(l.Cross(n).Cross(n))
	return math.Pow(math.Abs(refl.Dot(v)), s)
}

// Uniform is a named scalar pushed to a GPU program.
type Uniform struct {
	Name  string
	Value float32
}

// maxUniforms bounds the scalar uniforms of any mode.
const maxUniforms = 4

// Params is one of DepthParams, FocusParams, SilhouetteParams or
// HighlightParams.
type Params interface {
	Mode() Mode
	// Validate reports a *ConfigError when a formula would leave its domain.
	Validate() error

	coordinate(cam Camera, light, p, n Vector) float64
	uniforms(dst []Uniform) []Uniform
	store(s *snapshot)
}

// DepthParams bound the camera-space depth range of the Depth mode.
type DepthParams struct {
	ZNear float64 `yaml:"znear"`
	ZFar  float64 `yaml:"zfar"`
}

func (DepthParams) Mode() Mode { return ModeDepth }

func (p DepthParams) Validate() error {
	switch {
	case !isFinite(p.ZNear) || p.ZNear <= 0:
		return &ConfigError{ModeDepth, "zNear", p.ZNear, "must be positive"}
	case !isFinite(p.ZFar) || p.ZFar <= p.ZNear:
		return &ConfigError{ModeDepth, "zFar", p.ZFar, "must exceed zNear"}
	}
	return nil
}

func (p DepthParams) coordinate(cam Camera, light, pos, n Vector) float64 {
	return DepthCoordinate(cam.Depth(pos), p.ZNear, p.ZFar)
}

func (p DepthParams) uniforms(dst []Uniform) []Uniform {
	return append(dst, Uniform{"zmin", float32(p.ZNear)}, Uniform{"zmax", float32(p.ZFar)})
}

func (p DepthParams) store(s *snapshot) {
	s.mode = ModeDepth
	s.depth = p
}

// FocusParams place the in-focus band. ZNear is its half width and ZFar the
// distance from ZFocal at which detail reaches zero.
type FocusParams struct {
	ZFocal float64 `yaml:"zfocal"`
	ZNear  float64 `yaml:"znear"`
	ZFar   float64 `yaml:"zfar"`
}

func (FocusParams) Mode() Mode { return ModeFocus }

func (p FocusParams) Validate() error {
	switch {
	case !isFinite(p.ZNear) || p.ZNear < 0:
		return &ConfigError{ModeFocus, "zNear", p.ZNear, "must not be negative"}
	case !isFinite(p.ZFar) || p.ZFar <= p.ZNear:
		return &ConfigError{ModeFocus, "zFar", p.ZFar, "must exceed zNear"}
	case !isFinite(p.ZFocal) || p.ZFocal <= p.ZFar:
		return &ConfigError{ModeFocus, "zFocal", p.ZFocal, "must exceed zFar"}
	}
	return nil
}

func (p FocusParams) coordinate(cam Camera, light, pos, n Vector) float64 {
	return FocusCoordinate(pos.Distance(cam.Position()), p.ZFocal, p.ZNear, p.ZFar)
}

func (p FocusParams) uniforms(dst []Uniform) []Uniform {
	return append(dst,
		Uniform{"zmin", float32(p.ZNear)},
		Uniform{"zmax", float32(p.ZFar)},
		Uniform{"zfoc", float32(p.ZFocal)})
}

func (p FocusParams) store(s *snapshot) {
	s.mode = ModeFocus
	s.focus = p
}

// SilhouetteParams hold the rim falloff exponent.
type SilhouetteParams struct {
	R float64 `yaml:"r"`
}

func (SilhouetteParams) Mode() Mode { return ModeSilhouette }

func (p SilhouetteParams) Validate() error {
	if !isFinite(p.R) || p.R <= 0 {
		return &ConfigError{ModeSilhouette, "r", p.R, "must be positive"}
	}
	return nil
}

func (p SilhouetteParams) coordinate(cam Camera, light, pos, n Vector) float64 {
	return SilhouetteCoordinate(n, cam.Position().Sub(pos).Normalize(), p.R)
}

func (p SilhouetteParams) uniforms(dst []Uniform) []Uniform {
	return append(dst, Uniform{"r", float32(p.R)})
}

func (p SilhouetteParams) store(s *snapshot) {
	s.mode = ModeSilhouette
	s.silhouette = p
}

// HighlightParams hold the specular lobe exponent.
type HighlightParams struct {
	S float64 `yaml:"s"`
}

func (HighlightParams) Mode() Mode { return ModeHighlight }

func (p HighlightParams) Validate() error {
	if !isFinite(p.S) || p.S <= 0 {
		return &ConfigError{ModeHighlight, "s", p.S, "must be positive"}
	}
	return nil
}

func (p HighlightParams) coordinate(cam Camera, light, pos, n Vector) float64 {
	v := cam.Position().Sub(pos).Normalize()
	l := light.Sub(pos).Normalize()
	return HighlightCoordinate(n, v, l, p.S)
}

func (p HighlightParams) uniforms(dst []Uniform) []Uniform {
	return append(dst, Uniform{"s", float32(p.S)})
}

func (p HighlightParams) store(s *snapshot) {
	s.mode = ModeHighlight
	s.highlight = p
}

// snapshot is the engine-local copy of the active parameters.
type snapshot struct {
	mode       Mode
	depth      DepthParams
	focus      FocusParams
	silhouette SilhouetteParams
	highlight  HighlightParams
}

func (s *snapshot) params() Params {
	switch s.mode {
	case ModeDepth:
		return &s.depth
	case ModeFocus:
		return &s.focus
	case ModeSilhouette:
		return &s.silhouette
	case ModeHighlight:
		return &s.highlight
	}
	return nil
}
