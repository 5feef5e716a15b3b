package main

import (
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/netisu/xtoon"
	"github.com/netisu/xtoon/internal/config"
	"github.com/netisu/xtoon/render"
	"github.com/netisu/xtoon/shaderprog"
)

func main() {
	var (
		configPath   = flag.String("config", "xtoon.yaml", "path to the YAML config")
		texture      = flag.String("texture", "", "tone texture (bmp, tga, png, jpeg)")
		mesh         = flag.String("mesh", "", "mesh file (off, obj, gltf, glb)")
		mode         = flag.String("mode", "", "depth | focus | silhouette | highlight")
		backend      = flag.String("backend", "", "cpu | gpu")
		output       = flag.String("o", "", "output image (png, bmp, webp)")
		size         = flag.Int("size", 0, "output size in pixels")
		supersample  = flag.Int("supersample", 0, "supersampling factor")
		simplify     = flag.Float64("simplify", 0, "keep this fraction of the triangles")
		wireframe    = flag.Bool("wireframe", false, "draw triangle edges only")
		perFragment  = flag.Bool("per-fragment", false, "evaluate the tone per pixel instead of per vertex")
		refocus      = flag.Bool("refocus", false, "fit depth/focus parameters to the mesh")
		lightAt      = flag.String("light-at", "", "place the light above screen pixel x,y")
		stats        = flag.Bool("stats", false, "print mesh statistics and exit")
		checkShaders = flag.Bool("check-shaders", false, "compile and link every GPU program and exit")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		xtoon.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if *checkShaders {
		if err := runCheckShaders(); err != nil {
			log.Fatal().Err(err).Msg("shader check failed")
		}
		return
	}

	cfg := config.Default()
	if c, err := config.Load(*configPath); err != nil {
		log.Debug().Err(err).Str("path", *configPath).Msg("config load failed; using defaults and flags")
	} else {
		cfg = c
	}
	cfg.Resolve(config.Flags{
		Texture:     *texture,
		Mesh:        *mesh,
		Mode:        *mode,
		Backend:     *backend,
		Output:      *output,
		Size:        *size,
		Supersample: *supersample,
		Simplify:    *simplify,
		Wireframe:   *wireframe,
		PerFragment: *perFragment,
		Refocus:     *refocus,
	})

	if *stats {
		if cfg.Mesh == "" {
			log.Fatal().Msg("no mesh given")
		}
		if err := printStats(cfg); err != nil {
			log.Fatal().Err(err).Str("mesh", cfg.Mesh).Msg("mesh stats")
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if *lightAt != "" {
		x, y, err := parsePoint(*lightAt)
		if err != nil {
			log.Fatal().Err(err).Str("light-at", *lightAt).Msg("bad light position")
		}
		cfg.Light = toVec(render.LightFromScreen(x, y, cfg.Size, cfg.Size, cfg.Light.Vector()))
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("render failed")
	}
}

func run(cfg *config.Config) error {
	backend, _ := xtoon.ParseBackend(cfg.Backend)

	var opts []xtoon.Option
	var service *shaderprog.Service
	if backend == xtoon.GPU {
		service = shaderprog.NewService()
		opts = append(opts, xtoon.WithProgramService(service))
	}
	tex, err := loadTexture(cfg.Texture)
	if err != nil {
		return err
	}
	engine := xtoon.New(tex, cfg.Light.Vector(), opts...)
	defer engine.Close()

	m, err := loadMesh(cfg.Mesh)
	if err != nil {
		return fmt.Errorf("load mesh %s: %w", cfg.Mesh, err)
	}
	if cfg.Simplify > 0 && cfg.Simplify < 1 {
		before := len(m.Triangles)
		m.Simplify(cfg.Simplify)
		log.Info().Int("before", before).Int("after", len(m.Triangles)).Msg("simplified mesh")
	}
	object := render.NewObjectFromMesh(m)

	cc := cfg.Camera
	camera := render.NewLookAtCamera(cc.Eye.Vector(), cc.Center.Vector(), cc.Up.Vector(), cc.Fovy, 1, cc.Near, cc.Far)

	b, err := bind(engine, cfg, backend, object, camera)
	if err != nil {
		return err
	}
	log.Info().Str("state", engine.State().String()).Str("params", fmt.Sprintf("%+v", b)).Msg("engine ready")

	if backend == xtoon.GPU {
		p, _ := service.Program(service.Current())
		block := camera.CameraBlock(object.Matrix)
		log.Info().
			Str("program", p.Name).
			Int("vertex_words", len(p.Vertex)).
			Int("fragment_words", len(p.Fragment)).
			Int("uniform_bytes", len(p.Block)).
			Int("camera_bytes", len(block)*4).
			Msg("GPU program staged; no device attached, nothing drawn")
		return nil
	}

	shader := render.NewToonShader(engine, camera)
	shader.PerFragment = cfg.PerFragment
	scene := render.NewScene(camera, cfg.Size, cfg.Supersample, shader)
	scene.Context.Wireframe = cfg.Wireframe
	scene.SetClearColor(xtoon.White)
	scene.AddObject(object)
	if cc.Fit {
		scene.FitObjectsToScene()
	}

	start := time.Now()
	if err := scene.Draw(cfg.Output); err != nil {
		return err
	}
	log.Info().Str("output", cfg.Output).Dur("elapsed", time.Since(start)).Msg("frame written")
	return nil
}

// bind creates the handle of the configured mode, optionally refocuses it on
// the object and activates it.
func bind(e *xtoon.Engine, cfg *config.Config, backend xtoon.BackendKind, o *render.Object, cam *render.LookAtCamera) (xtoon.Params, error) {
	m, _ := xtoon.ParseMode(cfg.Mode)
	switch m {
	case xtoon.ModeDepth:
		h := xtoon.NewHandle(cfg.Params.Depth)
		if cfg.Refocus {
			if err := render.RefocusDepth(h, o, cam); err != nil {
				return nil, err
			}
		}
		return h.Get(), e.SetForDepth(h, backend)
	case xtoon.ModeFocus:
		h := xtoon.NewHandle(cfg.Params.Focus)
		if cfg.Refocus {
			if err := render.RefocusFocus(h, o, cam); err != nil {
				return nil, err
			}
		}
		return h.Get(), e.SetForFocus(h, backend)
	case xtoon.ModeSilhouette:
		h := xtoon.NewHandle(cfg.Params.Silhouette)
		return h.Get(), e.SetForSilhouette(h, backend)
	case xtoon.ModeHighlight:
		h := xtoon.NewHandle(cfg.Params.Highlight)
		return h.Get(), e.SetForHighlight(h, backend)
	}
	return nil, fmt.Errorf("mode %q cannot be activated", cfg.Mode)
}

// runCheckShaders activates every mode on the GPU backend against a blank
// tone texture.
func runCheckShaders() error {
	service := shaderprog.NewService()
	tex := xtoon.NewToneTexture(image.NewNRGBA(image.Rect(0, 0, xtoon.ToneSize, xtoon.ToneSize)))
	engine := xtoon.New(tex, xtoon.V(1, 1, 3), xtoon.WithProgramService(service))
	defer engine.Close()

	d := config.Default().Params
	steps := []func() error{
		func() error { return engine.SetForDepth(xtoon.NewHandle(d.Depth), xtoon.GPU) },
		func() error { return engine.SetForFocus(xtoon.NewHandle(d.Focus), xtoon.GPU) },
		func() error { return engine.SetForSilhouette(xtoon.NewHandle(d.Silhouette), xtoon.GPU) },
		func() error { return engine.SetForHighlight(xtoon.NewHandle(d.Highlight), xtoon.GPU) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
		p, _ := service.Program(service.Current())
		log.Info().Str("state", engine.State().String()).Int("uniform_bytes", len(p.Block)).Msg("program ok")
	}
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func loadTexture(path string) (*xtoon.ToneTexture, error) {
	if isURL(path) {
		return xtoon.LoadToneTextureFromURL(path)
	}
	return xtoon.LoadToneTexture(path)
}

// loadMesh reads a local mesh file or fetches an OBJ over HTTP.
func loadMesh(path string) (*render.Mesh, error) {
	if isURL(path) {
		return render.LoadObjectFromURL(path)
	}
	return render.LoadMesh(path)
}

func printStats(cfg *config.Config) error {
	m, err := loadMesh(cfg.Mesh)
	if err != nil {
		return err
	}
	box := m.BoundingBox()
	fmt.Printf("--- MESH STATS ---\n")
	fmt.Printf("Triangles: %d\n", len(m.Triangles))
	fmt.Printf("Bounding Box Min: %+v\n", box.Min)
	fmt.Printf("Bounding Box Max: %+v\n", box.Max)
	fmt.Printf("Bounding Box Center: %+v\n", box.Center())

	cc := cfg.Camera
	camera := render.NewLookAtCamera(cc.Eye.Vector(), cc.Center.Vector(), cc.Up.Vector(), cc.Fovy, 1, cc.Near, cc.Far)
	zmin, zmax := render.DepthRange(m, render.Identity(), camera)
	fmt.Printf("Depth Range: %.4f .. %.4f\n", zmin, zmax)
	return nil
}

func parsePoint(s string) (x, y int, err error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("want x,y, got %q", s)
	}
	if x, err = strconv.Atoi(strings.TrimSpace(xs)); err != nil {
		return 0, 0, err
	}
	if y, err = strconv.Atoi(strings.TrimSpace(ys)); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func toVec(v xtoon.Vector) config.Vec {
	return config.Vec{v.X, v.Y, v.Z}
}
