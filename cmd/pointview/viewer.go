package main

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/drawcache/internal/config"
	"github.com/Faultbox/drawcache/internal/engine/camera"
	"github.com/Faultbox/drawcache/internal/engine/input"
	"github.com/Faultbox/drawcache/internal/engine/shader"
	"github.com/Faultbox/drawcache/internal/engine/window"
	"github.com/Faultbox/drawcache/internal/extract"
	"github.com/Faultbox/drawcache/internal/gpu/gldevice"
	"github.com/Faultbox/drawcache/internal/logger"
	"github.com/Faultbox/drawcache/internal/meshio"
)

const pointsVertexShader = `#version 410 core
layout(location = 0) in vec3 aPosition;
uniform mat4 uTransform;
uniform float uPointSize;
void main() {
    gl_Position = uTransform * vec4(aPosition, 1.0);
    gl_PointSize = uPointSize;
}
`

const pointsFragmentShader = `#version 410 core
uniform vec4 uColor;
out vec4 FragColor;
void main() {
    vec2 d = gl_PointCoord - vec2(0.5);
    if (dot(d, d) > 0.25) {
        discard;
    }
    FragColor = uColor;
}
`

type viewer struct {
	cfg  *config.Config
	path string
	log  *zap.Logger

	win    *window.Window
	input  *input.Input
	cam    *camera.OrthoCamera
	prog   *shader.Program
	runner *extract.Runner

	doc     *meshio.Document
	batch   *gldevice.PointBatch
	useHide bool
}

func newViewer(cfg *config.Config, path string) (*viewer, error) {
	doc, err := meshio.Load(path)
	if err != nil {
		return nil, err
	}

	v := &viewer{
		cfg:  cfg,
		path: path,
		log:  logger.Named("pointview"),
		doc:  doc,
		runner: extract.NewRunner(extract.RunnerConfig{
			Workers:    cfg.Extraction.Workers,
			FaceChunk:  cfg.Extraction.FaceChunk,
			LooseChunk: cfg.Extraction.LooseChunk,
		}),
		input:   input.New(),
		cam:     camera.NewOrthoCamera(),
		useHide: cfg.Extraction.UseHide,
	}
	if cfg.Subdivision.Enabled {
		v.log.Warn("refined meshes carry no positions; drawing the coarse mesh",
			zap.Int("level", cfg.Subdivision.Level))
	}

	v.win, err = window.New(window.FromViewer("pointview - "+path, cfg.Viewer))
	if err != nil {
		return nil, err
	}
	if err := gldevice.Init(); err != nil {
		v.win.Close()
		return nil, fmt.Errorf("gl init: %w", err)
	}
	v.log.Info("OpenGL ready", zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))))

	v.prog, err = shader.Compile(pointsVertexShader, pointsFragmentShader)
	if err != nil {
		v.win.Close()
		return nil, fmt.Errorf("points shader: %w", err)
	}
	gl.Enable(gl.PROGRAM_POINT_SIZE)

	if err := v.rebuild(); err != nil {
		v.Close()
		return nil, err
	}
	v.cam.FitToBounds(doc.Bounds())
	return v, nil
}

// rebuild re-extracts the point buffer and replaces the GPU batch.
func (v *viewer) rebuild() error {
	rd, err := v.doc.RenderData(extract.Options{UseHide: v.useHide})
	if err != nil {
		return err
	}
	cache := &extract.BatchCache{}
	v.runner.Extract(rd, cache, extract.Points)
	points := cache.Buffers.Get(extract.BufferPoints)

	batch, err := gldevice.NewPointBatch(v.doc.SlotPositions(rd), points)
	if err != nil {
		return err
	}
	if v.batch != nil {
		v.batch.Delete()
	}
	v.batch = batch

	v.win.SetTitle(fmt.Sprintf("pointview - %s (%d points, hide %v)", v.path, len(points.Points()), v.useHide))
	v.log.Debug("point batch uploaded",
		zap.Int("verts", rd.VertsNum),
		zap.Int("slots", rd.Layout().Total()),
		zap.Int("points", len(points.Points())),
		zap.Bool("restart", points.UsesRestart()),
	)
	return nil
}

// Run drives the frame loop until the window is closed.
func (v *viewer) Run() error {
	for {
		if v.input.Update() {
			return nil
		}
		for _, e := range v.input.Events() {
			switch e.Type {
			case input.EventZoom:
				v.cam.HandleZoom(float32(e.Zoom))
			case input.EventPan:
				_, h := v.win.Size()
				v.cam.HandlePan(float32(e.DX), float32(e.DY), h)
			}
		}
		if v.input.IsKeyPressed(sdl.SCANCODE_R) {
			v.cam.Reset()
		}
		if v.input.IsKeyPressed(sdl.SCANCODE_H) {
			v.useHide = !v.useHide
			if err := v.rebuild(); err != nil {
				return err
			}
		}
		v.draw()
		v.win.SwapBuffers()
	}
}

func (v *viewer) draw() {
	w, h := v.win.Size()
	gl.Viewport(0, 0, int32(w), int32(h))
	gl.ClearColor(0.12, 0.12, 0.14, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	m := v.cam.Matrix(float32(w) / float32(max(h, 1)))
	v.prog.Use()
	v.prog.SetMat4("uTransform", &m)
	v.prog.SetFloat("uPointSize", v.cfg.Viewer.PointSize)
	v.prog.SetVec4("uColor", 1, 0.55, 0.1, 1)
	v.batch.Draw()
}

// Close frees GPU objects and the window.
func (v *viewer) Close() {
	if v.batch != nil {
		v.batch.Delete()
	}
	if v.prog != nil {
		v.prog.Delete()
	}
	if v.win != nil {
		v.win.Close()
	}
}
