package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/drawcache/internal/config"
	"github.com/Faultbox/drawcache/internal/extract"
	"github.com/Faultbox/drawcache/internal/gpu"
	"github.com/Faultbox/drawcache/internal/logger"
	"github.com/Faultbox/drawcache/internal/meshio"
	"github.com/Faultbox/drawcache/internal/subdiv"
)

// session is one loaded mesh ready for extraction.
type session struct {
	path string
	doc  *meshio.Document
	rd   *extract.RenderData
	sc   *subdiv.Cache
}

func load(cfg *config.Config, path string, level int) *session {
	doc, err := meshio.Load(path)
	if err != nil {
		fatalf("%v", err)
	}
	rd, err := doc.RenderData(extract.Options{UseHide: cfg.Extraction.UseHide})
	if err != nil {
		fatalf("%s: %v", path, err)
	}
	s := &session{path: path, doc: doc, rd: rd}
	if level > 0 {
		s.sc, err = subdiv.Build(rd.Coarse(), level)
		if err != nil {
			fatalf("%s: %v", path, err)
		}
	}
	return s
}

func subdivLevel(cfg *config.Config) int {
	if cfg.Subdivision.Enabled {
		return cfg.Subdivision.Level
	}
	return 0
}

func newRunner(cfg *config.Config) *extract.Runner {
	return extract.NewRunner(extract.RunnerConfig{
		Workers:    cfg.Extraction.Workers,
		FaceChunk:  cfg.Extraction.FaceChunk,
		LooseChunk: cfg.Extraction.LooseChunk,
	})
}

// extractPoints runs one pass and returns the point buffer.
func (s *session) extractPoints(r *extract.Runner) *gpu.IndexBuf {
	cache := &extract.BatchCache{}
	if s.sc != nil {
		r.ExtractSubdiv(s.sc, s.rd, cache, extract.Points)
	} else {
		r.Extract(s.rd, cache, extract.Points)
	}
	return cache.Buffers.Get(extract.BufferPoints)
}

func (s *session) slots() int {
	if s.sc != nil {
		return s.rd.SubdivLayout(s.sc).Total()
	}
	return s.rd.Layout().Total()
}

func cmdInfo(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: ibotool info <mesh.yaml>")
		os.Exit(1)
	}
	s := load(cfg, args[0], subdivLevel(cfg))
	rd := s.rd

	fmt.Printf("Mesh:        %s\n", s.path)
	fmt.Printf("Kind:        %s\n", rd.Kind)
	fmt.Printf("Verts:       %d\n", rd.VertsNum)
	fmt.Printf("Edges:       %d\n", rd.EdgesNum)
	fmt.Printf("Faces:       %d\n", rd.FacesNum)
	fmt.Printf("Corners:     %d\n", rd.CornersNum)
	fmt.Printf("Loose edges: %d\n", rd.LooseEdgesNum)
	fmt.Printf("Loose verts: %d\n", rd.LooseVertsNum)
	fmt.Printf("Slots:       %d\n", rd.Layout().Total())
	if s.sc != nil {
		fmt.Println()
		fmt.Printf("Subdivision level %d (resolution %d)\n", s.sc.Level, s.sc.Resolution)
		fmt.Printf("  Refined quads: %d\n", s.sc.NumSubdivQuads)
		fmt.Printf("  Refined slots: %d\n", s.slots())
	}
}

// pointsDump is the YAML form of an extracted point buffer.
type pointsDump struct {
	Mesh     string   `yaml:"mesh"`
	Level    int      `yaml:"level,omitempty"`
	Type     string   `yaml:"type"`
	Base     uint32   `yaml:"base"`
	Slots    int      `yaml:"slots"`
	Points   [][2]int `yaml:"points,flow"`
	Restarts []int    `yaml:"restarts,flow"`
}

func dump(s *session, ibo *gpu.IndexBuf) *pointsDump {
	d := &pointsDump{
		Mesh:  s.path,
		Type:  indexTypeName(ibo.Type()),
		Base:  ibo.Base(),
		Slots: s.slots(),
	}
	if s.sc != nil {
		d.Level = s.sc.Level
	}
	for v := range ibo.Len() {
		if slot, ok := ibo.Slot(v); ok {
			d.Points = append(d.Points, [2]int{v, slot})
		} else {
			d.Restarts = append(d.Restarts, v)
		}
	}
	return d
}

func indexTypeName(t gpu.IndexType) string {
	if t == gpu.IndexU16 {
		return "u16"
	}
	return "u32"
}

func cmdExtract(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	output := fs.String("o", "", "Write the buffer as YAML to this path")
	quiet := fs.Bool("q", false, "Print the summary only")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: ibotool extract [-o out.yaml] [-q] <mesh.yaml>")
		os.Exit(1)
	}
	s := load(cfg, fs.Arg(0), subdivLevel(cfg))
	report(s, s.extractPoints(newRunner(cfg)), *output, *quiet)
}

func cmdSubdiv(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("subdiv", flag.ExitOnError)
	level := fs.Int("level", cfg.Subdivision.Level, "Refinement level (1-6)")
	output := fs.String("o", "", "Write the buffer as YAML to this path")
	quiet := fs.Bool("q", false, "Print the summary only")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: ibotool subdiv [-level N] [-o out.yaml] [-q] <mesh.yaml>")
		os.Exit(1)
	}
	s := load(cfg, fs.Arg(0), *level)
	report(s, s.extractPoints(newRunner(cfg)), *output, *quiet)
}

func report(s *session, ibo *gpu.IndexBuf, output string, quiet bool) {
	d := dump(s, ibo)

	fmt.Printf("Buffer:   %s, %d elements, %d bytes\n", d.Type, ibo.Len(), ibo.SizeBytes())
	fmt.Printf("Base:     %d\n", d.Base)
	fmt.Printf("Points:   %d\n", len(d.Points))
	fmt.Printf("Restarts: %d\n", len(d.Restarts))

	if !quiet {
		fmt.Println()
		for _, p := range d.Points {
			fmt.Printf("  vert %-8d slot %d\n", p[0], p[1])
		}
	}

	if output == "" {
		return
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		fatalf("encoding buffer: %v", err)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Written to %s\n", output)
}

func cmdVerify(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: ibotool verify <mesh.yaml>")
		os.Exit(1)
	}
	s := load(cfg, args[0], subdivLevel(cfg))

	serial := s.extractPoints(extract.NewRunner(extract.RunnerConfig{Workers: 1}))

	// Small chunks force every worker to take part.
	parallelCfg := *cfg
	parallelCfg.Extraction.FaceChunk = 1
	parallelCfg.Extraction.LooseChunk = 1
	r := newRunner(&parallelCfg)
	parallel := s.extractPoints(r)

	if !serial.Equal(parallel) {
		logger.Error("parallel extraction differs from serial",
			zap.String("mesh", s.path), zap.Int("workers", r.Workers()))
		for v := range serial.Len() {
			a, aok := serial.Slot(v)
			b, bok := parallel.Slot(v)
			if a != b || aok != bok {
				fmt.Printf("  vert %d: serial %s, parallel %s\n", v, slotString(a, aok), slotString(b, bok))
			}
		}
		fatalf("%s: buffers differ", s.path)
	}
	fmt.Printf("OK: %d verts, %d points, identical with 1 and %d workers\n",
		serial.Len(), len(serial.Points()), r.Workers())
}

func slotString(slot int, ok bool) string {
	if !ok {
		return "restart"
	}
	return fmt.Sprintf("slot %d", slot)
}

func cmdBench(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	n := fs.Int("n", 100, "Number of extractions")
	fs.Parse(args)

	if fs.NArg() < 1 || *n < 1 {
		fmt.Fprintln(os.Stderr, "Usage: ibotool bench [-n N] <mesh.yaml>")
		os.Exit(1)
	}
	s := load(cfg, fs.Arg(0), subdivLevel(cfg))
	r := newRunner(cfg)

	pb := progressbar.Default(int64(*n), "extracting")
	start := time.Now()
	for range *n {
		s.extractPoints(r)
		pb.Add(1)
	}
	pb.Finish()
	elapsed := time.Since(start)

	per := elapsed / time.Duration(*n)
	fmt.Printf("Mesh:    %s (%d verts, %d slots)\n", s.path, s.rd.VertsNum, s.slots())
	fmt.Printf("Workers: %d\n", r.Workers())
	fmt.Printf("Runs:    %d in %v\n", *n, elapsed.Round(time.Millisecond))
	fmt.Printf("Per run: %v (%.1f Mverts/s)\n", per, float64(s.rd.VertsNum)/per.Seconds()/1e6)
}

func cmdGrid(args []string) {
	fs := flag.NewFlagSet("grid", flag.ExitOnError)
	w := fs.Int("w", 16, "Cells along X")
	h := fs.Int("h", 16, "Cells along Y")
	loose := fs.Bool("loose", false, "Add a loose edge and a loose vert")
	graph := fs.Bool("graph", false, "Mark the document as a graph mesh")
	output := fs.String("o", "grid.yaml", "Output path")
	fs.Parse(args)

	if *w < 1 || *h < 1 {
		fatalf("grid needs at least one cell, got %dx%d", *w, *h)
	}
	doc := meshio.Grid(*w, *h)
	if *loose {
		n := len(doc.Verts)
		top := float32(*h + 1)
		doc.Verts = append(doc.Verts,
			[3]float32{0, top, 0},
			[3]float32{float32(*w), top, 0},
			[3]float32{float32(*w) / 2, top + 1, 0},
		)
		doc.Edges = append(doc.Edges, [2]int{n, n + 1})
	}
	if *graph {
		doc.Kind = meshio.KindGraph
	}
	if err := doc.Save(*output); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Wrote %dx%d grid (%d verts, %d faces) to %s\n", *w, *h, len(doc.Verts), len(doc.Faces), *output)
}
