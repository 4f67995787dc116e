package extract

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/Faultbox/drawcache/internal/gpu"
	"github.com/Faultbox/drawcache/internal/mesh"
	"github.com/Faultbox/drawcache/internal/subdiv"
)

func mustFlat(t testing.TB, verts int, faces [][]int, edges [][2]int) *mesh.Flat {
	t.Helper()
	m, err := mesh.NewFlat(verts, faces, edges)
	if err != nil {
		t.Fatalf("NewFlat: %v", err)
	}
	return m
}

func mustFlatRD(t testing.TB, m *mesh.Flat, opts Options) *RenderData {
	t.Helper()
	rd, err := NewFlatRenderData(m, opts)
	if err != nil {
		t.Fatalf("NewFlatRenderData: %v", err)
	}
	return rd
}

func extractPoints(rd *RenderData, cfg RunnerConfig) *gpu.IndexBuf {
	cache := &BatchCache{}
	NewRunner(cfg).Extract(rd, cache, Points)
	return cache.Buffers.Get(BufferPoints)
}

// gridMesh builds a w*h quad grid with a few loose edges and verts appended.
func gridMesh(t testing.TB, w, h int) *mesh.Flat {
	t.Helper()
	vw := w + 1
	gridVerts := vw * (h + 1)
	var faces [][]int
	for y := range h {
		for x := range w {
			v := y*vw + x
			faces = append(faces, []int{v, v + 1, v + vw + 1, v + vw})
		}
	}
	// Three loose edges, one sharing a grid vertex, then two loose verts.
	extra := gridVerts
	edges := [][2]int{{extra, extra + 1}, {extra + 2, extra + 3}, {0, extra + 4}}
	return mustFlat(t, gridVerts+7, faces, edges)
}

func TestSingleTriangle(t *testing.T) {
	m := mustFlat(t, 3, [][]int{{0, 1, 2}}, nil)
	rd := mustFlatRD(t, m, Options{UseHide: true})
	if got := rd.Layout().Total(); got != 3 {
		t.Fatalf("expected capacity 3, got %d", got)
	}

	ibo := extractPoints(rd, RunnerConfig{Workers: 1})
	want := []gpu.Point{{Vert: 0, Slot: 0}, {Vert: 1, Slot: 1}, {Vert: 2, Slot: 2}}
	if !slices.Equal(ibo.Points(), want) {
		t.Errorf("expected %v, got %v", want, ibo.Points())
	}
	if ibo.UsesRestart() {
		t.Error("no vertex should be restarted")
	}
}

func TestTriangleWithHiddenVert(t *testing.T) {
	m := mustFlat(t, 3, [][]int{{0, 1, 2}}, nil)
	m.SetHidden(1, true)
	rd := mustFlatRD(t, m, Options{UseHide: true})

	ibo := extractPoints(rd, RunnerConfig{Workers: 1})
	want := []gpu.Point{{Vert: 0, Slot: 0}, {Vert: 2, Slot: 2}}
	if !slices.Equal(ibo.Points(), want) {
		t.Errorf("expected %v, got %v", want, ibo.Points())
	}
	if _, ok := ibo.Slot(1); ok {
		t.Error("hidden vertex 1 should be restarted")
	}
	if ibo.Len() != 3 {
		t.Errorf("expected 3 elements, got %d", ibo.Len())
	}

	// Without use_hide the hide layer is ignored.
	rd = mustFlatRD(t, m, Options{UseHide: false})
	if got := extractPoints(rd, RunnerConfig{Workers: 1}).Points(); len(got) != 3 {
		t.Errorf("expected all verts drawn without use_hide, got %v", got)
	}
}

func TestLooseGeometryOnly(t *testing.T) {
	m := mustFlat(t, 3, nil, [][2]int{{0, 1}})
	rd := mustFlatRD(t, m, Options{UseHide: true})
	if !slices.Equal(rd.LooseEdges, []int{0}) || !slices.Equal(rd.LooseVerts, []int{2}) {
		t.Fatalf("unexpected loose discovery: edges %v verts %v", rd.LooseEdges, rd.LooseVerts)
	}
	ibo := extractPoints(rd, RunnerConfig{Workers: 1})
	want := []gpu.Point{{Vert: 0, Slot: 0}, {Vert: 1, Slot: 1}, {Vert: 2, Slot: 2}}
	if !slices.Equal(ibo.Points(), want) {
		t.Errorf("expected %v, got %v", want, ibo.Points())
	}
}

func TestLooseGeometrySparseVerts(t *testing.T) {
	m := mustFlat(t, 10, nil, [][2]int{{5, 7}})
	rd := mustFlatRD(t, m, Options{UseHide: true})

	// Without faces every vert outside an edge is discovered as loose, so
	// verts 0-4, 6 and 8 cannot be excluded through topology alone. Narrow
	// the list to 9 to check that verts reached by nothing compile to restart.
	rd.LooseVerts = []int{9}
	rd.countLoose()

	if got := rd.Layout().Total(); got != 3 {
		t.Fatalf("expected capacity 3, got %d", got)
	}
	ibo := extractPoints(rd, RunnerConfig{Workers: 1})
	want := []gpu.Point{{Vert: 5, Slot: 0}, {Vert: 7, Slot: 1}, {Vert: 9, Slot: 2}}
	if !slices.Equal(ibo.Points(), want) {
		t.Errorf("expected %v, got %v", want, ibo.Points())
	}
}

func TestSlotLayout(t *testing.T) {
	m := gridMesh(t, 2, 2)
	rd := mustFlatRD(t, m, Options{UseHide: true})
	l := rd.Layout()

	if l.Corners != 16 || l.LooseEdges != 3 || l.LooseVerts != 2 {
		t.Fatalf("unexpected layout %+v", l)
	}
	if l.Total() != 16+6+2 {
		t.Errorf("expected capacity 24, got %d", l.Total())
	}
	if a, b := l.LooseEdgeSlots(0); a != 16 || b != 17 {
		t.Errorf("loose edge 0 slots %d,%d", a, b)
	}
	if a, b := l.LooseEdgeSlots(2); a != 20 || b != 21 {
		t.Errorf("loose edge 2 slots %d,%d", a, b)
	}
	if s := l.LooseVertSlot(0); s != 22 {
		t.Errorf("loose vert 0 slot %d", s)
	}
	if s := l.LooseVertSlot(1); s != 23 {
		t.Errorf("loose vert 1 slot %d", s)
	}
}

func TestOrigIndexNone(t *testing.T) {
	m := mustFlat(t, 4, [][]int{{0, 1, 2, 3}}, nil)
	m.OrigIndex = []int32{0, mesh.OrigIndexNone, 2, 3}
	rd := mustFlatRD(t, m, Options{UseHide: true})

	ibo := extractPoints(rd, RunnerConfig{Workers: 1})
	if _, ok := ibo.Slot(1); ok {
		t.Error("vertex without original should be restarted")
	}
	if len(ibo.Points()) != 3 {
		t.Errorf("expected 3 points, got %v", ibo.Points())
	}
}

// checkPointProperties verifies every visible vertex is drawn from a slot
// where it occurs and every excluded vertex is never drawn.
func checkPointProperties(t *testing.T, rd *RenderData, ibo *gpu.IndexBuf) {
	t.Helper()
	occurs := make(map[int][]int)
	l := rd.Layout()
	for f := range rd.FacesNum {
		start, end := rd.Flat.FaceCorners(f)
		for c := start; c < end; c++ {
			occurs[rd.Flat.CornerVerts[c]] = append(occurs[rd.Flat.CornerVerts[c]], c)
		}
	}
	for i := range rd.LooseEdgesNum {
		e := rd.LooseEdge(i)
		a, b := l.LooseEdgeSlots(i)
		occurs[e.V1] = append(occurs[e.V1], a)
		occurs[e.V2] = append(occurs[e.V2], b)
	}
	for i := range rd.LooseVertsNum {
		occurs[rd.LooseVerts[i]] = append(occurs[rd.LooseVerts[i]], l.LooseVertSlot(i))
	}

	for v := range rd.VertsNum {
		slot, drawn := ibo.Slot(v)
		slots, present := occurs[v]
		switch {
		case rd.ResolveVert(v) == Restart && drawn:
			t.Errorf("excluded vertex %d drawn at %d", v, slot)
		case rd.ResolveVert(v) == Visible && present && !drawn:
			t.Errorf("visible vertex %d not drawn", v)
		case drawn && !slices.Contains(slots, slot):
			t.Errorf("vertex %d drawn at %d, occurs at %v", v, slot, slots)
		}
	}
}

func TestPartitionIndependence(t *testing.T) {
	m := gridMesh(t, 13, 9)
	for v := 0; v < m.VertsNum; v += 5 {
		m.SetHidden(v, true)
	}
	m.OrigIndex = make([]int32, m.VertsNum)
	for v := range m.OrigIndex {
		m.OrigIndex[v] = int32(v)
	}
	m.OrigIndex[17] = mesh.OrigIndexNone
	rd := mustFlatRD(t, m, Options{UseHide: true})

	want := extractPoints(rd, RunnerConfig{Workers: 1})
	checkPointProperties(t, rd, want)

	configs := []RunnerConfig{
		{Workers: 2, FaceChunk: 1, LooseChunk: 1},
		{Workers: 3, FaceChunk: 7, LooseChunk: 2},
		{Workers: 8, FaceChunk: 16, LooseChunk: 1},
		{Workers: 4},
	}
	for _, cfg := range configs {
		t.Run(fmt.Sprintf("w%d_f%d_l%d", cfg.Workers, cfg.FaceChunk, cfg.LooseChunk), func(t *testing.T) {
			got := extractPoints(rd, cfg)
			if !got.Equal(want) {
				t.Errorf("buffer differs from single task result:\n got  %v\n want %v", got.Points(), want.Points())
			}
		})
	}
}

func buildGraphGrid(t testing.TB, w, h int) *mesh.Graph {
	t.Helper()
	g := mesh.NewGraph()
	vw := w + 1
	verts := g.AddVerts(vw * (h + 1))
	for y := range h {
		for x := range w {
			v := y*vw + x
			if _, err := g.AddFace(verts[v], verts[v+1], verts[v+vw+1], verts[v+vw]); err != nil {
				t.Fatalf("AddFace: %v", err)
			}
		}
	}
	loose := g.AddVerts(3)
	if _, err := g.AddEdge(loose[0], loose[1]); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	return g
}

func TestGraphMatchesFlat(t *testing.T) {
	g := buildGraphGrid(t, 4, 3)
	g.SetHidden(6, true)
	g.SetHidden(21, true)

	// Same topology as a flat mesh.
	var faces [][]int
	for i := range g.FacesNum() {
		faces = append(faces, g.FaceVerts(i, nil))
	}
	m := mustFlat(t, len(g.Verts), faces, [][2]int{{20, 21}})
	m.SetHidden(6, true)
	m.SetHidden(21, true)

	grd, err := NewGraphRenderData(g, Options{})
	if err != nil {
		t.Fatalf("NewGraphRenderData: %v", err)
	}
	frd := mustFlatRD(t, m, Options{UseHide: true})
	if grd.Layout() != frd.Layout() {
		t.Fatalf("layouts differ: %+v vs %+v", grd.Layout(), frd.Layout())
	}

	cfg := RunnerConfig{Workers: 3, FaceChunk: 2, LooseChunk: 1}
	gibo := extractPoints(grd, cfg)
	fibo := extractPoints(frd, cfg)
	if !gibo.Equal(fibo) {
		t.Errorf("graph and flat buffers differ:\n graph %v\n flat  %v", gibo.Points(), fibo.Points())
	}
	if _, ok := gibo.Slot(21); ok {
		t.Error("hidden loose edge endpoint should be restarted")
	}
	if s, ok := gibo.Slot(22); !ok || s != grd.Layout().LooseVertSlot(0) {
		t.Errorf("loose vert 22 expected at %d, got %d (%v)", grd.Layout().LooseVertSlot(0), s, ok)
	}
}

func TestGraphIgnoresOrigIndexOnCoarsePath(t *testing.T) {
	g := mesh.NewGraph()
	v := g.AddVerts(3)
	if _, err := g.AddFace(v[0], v[1], v[2]); err != nil {
		t.Fatalf("AddFace: %v", err)
	}
	rd, err := NewGraphRenderData(g, Options{OrigIndex: []int32{0, mesh.OrigIndexNone, 2}})
	if err != nil {
		t.Fatalf("NewGraphRenderData: %v", err)
	}
	if got := extractPoints(rd, RunnerConfig{Workers: 1}).Points(); len(got) != 3 {
		t.Errorf("graph visibility depends only on the hidden flag, got %v", got)
	}
}

func TestRepeatedExtractionReplacesBuffer(t *testing.T) {
	m := mustFlat(t, 3, [][]int{{0, 1, 2}}, nil)
	// The snapshot shares the hide layer, so it must exist before snapshotting.
	m.HideVert = make([]bool, 3)
	rd := mustFlatRD(t, m, Options{UseHide: true})
	cache := &BatchCache{}
	r := NewRunner(RunnerConfig{Workers: 2})

	r.Extract(rd, cache, Points)
	first := cache.Buffers.Get(BufferPoints)
	m.SetHidden(0, true)
	r.Extract(rd, cache, Points)
	second := cache.Buffers.Get(BufferPoints)

	if first == second {
		t.Fatal("expected a fresh buffer per pass")
	}
	if len(first.Points()) != 3 || len(second.Points()) != 2 {
		t.Errorf("unexpected point counts %d and %d", len(first.Points()), len(second.Points()))
	}
}

func TestPointsInfo(t *testing.T) {
	info := Points.Info()
	if !info.UseThreading || info.DataType != DataNone || info.Buffer != BufferPoints {
		t.Errorf("unexpected info %+v", info)
	}
	if info.ScratchSize == 0 {
		t.Error("scratch size should be non-zero")
	}
}

func TestSubdivQuad(t *testing.T) {
	m := mustFlat(t, 4, [][]int{{0, 1, 2, 3}}, nil)
	rd := mustFlatRD(t, m, Options{UseHide: true})
	sc := &subdiv.Cache{
		Level:          1,
		Resolution:     3,
		NumSubdivLoops: 4,
		NumSubdivQuads: 1,
		VertsOrigIndex: []int32{0, 1, 2, 3},
	}

	cache := &BatchCache{}
	NewRunner(RunnerConfig{Workers: 1}).ExtractSubdiv(sc, rd, cache, Points)
	ibo := cache.Buffers.Get(BufferPoints)

	want := []gpu.Point{{Vert: 0, Slot: 0}, {Vert: 1, Slot: 1}, {Vert: 2, Slot: 2}, {Vert: 3, Slot: 3}}
	if !slices.Equal(ibo.Points(), want) {
		t.Errorf("expected %v, got %v", want, ibo.Points())
	}
}

func TestSubdivRefinedTopology(t *testing.T) {
	m := mustFlat(t, 12, [][]int{{0, 1, 2, 3}, {1, 4, 5, 2}}, [][2]int{{6, 7}, {8, 9}})
	m.SetHidden(2, true)
	m.SetHidden(9, true)
	m.OrigIndex = []int32{0, 1, 2, mesh.OrigIndexNone, 4, 5, 6, 7, 8, 9, 10, 11}
	rd := mustFlatRD(t, m, Options{UseHide: true})

	sc, err := subdiv.Build(m, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	layout := rd.SubdivLayout(sc)
	if layout.Total() != sc.FullVBOSize(rd.LooseEdgesNum, rd.LooseVertsNum) {
		t.Fatalf("layout total %d differs from cache size", layout.Total())
	}

	run := func(cfg RunnerConfig) *gpu.IndexBuf {
		cache := &BatchCache{}
		NewRunner(cfg).ExtractSubdiv(sc, rd, cache, Points)
		return cache.Buffers.Get(BufferPoints)
	}
	ibo := run(RunnerConfig{Workers: 1})

	for v := range rd.VertsNum {
		slot, drawn := ibo.Slot(v)
		switch v {
		case 2, 9:
			if drawn {
				t.Errorf("hidden vertex %d drawn", v)
			}
		case 3:
			if drawn {
				t.Errorf("vertex %d without original drawn", v)
			}
		case 0, 1, 4, 5:
			if !drawn || slot >= sc.NumSubdivLoops {
				t.Errorf("face vertex %d: slot %d drawn %v", v, slot, drawn)
				continue
			}
			if cv, ok := sc.CoarseVert(slot); !ok || cv != v {
				t.Errorf("vertex %d drawn from loop %d which maps to %d", v, slot, cv)
			}
		case 6, 8:
			first, _ := layout.LooseEdgeRun(map[int]int{6: 0, 8: 1}[v])
			if !drawn || slot != first {
				t.Errorf("loose edge start %d: expected slot %d, got %d (%v)", v, first, slot, drawn)
			}
		case 7:
			_, last := layout.LooseEdgeRun(0)
			if !drawn || slot != last {
				t.Errorf("loose edge end 7: expected slot %d, got %d (%v)", last, slot, drawn)
			}
		case 10, 11:
			if want := layout.LooseVertSlot(v - 10); !drawn || slot != want {
				t.Errorf("loose vert %d: expected slot %d, got %d (%v)", v, want, slot, drawn)
			}
		}
	}

	// Interior loops have no coarse vertex and must never be referenced.
	for _, p := range ibo.Points() {
		if p.Slot < sc.NumSubdivLoops {
			if _, ok := sc.CoarseVert(p.Slot); !ok {
				t.Errorf("point %v drawn from an interior loop", p)
			}
		}
	}

	for _, cfg := range []RunnerConfig{{Workers: 4, FaceChunk: 3, LooseChunk: 1}, {Workers: 2, FaceChunk: 1}} {
		if got := run(cfg); !got.Equal(ibo) {
			t.Errorf("workers %d: subdivision buffer differs from single task result", cfg.Workers)
		}
	}
}

func TestSubdivGraphQuadMatchesFlat(t *testing.T) {
	orig := []int32{0, 1, 2, mesh.OrigIndexNone, 4}

	g := mesh.NewGraph()
	gv := g.AddVerts(5)
	if _, err := g.AddFace(gv[0], gv[1], gv[2], gv[3]); err != nil {
		t.Fatalf("AddFace: %v", err)
	}
	if _, err := g.AddFace(gv[1], gv[4], gv[2]); err != nil {
		t.Fatalf("AddFace: %v", err)
	}
	g.SetHidden(1, true)
	grd, err := NewGraphRenderData(g, Options{OrigIndex: orig})
	if err != nil {
		t.Fatalf("NewGraphRenderData: %v", err)
	}

	m := mustFlat(t, 5, [][]int{{0, 1, 2, 3}, {1, 4, 2}}, nil)
	m.SetHidden(1, true)
	m.OrigIndex = orig
	frd := mustFlatRD(t, m, Options{UseHide: true})

	sc, err := subdiv.Build(grd.Coarse(), 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	flatSC, err := subdiv.Build(frd.Coarse(), 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !slices.Equal(sc.VertsOrigIndex, flatSC.VertsOrigIndex) {
		t.Fatal("graph and flat refine to different topology")
	}

	run := func(rd *RenderData, cfg RunnerConfig) *gpu.IndexBuf {
		cache := &BatchCache{}
		NewRunner(cfg).ExtractSubdiv(sc, rd, cache, Points)
		return cache.Buffers.Get(BufferPoints)
	}
	flat := run(frd, RunnerConfig{Workers: 1})

	for _, cfg := range []RunnerConfig{{Workers: 1}, {Workers: 4, FaceChunk: 1}} {
		ibo := run(grd, cfg)
		for v := range grd.VertsNum {
			slot, drawn := ibo.Slot(v)
			switch v {
			case 1:
				if drawn {
					t.Errorf("workers %d: hidden vertex drawn from slot %d", cfg.Workers, slot)
				}
			case 3:
				if drawn {
					t.Errorf("workers %d: vertex without original drawn from slot %d", cfg.Workers, slot)
				}
			default:
				if !drawn {
					t.Errorf("workers %d: vertex %d not drawn", cfg.Workers, v)
					continue
				}
				if cv, ok := sc.CoarseVert(slot); !ok || cv != v {
					t.Errorf("workers %d: vertex %d drawn from loop %d which maps to %d", cfg.Workers, v, slot, cv)
				}
			}
		}
		if !ibo.Equal(flat) {
			t.Errorf("workers %d: graph buffer %v differs from flat %v", cfg.Workers, ibo.Points(), flat.Points())
		}
	}
}

func TestSubdivGraphLooseUsesOriginal(t *testing.T) {
	g := mesh.NewGraph()
	v := g.AddVerts(4)
	if _, err := g.AddEdge(v[0], v[1]); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	g.SetHidden(1, true)
	// Vert 2 maps back to vert 0, vert 3 has no original.
	rd, err := NewGraphRenderData(g, Options{OrigIndex: []int32{0, 1, 0, mesh.OrigIndexNone}})
	if err != nil {
		t.Fatalf("NewGraphRenderData: %v", err)
	}
	if rd.LooseEdgesNum != 1 || rd.LooseVertsNum != 2 {
		t.Fatalf("unexpected loose counts %d/%d", rd.LooseEdgesNum, rd.LooseVertsNum)
	}

	sc := &subdiv.Cache{Level: 1, Resolution: 3}
	cache := &BatchCache{}
	NewRunner(RunnerConfig{Workers: 1}).ExtractSubdiv(sc, rd, cache, Points)
	ibo := cache.Buffers.Get(BufferPoints)

	layout := rd.SubdivLayout(sc)
	// Loose vert 2 maps to vert 0 at its loose slot, which is later than the
	// edge start and so wins.
	if s, ok := ibo.Slot(0); !ok || s != layout.LooseVertSlot(0) {
		t.Errorf("vertex 0: expected slot %d, got %d (%v)", layout.LooseVertSlot(0), s, ok)
	}
	if _, ok := ibo.Slot(1); ok {
		t.Error("hidden vertex 1 drawn")
	}
	if _, ok := ibo.Slot(3); ok {
		t.Error("vertex without original drawn")
	}
}

func TestRenderDataErrors(t *testing.T) {
	if _, err := NewFlatRenderData(nil, Options{}); err != ErrNoMesh {
		t.Errorf("expected ErrNoMesh, got %v", err)
	}
	if _, err := NewGraphRenderData(nil, Options{}); err != ErrNoMesh {
		t.Errorf("expected ErrNoMesh, got %v", err)
	}
	m := mustFlat(t, 3, [][]int{{0, 1, 2}}, nil)
	if _, err := NewFlatRenderData(m, Options{OrigIndex: []int32{0}}); err == nil {
		t.Error("expected error for short origin layer")
	}
	m.HideVert = []bool{true}
	if _, err := NewFlatRenderData(m, Options{}); err == nil {
		t.Error("expected error for short hide layer")
	}
}

func TestOrigIndexRange(t *testing.T) {
	g := mesh.NewGraph()
	v := g.AddVerts(2)
	if _, err := g.AddEdge(v[0], v[1]); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	m := mustFlat(t, 2, nil, [][2]int{{0, 1}})

	tests := []struct {
		name     string
		orig     []int32
		graphErr bool
		flatErr  bool
	}{
		{"identity", []int32{0, 1}, false, false},
		{"none", []int32{mesh.OrigIndexNone, 1}, false, false},
		{"past last vert", []int32{0, 7}, true, false},
		{"below none", []int32{-2, 0}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraphRenderData(g, Options{OrigIndex: tt.orig})
			if (err != nil) != tt.graphErr {
				t.Errorf("graph: unexpected error %v", err)
			}
			if tt.graphErr && !errors.Is(err, mesh.ErrVertRange) {
				t.Errorf("graph: expected ErrVertRange, got %v", err)
			}
			_, err = NewFlatRenderData(m, Options{OrigIndex: tt.orig})
			if (err != nil) != tt.flatErr {
				t.Errorf("flat: unexpected error %v", err)
			}
		})
	}
}
