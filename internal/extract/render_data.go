// Package extract builds draw buffers from a mesh snapshot.
//
// Extraction iterates faces, loose edges and loose verts of either mesh
// representation and feeds every registered Extractor. Work is split into
// chunks; each chunk is handled by a task with private scratch state which
// is reduced into the extractor's root task once the phase completes.
package extract

import (
	"errors"
	"fmt"

	"github.com/Faultbox/drawcache/internal/mesh"
	"github.com/Faultbox/drawcache/internal/subdiv"
)

// Kind selects the mesh representation a RenderData wraps.
type Kind int

const (
	KindGraph Kind = iota
	KindFlat
)

func (k Kind) String() string {
	if k == KindGraph {
		return "graph"
	}
	return "flat"
}

// ErrNoMesh is returned when render data is requested for a nil mesh.
var ErrNoMesh = errors.New("no mesh")

// Options configure a RenderData snapshot.
type Options struct {
	// UseHide honours the hide layer of flat meshes.
	UseHide bool
	// OrigIndex overrides the origin layer. Flat meshes default to their own
	// OrigIndex.
	OrigIndex []int32
}

// RenderData is a read-only snapshot of one mesh prepared for extraction.
type RenderData struct {
	Kind  Kind
	Graph *mesh.Graph
	Flat  *mesh.Flat

	UseHide       bool
	HideVert      []bool
	VertOrigIndex []int32

	VertsNum   int
	EdgesNum   int
	FacesNum   int
	CornersNum int

	// LooseEdges and LooseVerts hold edge and vertex indices.
	LooseEdges []int
	LooseVerts []int

	LooseEdgesNum int
	LooseVertsNum int
	// LooseIndicesNum counts two slots per loose edge plus one per loose vert.
	LooseIndicesNum int
}

// NewGraphRenderData snapshots a graph mesh. Loop indices are refreshed.
func NewGraphRenderData(g *mesh.Graph, opts Options) (*RenderData, error) {
	if g == nil {
		return nil, ErrNoMesh
	}
	g.IndexLoops()

	rd := &RenderData{
		Kind:          KindGraph,
		Graph:         g,
		UseHide:       true,
		VertOrigIndex: opts.OrigIndex,
		VertsNum:      len(g.Verts),
		EdgesNum:      len(g.Edges),
		FacesNum:      len(g.Faces),
		CornersNum:    g.LoopsNum(),
	}
	if err := checkOrigIndex(rd.VertOrigIndex, rd.VertsNum, rd.VertsNum); err != nil {
		return nil, err
	}
	for _, e := range g.LooseEdges() {
		rd.LooseEdges = append(rd.LooseEdges, e.Index)
	}
	for _, v := range g.LooseVerts() {
		rd.LooseVerts = append(rd.LooseVerts, v.Index)
	}
	rd.countLoose()
	return rd, nil
}

// NewFlatRenderData snapshots a flat mesh.
func NewFlatRenderData(m *mesh.Flat, opts Options) (*RenderData, error) {
	if m == nil {
		return nil, ErrNoMesh
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("flat mesh: %w", err)
	}

	rd := &RenderData{
		Kind:          KindFlat,
		Flat:          m,
		UseHide:       opts.UseHide,
		HideVert:      m.HideVert,
		VertOrigIndex: m.OrigIndex,
		VertsNum:      m.VertsNum,
		EdgesNum:      len(m.Edges),
		FacesNum:      m.FacesNum(),
		CornersNum:    m.CornersNum(),
		LooseEdges:    m.LooseEdges(),
		LooseVerts:    m.LooseVerts(),
	}
	if opts.OrigIndex != nil {
		rd.VertOrigIndex = opts.OrigIndex
	}
	if err := checkOrigIndex(rd.VertOrigIndex, rd.VertsNum, -1); err != nil {
		return nil, err
	}
	rd.countLoose()
	return rd, nil
}

// checkOrigIndex verifies an origin layer covers every vertex and holds
// mesh.OrigIndexNone or an index below origNum. origNum < 0 leaves the
// upper bound open.
func checkOrigIndex(orig []int32, vertsNum, origNum int) error {
	if orig == nil {
		return nil
	}
	if len(orig) != vertsNum {
		return fmt.Errorf("origin layer has %d entries for %d verts", len(orig), vertsNum)
	}
	for v, o := range orig {
		if o == mesh.OrigIndexNone {
			continue
		}
		if o < 0 || (origNum >= 0 && int(o) >= origNum) {
			return fmt.Errorf("origin of vert %d is %d: %w", v, o, mesh.ErrVertRange)
		}
	}
	return nil
}

// Coarse returns the wrapped mesh as refinement input.
func (rd *RenderData) Coarse() subdiv.Coarse {
	if rd.Kind == KindGraph {
		return rd.Graph
	}
	return rd.Flat
}

func (rd *RenderData) countLoose() {
	rd.LooseEdgesNum = len(rd.LooseEdges)
	rd.LooseVertsNum = len(rd.LooseVerts)
	rd.LooseIndicesNum = rd.LooseEdgesNum*2 + rd.LooseVertsNum
}

// FaceRef identifies a face in either representation.
type FaceRef struct {
	Index int
	// BM is set for graph snapshots.
	BM *mesh.Face
}

// LooseEdgeRef identifies the i-th loose edge.
type LooseEdgeRef struct {
	// Index is the position in the loose edge list.
	Index int
	Edge  int
	V1    int
	V2    int
	BM    *mesh.Edge
}

// LooseVertRef identifies the i-th loose vert.
type LooseVertRef struct {
	Index int
	Vert  int
	BM    *mesh.Vert
}

// Face returns a reference to face i.
func (rd *RenderData) Face(i int) FaceRef {
	ref := FaceRef{Index: i}
	if rd.Kind == KindGraph {
		ref.BM = rd.Graph.Faces[i]
	}
	return ref
}

// LooseEdge returns a reference to loose edge i.
func (rd *RenderData) LooseEdge(i int) LooseEdgeRef {
	ref := LooseEdgeRef{Index: i, Edge: rd.LooseEdges[i]}
	if rd.Kind == KindGraph {
		e := rd.Graph.Edges[ref.Edge]
		ref.BM = e
		ref.V1, ref.V2 = e.V1.Index, e.V2.Index
	} else {
		e := rd.Flat.Edges[ref.Edge]
		ref.V1, ref.V2 = e[0], e[1]
	}
	return ref
}

// LooseVert returns a reference to loose vert i.
func (rd *RenderData) LooseVert(i int) LooseVertRef {
	ref := LooseVertRef{Index: i, Vert: rd.LooseVerts[i]}
	if rd.Kind == KindGraph {
		ref.BM = rd.Graph.Verts[ref.Vert]
	}
	return ref
}
