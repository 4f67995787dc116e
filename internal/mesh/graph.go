package mesh

import (
	"fmt"
	"iter"
)

// Vert is a graph vertex.
type Vert struct {
	Index  int
	Hidden bool

	// edges holds every edge that uses this vertex.
	edges []*Edge
}

// Edge connects two vertices. An edge with no loops is loose.
type Edge struct {
	Index  int
	V1, V2 *Vert

	loops int
}

// Loop is one face corner. Loops of a face form a circular list.
type Loop struct {
	// Index is the flat corner index assigned by Graph.IndexLoops.
	Index int
	Vert  *Vert
	Edge  *Edge
	Face  *Face
	Next  *Loop
	Prev  *Loop
}

// Face is a polygon referencing its first loop.
type Face struct {
	Index  int
	Hidden bool
	First  *Loop
	Len    int
}

// Loops iterates the boundary loop of the face starting at First.
func (f *Face) Loops() iter.Seq[*Loop] {
	return func(yield func(*Loop) bool) {
		l := f.First
		for range f.Len {
			if !yield(l) {
				return
			}
			l = l.Next
		}
	}
}

// Graph is an editable mesh built from linked vertices, edges, loops and faces.
// Element indices are looked up live; loop indices are only valid after
// IndexLoops has been called since the last topology change.
type Graph struct {
	Verts []*Vert
	Edges []*Edge
	Faces []*Face

	loopsNum   int
	loopsDirty bool
	edgeLookup map[[2]int]*Edge
}

// NewGraph returns an empty graph mesh. The zero Graph is also ready to use.
func NewGraph() *Graph {
	return &Graph{}
}

// AddVert appends a vertex and returns it.
func (g *Graph) AddVert() *Vert {
	v := &Vert{Index: len(g.Verts)}
	g.Verts = append(g.Verts, v)
	return v
}

// AddVerts appends n vertices.
func (g *Graph) AddVerts(n int) []*Vert {
	out := make([]*Vert, n)
	for i := range n {
		out[i] = g.AddVert()
	}
	return out
}

// VertAt returns the vertex with the given index.
func (g *Graph) VertAt(i int) *Vert {
	return g.Verts[i]
}

// SetHidden sets the hidden flag of vertex i.
func (g *Graph) SetHidden(i int, hidden bool) {
	g.Verts[i].Hidden = hidden
}

func edgeKey(a, b *Vert) [2]int {
	if a.Index > b.Index {
		a, b = b, a
	}
	return [2]int{a.Index, b.Index}
}

// AddEdge returns the edge between a and b, creating it if needed.
func (g *Graph) AddEdge(a, b *Vert) (*Edge, error) {
	if a == b {
		return nil, fmt.Errorf("edge %d-%d: %w", a.Index, b.Index, ErrDuplicateVert)
	}
	if err := g.checkVert(a); err != nil {
		return nil, err
	}
	if err := g.checkVert(b); err != nil {
		return nil, err
	}
	key := edgeKey(a, b)
	if e, ok := g.edgeLookup[key]; ok {
		return e, nil
	}
	if g.edgeLookup == nil {
		g.edgeLookup = make(map[[2]int]*Edge)
	}
	e := &Edge{Index: len(g.Edges), V1: a, V2: b}
	g.Edges = append(g.Edges, e)
	g.edgeLookup[key] = e
	a.edges = append(a.edges, e)
	b.edges = append(b.edges, e)
	return e, nil
}

// AddFace creates a face over the given vertices in winding order.
// Missing edges are created.
func (g *Graph) AddFace(verts ...*Vert) (*Face, error) {
	if len(verts) < 3 {
		return nil, fmt.Errorf("face with %d verts: %w", len(verts), ErrDegenerateFace)
	}
	seen := make(map[*Vert]struct{}, len(verts))
	for _, v := range verts {
		if err := g.checkVert(v); err != nil {
			return nil, err
		}
		if _, dup := seen[v]; dup {
			return nil, fmt.Errorf("face uses vert %d twice: %w", v.Index, ErrDuplicateVert)
		}
		seen[v] = struct{}{}
	}

	f := &Face{Index: len(g.Faces), Len: len(verts)}
	loops := make([]*Loop, len(verts))
	for i, v := range verts {
		e, err := g.AddEdge(v, verts[(i+1)%len(verts)])
		if err != nil {
			return nil, err
		}
		e.loops++
		loops[i] = &Loop{Index: -1, Vert: v, Edge: e, Face: f}
	}
	for i, l := range loops {
		l.Next = loops[(i+1)%len(loops)]
		l.Prev = loops[(i+len(loops)-1)%len(loops)]
	}
	f.First = loops[0]

	g.Faces = append(g.Faces, f)
	g.loopsNum += len(verts)
	g.loopsDirty = true
	return f, nil
}

func (g *Graph) checkVert(v *Vert) error {
	if v == nil || v.Index < 0 || v.Index >= len(g.Verts) || g.Verts[v.Index] != v {
		return ErrVertRange
	}
	return nil
}

// LoopsNum returns the total number of face corners.
func (g *Graph) LoopsNum() int {
	return g.loopsNum
}

// IndexLoops assigns flat corner indices to every loop in face order.
func (g *Graph) IndexLoops() {
	if !g.loopsDirty {
		return
	}
	next := 0
	for _, f := range g.Faces {
		for l := range f.Loops() {
			l.Index = next
			next++
		}
	}
	g.loopsDirty = false
}

// LoopsIndexed reports whether loop indices are current.
func (g *Graph) LoopsIndexed() bool {
	return !g.loopsDirty
}

// LooseEdges returns edges not used by any face, in edge order.
func (g *Graph) LooseEdges() []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.loops == 0 {
			out = append(out, e)
		}
	}
	return out
}

// LooseVerts returns vertices not used by any edge, in vertex order.
// Every face corner creates edges, so this also excludes face vertices.
func (g *Graph) LooseVerts() []*Vert {
	var out []*Vert
	for _, v := range g.Verts {
		if len(v.edges) == 0 {
			out = append(out, v)
		}
	}
	return out
}

// FacesNum returns the number of faces.
func (g *Graph) FacesNum() int {
	return len(g.Faces)
}

// FaceVerts appends the vertex indices of face i to dst.
func (g *Graph) FaceVerts(i int, dst []int) []int {
	for l := range g.Faces[i].Loops() {
		dst = append(dst, l.Vert.Index)
	}
	return dst
}
