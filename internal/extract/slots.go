package extract

import (
	"fmt"

	"github.com/Faultbox/drawcache/internal/mesh"
	"github.com/Faultbox/drawcache/internal/subdiv"
)

func assert(cond bool, format string, args ...any) {
	if !cond {
		panic("extract: " + fmt.Sprintf(format, args...))
	}
}

// SlotLayout is the slot order shared by every per-corner buffer of a mesh:
// face corners, then two slots per loose edge, then one per loose vert.
type SlotLayout struct {
	Corners    int
	LooseEdges int
	LooseVerts int
}

// Layout returns the coarse slot layout of rd.
func (rd *RenderData) Layout() SlotLayout {
	return SlotLayout{
		Corners:    rd.CornersNum,
		LooseEdges: rd.LooseEdgesNum,
		LooseVerts: rd.LooseVertsNum,
	}
}

// Total returns the slot capacity.
func (l SlotLayout) Total() int {
	return l.Corners + 2*l.LooseEdges + l.LooseVerts
}

// CornerSlot returns the slot of flat corner c.
func (l SlotLayout) CornerSlot(c int) int {
	assert(c >= 0 && c < l.Corners, "corner %d out of range %d", c, l.Corners)
	return c
}

// LoopSlot returns the slot of a graph loop.
func (l SlotLayout) LoopSlot(loop *mesh.Loop) int {
	assert(loop.Index >= 0, "loop of face %d is not indexed", loop.Face.Index)
	return l.CornerSlot(loop.Index)
}

// LooseEdgeSlots returns the slots of both endpoints of loose edge i.
func (l SlotLayout) LooseEdgeSlots(i int) (int, int) {
	assert(i >= 0 && i < l.LooseEdges, "loose edge %d out of range %d", i, l.LooseEdges)
	s := l.Corners + 2*i
	return s, s + 1
}

// LooseVertSlot returns the slot of loose vert i.
func (l SlotLayout) LooseVertSlot(i int) int {
	assert(i >= 0 && i < l.LooseVerts, "loose vert %d out of range %d", i, l.LooseVerts)
	return l.Corners + 2*l.LooseEdges + i
}

// SubdivLayout is the slot order of refined buffers: refined loops, then a
// run of VertsPerEdge slots per loose edge, then one per loose vert.
type SubdivLayout struct {
	Loops        int
	VertsPerEdge int
	LooseEdges   int
	LooseVerts   int
}

// SubdivLayout returns the refined slot layout of rd under sc.
func (rd *RenderData) SubdivLayout(sc *subdiv.Cache) SubdivLayout {
	return SubdivLayout{
		Loops:        sc.NumSubdivLoops,
		VertsPerEdge: sc.VertsPerCoarseEdge(),
		LooseEdges:   rd.LooseEdgesNum,
		LooseVerts:   rd.LooseVertsNum,
	}
}

// Total returns the refined slot capacity.
func (l SubdivLayout) Total() int {
	return l.Loops + l.LooseEdges*l.VertsPerEdge + l.LooseVerts
}

// LooseEdgeRun returns the first and last slot of loose edge i's run.
func (l SubdivLayout) LooseEdgeRun(i int) (first, last int) {
	assert(i >= 0 && i < l.LooseEdges, "loose edge %d out of range %d", i, l.LooseEdges)
	first = l.Loops + i*l.VertsPerEdge
	return first, first + l.VertsPerEdge - 1
}

// LooseVertSlot returns the slot of loose vert i.
func (l SubdivLayout) LooseVertSlot(i int) int {
	assert(i >= 0 && i < l.LooseVerts, "loose vert %d out of range %d", i, l.LooseVerts)
	return l.Loops + l.LooseEdges*l.VertsPerEdge + i
}
