// Package subdiv holds the refined topology consumed by subdivision-aware
// draw extraction.
package subdiv

import (
	"errors"
	"fmt"
)

// NoCoarseVert marks a refined loop with no stable coarse vertex.
const NoCoarseVert int32 = -1

// MaxLevel is the deepest supported refinement level.
const MaxLevel = 6

var (
	// ErrLevelRange is returned for levels outside 1..MaxLevel.
	ErrLevelRange = errors.New("subdivision level out of range")
	// ErrNotQuads is returned when the refined loop count is not a multiple of 4.
	ErrNotQuads = errors.New("refined loops are not grouped in quads")
)

// Cache is the read-only refined topology of one mesh.
type Cache struct {
	Level int
	// Resolution is the number of refined points along a coarse edge.
	Resolution int

	NumSubdivLoops int
	NumSubdivQuads int

	// VertsOrigIndex maps each refined loop to its coarse vertex or NoCoarseVert.
	VertsOrigIndex []int32
	// LoopFaceIndex maps each refined loop to its coarse face.
	LoopFaceIndex []int32
}

// ResolutionForLevel returns the refined point count along a coarse edge.
func ResolutionForLevel(level int) int {
	return (1 << level) + 1
}

// EdgesPerCoarseEdge is the number of refined segments along a coarse edge.
func (c *Cache) EdgesPerCoarseEdge() int {
	return c.Resolution - 1
}

// VertsPerCoarseEdge is the number of refined points stored for each loose
// coarse edge: two per segment, as line buffers store them.
func (c *Cache) VertsPerCoarseEdge() int {
	return c.EdgesPerCoarseEdge() * 2
}

// LooseEdgesNum returns the refined slot count taken by n loose edges.
func (c *Cache) LooseEdgesNum(n int) int {
	return n * c.VertsPerCoarseEdge()
}

// FullVBOSize returns the refined slot capacity: refined loops, then loose
// edge runs, then loose verts.
func (c *Cache) FullVBOSize(looseEdges, looseVerts int) int {
	return c.NumSubdivLoops + c.LooseEdgesNum(looseEdges) + looseVerts
}

// CoarseVert returns the coarse vertex of refined loop i.
func (c *Cache) CoarseVert(i int) (int, bool) {
	v := c.VertsOrigIndex[i]
	if v == NoCoarseVert {
		return 0, false
	}
	return int(v), true
}

// Validate checks the cache is internally consistent.
func (c *Cache) Validate() error {
	if c.Level < 1 || c.Level > MaxLevel {
		return fmt.Errorf("level %d: %w", c.Level, ErrLevelRange)
	}
	if c.NumSubdivLoops%4 != 0 {
		return fmt.Errorf("%d loops: %w", c.NumSubdivLoops, ErrNotQuads)
	}
	if c.NumSubdivQuads*4 != c.NumSubdivLoops {
		return fmt.Errorf("%d quads for %d loops: %w", c.NumSubdivQuads, c.NumSubdivLoops, ErrNotQuads)
	}
	if len(c.VertsOrigIndex) != c.NumSubdivLoops {
		return fmt.Errorf("coarse vertex map has %d entries for %d loops",
			len(c.VertsOrigIndex), c.NumSubdivLoops)
	}
	if c.LoopFaceIndex != nil && len(c.LoopFaceIndex) != c.NumSubdivLoops {
		return fmt.Errorf("face map has %d entries for %d loops",
			len(c.LoopFaceIndex), c.NumSubdivLoops)
	}
	return nil
}
