// Package gpu provides device-independent index buffer construction.
//
// An IndexBufBuilder accumulates element values on the CPU and is compiled
// once into an immutable IndexBuf. Builders used by parallel tasks are forked
// from a root builder and joined back after the tasks complete.
package gpu

import (
	"fmt"
	"math"
)

// PrimType is the primitive topology of an index buffer.
type PrimType int

const (
	PrimPoints PrimType = iota
	PrimLines
	PrimTris
)

func (p PrimType) String() string {
	switch p {
	case PrimPoints:
		return "points"
	case PrimLines:
		return "lines"
	case PrimTris:
		return "tris"
	default:
		return fmt.Sprintf("PrimType(%d)", int(p))
	}
}

// RestartIndex is the 32-bit primitive restart value.
const RestartIndex uint32 = math.MaxUint32

// unsetIndex marks builder entries no task has written yet.
const unsetIndex uint32 = math.MaxUint32 - 1

func assert(cond bool, format string, args ...any) {
	if !cond {
		panic("gpu: " + fmt.Sprintf(format, args...))
	}
}

// IndexBufBuilder accumulates the elements of one index buffer.
//
// For point buffers the element position is the vertex index and the stored
// value is the slot that vertex is drawn from, so each vertex holds at most
// one point.
type IndexBufBuilder struct {
	prim         PrimType
	maxIndexLen  int
	maxVertexLen int

	data []uint32

	// indexLen is one past the highest element written.
	indexLen int
	// lo is the lowest element written, maxIndexLen when none.
	lo int
}

// NewIndexBufBuilder returns a builder initialised with Init.
func NewIndexBufBuilder(prim PrimType, indexLen, vertexLen int) *IndexBufBuilder {
	b := &IndexBufBuilder{}
	b.Init(prim, indexLen, vertexLen)
	return b
}

// Init sizes the builder for indexLen elements whose values address
// vertexLen vertices.
func (b *IndexBufBuilder) Init(prim PrimType, indexLen, vertexLen int) {
	assert(indexLen >= 0 && vertexLen >= 0, "negative capacity %d/%d", indexLen, vertexLen)
	assert(uint64(vertexLen) < uint64(unsetIndex), "vertex length %d exceeds index range", vertexLen)

	*b = IndexBufBuilder{
		prim:         prim,
		maxIndexLen:  indexLen,
		maxVertexLen: vertexLen,
		data:         make([]uint32, indexLen),
		lo:           indexLen,
	}
	for i := range b.data {
		b.data[i] = unsetIndex
	}
}

// Prim returns the primitive type.
func (b *IndexBufBuilder) Prim() PrimType { return b.prim }

// MaxIndexLen returns the element capacity.
func (b *IndexBufBuilder) MaxIndexLen() int { return b.maxIndexLen }

// MaxVertexLen returns the number of addressable vertices.
func (b *IndexBufBuilder) MaxVertexLen() int { return b.maxVertexLen }

// Fork returns an empty builder with the same capacities.
func (b *IndexBufBuilder) Fork() *IndexBufBuilder {
	return NewIndexBufBuilder(b.prim, b.maxIndexLen, b.maxVertexLen)
}

func (b *IndexBufBuilder) touch(elem int) {
	if elem+1 > b.indexLen {
		b.indexLen = elem + 1
	}
	if elem < b.lo {
		b.lo = elem
	}
}

// SetPointVert stores value v at element elem, replacing any prior value.
func (b *IndexBufBuilder) SetPointVert(elem, v int) {
	assert(b.prim == PrimPoints, "SetPointVert on %s builder", b.prim)
	assert(elem >= 0 && elem < b.maxIndexLen, "element %d out of range %d", elem, b.maxIndexLen)
	assert(v >= 0 && v < b.maxVertexLen, "vertex %d out of range %d", v, b.maxVertexLen)

	b.data[elem] = uint32(v)
	b.touch(elem)
}

// SetPointRestart marks element elem as not drawn.
func (b *IndexBufBuilder) SetPointRestart(elem int) {
	assert(b.prim == PrimPoints, "SetPointRestart on %s builder", b.prim)
	assert(elem >= 0 && elem < b.maxIndexLen, "element %d out of range %d", elem, b.maxIndexLen)

	b.data[elem] = RestartIndex
	b.touch(elem)
}

// Join merges the elements written to from into b.
//
// Unwritten entries of from are ignored, a restart in either builder wins,
// otherwise the larger value wins. The rule is commutative and associative,
// so the joined result does not depend on how work was split across tasks.
func (b *IndexBufBuilder) Join(from *IndexBufBuilder) {
	assert(b.prim == from.prim, "joining %s into %s builder", from.prim, b.prim)
	assert(b.maxIndexLen == from.maxIndexLen && b.maxVertexLen == from.maxVertexLen,
		"joining builders of different capacity")

	for i := from.lo; i < from.indexLen; i++ {
		src := from.data[i]
		if src == unsetIndex {
			continue
		}
		dst := b.data[i]
		if dst == unsetIndex || src > dst {
			b.data[i] = src
		}
	}
	if from.indexLen > 0 {
		b.touch(from.lo)
		b.touch(from.indexLen - 1)
	}
}

// Written reports the number of elements written so far.
func (b *IndexBufBuilder) Written() int {
	n := 0
	for i := b.lo; i < b.indexLen; i++ {
		if b.data[i] != unsetIndex {
			n++
		}
	}
	return n
}

// BuildInPlace compiles the builder into ibo. Values are stored as 16-bit
// offsets from a base when the value range allows it. The builder is left
// empty.
func (b *IndexBufBuilder) BuildInPlace(ibo *IndexBuf) {
	assert(!ibo.built, "index buffer already built")

	n := b.indexLen
	ibo.prim = b.prim
	ibo.length = n
	ibo.built = true

	lo, hi := uint32(math.MaxUint32), uint32(0)
	restart := false
	for _, v := range b.data[:n] {
		switch v {
		case unsetIndex, RestartIndex:
			restart = true
		default:
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if lo > hi {
		lo, hi = 0, 0
	}
	ibo.usesRestart = restart
	ibo.minIndex = lo
	ibo.maxIndex = hi

	if hi-lo < uint32(RestartIndex16) {
		ibo.indexType = IndexU16
		ibo.base = lo
		ibo.u16 = make([]uint16, n)
		for i, v := range b.data[:n] {
			if v == unsetIndex || v == RestartIndex {
				ibo.u16[i] = RestartIndex16
				continue
			}
			ibo.u16[i] = uint16(v - lo)
		}
	} else {
		ibo.indexType = IndexU32
		ibo.u32 = make([]uint32, n)
		for i, v := range b.data[:n] {
			if v == unsetIndex {
				v = RestartIndex
			}
			ibo.u32[i] = v
		}
	}

	*b = IndexBufBuilder{}
}
