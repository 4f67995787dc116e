package gpu

import "math"

// IndexType is the storage width of a compiled index buffer.
type IndexType int

const (
	IndexU16 IndexType = iota
	IndexU32
)

// RestartIndex16 is the 16-bit primitive restart value.
const RestartIndex16 uint16 = math.MaxUint16

// IndexBuf is a compiled, immutable index buffer ready for upload.
// The zero value is an unbuilt buffer owned by the caller.
type IndexBuf struct {
	built bool

	prim      PrimType
	indexType IndexType
	length    int
	base      uint32

	minIndex    uint32
	maxIndex    uint32
	usesRestart bool

	u16 []uint16
	u32 []uint32
}

// Point is a drawable point: the vertex and the slot it is drawn from.
type Point struct {
	Vert int
	Slot int
}

// Built reports whether the buffer has been compiled.
func (ibo *IndexBuf) Built() bool { return ibo.built }

// Prim returns the primitive type.
func (ibo *IndexBuf) Prim() PrimType { return ibo.prim }

// Type returns the storage width.
func (ibo *IndexBuf) Type() IndexType { return ibo.indexType }

// Len returns the number of elements.
func (ibo *IndexBuf) Len() int { return ibo.length }

// Base returns the value added to every 16-bit element.
func (ibo *IndexBuf) Base() uint32 { return ibo.base }

// Range returns the smallest and largest stored value.
func (ibo *IndexBuf) Range() (lo, hi uint32) { return ibo.minIndex, ibo.maxIndex }

// UsesRestart reports whether any element is a restart.
func (ibo *IndexBuf) UsesRestart() bool { return ibo.usesRestart }

// RestartValue returns the restart value for the storage width.
func (ibo *IndexBuf) RestartValue() uint32 {
	if ibo.indexType == IndexU16 {
		return uint32(RestartIndex16)
	}
	return RestartIndex
}

// Uint16 returns the raw 16-bit data, nil for 32-bit buffers.
func (ibo *IndexBuf) Uint16() []uint16 { return ibo.u16 }

// Uint32 returns the raw 32-bit data, nil for 16-bit buffers.
func (ibo *IndexBuf) Uint32() []uint32 { return ibo.u32 }

// SizeBytes returns the size of the raw data.
func (ibo *IndexBuf) SizeBytes() int {
	if ibo.indexType == IndexU16 {
		return ibo.length * 2
	}
	return ibo.length * 4
}

// At returns the absolute value of element i, or false for a restart.
func (ibo *IndexBuf) At(i int) (uint32, bool) {
	if i < 0 || i >= ibo.length {
		return 0, false
	}
	if ibo.indexType == IndexU16 {
		v := ibo.u16[i]
		if v == RestartIndex16 {
			return 0, false
		}
		return ibo.base + uint32(v), true
	}
	v := ibo.u32[i]
	if v == RestartIndex {
		return 0, false
	}
	return v, true
}

// Slot returns the slot vertex v is drawn from, or false if v is not drawn.
func (ibo *IndexBuf) Slot(v int) (int, bool) {
	s, ok := ibo.At(v)
	return int(s), ok
}

// Points lists every drawable point in vertex order.
func (ibo *IndexBuf) Points() []Point {
	var out []Point
	for i := range ibo.length {
		if s, ok := ibo.At(i); ok {
			out = append(out, Point{Vert: i, Slot: int(s)})
		}
	}
	return out
}

// Equal reports whether two buffers hold the same elements.
func (ibo *IndexBuf) Equal(other *IndexBuf) bool {
	if ibo.prim != other.prim || ibo.length != other.length {
		return false
	}
	for i := range ibo.length {
		a, aok := ibo.At(i)
		b, bok := other.At(i)
		if aok != bok || a != b {
			return false
		}
	}
	return true
}
