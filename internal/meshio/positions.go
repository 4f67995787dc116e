package meshio

import (
	"github.com/Faultbox/drawcache/internal/extract"
)

// Grid returns a w×h quad grid in the XY plane, one unit per cell.
// Verts are numbered row by row.
func Grid(w, h int) *Document {
	doc := &Document{
		Name:  "grid",
		Kind:  KindFlat,
		Verts: make([][3]float32, 0, (w+1)*(h+1)),
		Faces: make([][]int, 0, w*h),
	}
	for y := range h + 1 {
		for x := range w + 1 {
			doc.Verts = append(doc.Verts, [3]float32{float32(x), float32(y), 0})
		}
	}
	stride := w + 1
	for y := range h {
		for x := range w {
			v := y*stride + x
			doc.Faces = append(doc.Faces, []int{v, v + 1, v + 1 + stride, v + stride})
		}
	}
	return doc
}

// SlotPositions returns the position of every coarse slot of rd, three
// floats per slot in slot order. rd must have been built from d.
func (d *Document) SlotPositions(rd *extract.RenderData) []float32 {
	layout := rd.Layout()
	out := make([]float32, 3*layout.Total())
	put := func(slot, v int) {
		copy(out[3*slot:3*slot+3], d.Verts[v][:])
	}

	for i := range rd.FacesNum {
		f := rd.Face(i)
		if f.BM != nil {
			for l := range f.BM.Loops() {
				put(layout.LoopSlot(l), l.Vert.Index)
			}
			continue
		}
		start, end := rd.Flat.FaceCorners(i)
		for c := start; c < end; c++ {
			put(layout.CornerSlot(c), rd.Flat.CornerVerts[c])
		}
	}
	for i := range rd.LooseEdgesNum {
		e := rd.LooseEdge(i)
		s1, s2 := layout.LooseEdgeSlots(i)
		put(s1, e.V1)
		put(s2, e.V2)
	}
	for i := range rd.LooseVertsNum {
		put(layout.LooseVertSlot(i), rd.LooseVert(i).Vert)
	}
	return out
}

// Bounds returns the axis-aligned bounds of the verts.
func (d *Document) Bounds() (lo, hi [3]float32) {
	if len(d.Verts) == 0 {
		return lo, hi
	}
	lo, hi = d.Verts[0], d.Verts[0]
	for _, v := range d.Verts[1:] {
		for k := range 3 {
			lo[k] = min(lo[k], v[k])
			hi[k] = max(hi[k], v[k])
		}
	}
	return lo, hi
}
