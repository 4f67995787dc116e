package extract

import (
	"unsafe"

	"github.com/Faultbox/drawcache/internal/gpu"
	"github.com/Faultbox/drawcache/internal/subdiv"
)

// Points extracts the point index buffer: one point per visible vertex,
// drawn from a slot where that vertex occurs.
var Points SubdivExtractor = pointsExtractor{}

type pointsExtractor struct{}

func (pointsExtractor) Info() Info {
	return Info{
		Name:         "points",
		UseThreading: true,
		DataType:     DataNone,
		ScratchSize:  unsafe.Sizeof(gpu.IndexBufBuilder{}),
		Buffer:       BufferPoints,
	}
}

func (pointsExtractor) Init(rd *RenderData, _ *BatchCache, _ *gpu.IndexBuf) Task {
	elb := gpu.NewIndexBufBuilder(gpu.PrimPoints, rd.VertsNum, rd.CornersNum+rd.LooseIndicesNum)
	return &pointsTask{elb: elb, layout: rd.Layout()}
}

func (pointsExtractor) Finish(_ *RenderData, _ *BatchCache, buf *gpu.IndexBuf, t Task) {
	t.(*pointsTask).elb.BuildInPlace(buf)
}

func (pointsExtractor) InitSubdiv(sc *subdiv.Cache, rd *RenderData, _ *BatchCache, _ *gpu.IndexBuf) SubdivTask {
	layout := rd.SubdivLayout(sc)
	elb := gpu.NewIndexBufBuilder(gpu.PrimPoints, rd.VertsNum, layout.Total())
	return &pointsSubdivTask{elb: elb, layout: layout}
}

func (pointsExtractor) FinishSubdiv(_ *subdiv.Cache, _ *RenderData, _ *BatchCache, buf *gpu.IndexBuf, t SubdivTask) {
	t.(*pointsSubdivTask).elb.BuildInPlace(buf)
}

// setVert records vertex v at slot, or a restart when v is not drawn.
func setVert(elb *gpu.IndexBufBuilder, rd *RenderData, v, slot int) {
	if rd.ResolveVert(v) == Visible {
		elb.SetPointVert(v, slot)
	} else {
		elb.SetPointRestart(v)
	}
}

type pointsTask struct {
	elb    *gpu.IndexBufBuilder
	layout SlotLayout
}

func (t *pointsTask) Fork() Task {
	return &pointsTask{elb: t.elb.Fork(), layout: t.layout}
}

func (t *pointsTask) IterFace(rd *RenderData, f FaceRef) {
	if rd.Kind == KindGraph {
		for l := range f.BM.Loops() {
			setVert(t.elb, rd, l.Vert.Index, t.layout.LoopSlot(l))
		}
		return
	}
	start, end := rd.Flat.FaceCorners(f.Index)
	for c := start; c < end; c++ {
		setVert(t.elb, rd, rd.Flat.CornerVerts[c], t.layout.CornerSlot(c))
	}
}

func (t *pointsTask) IterLooseEdge(rd *RenderData, e LooseEdgeRef) {
	s1, s2 := t.layout.LooseEdgeSlots(e.Index)
	setVert(t.elb, rd, e.V1, s1)
	setVert(t.elb, rd, e.V2, s2)
}

func (t *pointsTask) IterLooseVert(rd *RenderData, v LooseVertRef) {
	setVert(t.elb, rd, v.Vert, t.layout.LooseVertSlot(v.Index))
}

func (t *pointsTask) Reduce(from Task) {
	t.elb.Join(from.(*pointsTask).elb)
}

type pointsSubdivTask struct {
	elb    *gpu.IndexBufBuilder
	layout SubdivLayout
}

func (t *pointsSubdivTask) Fork() SubdivTask {
	return &pointsSubdivTask{elb: t.elb.Fork(), layout: t.layout}
}

// IterSubdivQuad handles the four refined loops of one refined quad. Loops
// without a coarse vertex, or whose coarse vertex has no original, are
// skipped rather than restarted.
func (t *pointsSubdivTask) IterSubdivQuad(sc *subdiv.Cache, rd *RenderData, quad int, _ int) {
	for i := quad * 4; i < (quad+1)*4; i++ {
		v, ok := sc.CoarseVert(i)
		if !ok {
			continue
		}
		if rd.OrigNone(v) {
			continue
		}
		if rd.VertHidden(v) {
			t.elb.SetPointRestart(v)
			continue
		}
		t.elb.SetPointVert(v, i)
	}
}

// IterSubdivLooseEdge fills only the two ends of the edge's refined run.
func (t *pointsSubdivTask) IterSubdivLooseEdge(_ *subdiv.Cache, rd *RenderData, e LooseEdgeRef) {
	first, last := t.layout.LooseEdgeRun(e.Index)
	t.setLooseVert(rd, e.V1, first)
	t.setLooseVert(rd, e.V2, last)
}

func (t *pointsSubdivTask) IterSubdivLooseVert(_ *subdiv.Cache, rd *RenderData, v LooseVertRef) {
	t.setLooseVert(rd, v.Vert, t.layout.LooseVertSlot(v.Index))
}

func (t *pointsSubdivTask) setLooseVert(rd *RenderData, v, slot int) {
	if rd.Kind == KindFlat {
		setVert(t.elb, rd, v, slot)
		return
	}
	orig, ok := rd.origGraphVert(v)
	if !ok {
		return
	}
	if orig.Hidden {
		t.elb.SetPointRestart(orig.Index)
	} else {
		t.elb.SetPointVert(orig.Index, slot)
	}
}

func (t *pointsSubdivTask) Reduce(from SubdivTask) {
	t.elb.Join(from.(*pointsSubdivTask).elb)
}
