package extract

import (
	"github.com/Faultbox/drawcache/internal/gpu"
	"github.com/Faultbox/drawcache/internal/subdiv"
)

// DataType lists mesh attributes an extractor needs beyond topology and
// visibility.
type DataType uint32

const (
	DataNone     DataType = 0
	DataLoopTris DataType = 1 << (iota - 1)
	DataLooseGeom
)

// BufferID names a buffer in a BufferList.
type BufferID int

const (
	BufferPoints BufferID = iota
	BufferLines
	BufferTris
	bufferCount
)

func (id BufferID) String() string {
	switch id {
	case BufferPoints:
		return "ibo.points"
	case BufferLines:
		return "ibo.lines"
	case BufferTris:
		return "ibo.tris"
	default:
		return "ibo.unknown"
	}
}

// BufferList holds the index buffers of one batch.
type BufferList struct {
	ibo [bufferCount]*gpu.IndexBuf
}

// Get returns buffer id, or nil when it was never requested.
func (l *BufferList) Get(id BufferID) *gpu.IndexBuf {
	return l.ibo[id]
}

// Request installs a fresh, unbuilt buffer at id and returns it.
func (l *BufferList) Request(id BufferID) *gpu.IndexBuf {
	l.ibo[id] = &gpu.IndexBuf{}
	return l.ibo[id]
}

// BatchCache is the per-mesh buffer storage extractors write to.
type BatchCache struct {
	Buffers BufferList
}

// Info is the static description of an extractor.
type Info struct {
	Name         string
	UseThreading bool
	DataType     DataType
	// ScratchSize is the size of one task's scratch state in bytes.
	ScratchSize uintptr
	// Buffer is where the finished buffer is stored in the batch.
	Buffer BufferID
}

// Task is the scratch state of one extractor for one pass. The runner forks
// a task per parallel worker and reduces the forks back into the root.
type Task interface {
	Fork() Task
	IterFace(rd *RenderData, f FaceRef)
	IterLooseEdge(rd *RenderData, e LooseEdgeRef)
	IterLooseVert(rd *RenderData, v LooseVertRef)
	Reduce(from Task)
}

// Extractor fills one buffer from the coarse mesh.
type Extractor interface {
	Info() Info
	Init(rd *RenderData, cache *BatchCache, buf *gpu.IndexBuf) Task
	Finish(rd *RenderData, cache *BatchCache, buf *gpu.IndexBuf, t Task)
}

// SubdivTask is the scratch state of a subdivision pass.
type SubdivTask interface {
	Fork() SubdivTask
	IterSubdivQuad(sc *subdiv.Cache, rd *RenderData, quad int, coarseFace int)
	IterSubdivLooseEdge(sc *subdiv.Cache, rd *RenderData, e LooseEdgeRef)
	IterSubdivLooseVert(sc *subdiv.Cache, rd *RenderData, v LooseVertRef)
	Reduce(from SubdivTask)
}

// SubdivExtractor also fills its buffer over refined topology.
type SubdivExtractor interface {
	Extractor
	InitSubdiv(sc *subdiv.Cache, rd *RenderData, cache *BatchCache, buf *gpu.IndexBuf) SubdivTask
	FinishSubdiv(sc *subdiv.Cache, rd *RenderData, cache *BatchCache, buf *gpu.IndexBuf, t SubdivTask)
}
