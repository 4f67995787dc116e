package extract

import (
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/drawcache/internal/logger"
	"github.com/Faultbox/drawcache/internal/subdiv"
)

// Default chunk sizes, in elements per task.
const (
	DefaultFaceChunk  = 1024
	DefaultLooseChunk = 2048
)

// RunnerConfig holds runner settings.
type RunnerConfig struct {
	// Workers is the number of parallel tasks; 0 means GOMAXPROCS.
	Workers    int
	FaceChunk  int
	LooseChunk int
}

// Runner drives extraction passes.
type Runner struct {
	workers    int
	faceChunk  int
	looseChunk int
}

// NewRunner creates a runner, filling unset fields with defaults.
func NewRunner(cfg RunnerConfig) *Runner {
	r := &Runner{
		workers:    cfg.Workers,
		faceChunk:  cfg.FaceChunk,
		looseChunk: cfg.LooseChunk,
	}
	if r.workers <= 0 {
		r.workers = runtime.GOMAXPROCS(0)
	}
	if r.faceChunk <= 0 {
		r.faceChunk = DefaultFaceChunk
	}
	if r.looseChunk <= 0 {
		r.looseChunk = DefaultLooseChunk
	}
	return r
}

// Workers returns the parallel task count.
func (r *Runner) Workers() int { return r.workers }

// forkable is the scratch contract shared by Task and SubdivTask.
type forkable[T any] interface {
	Fork() T
	Reduce(from T)
}

// runPhase calls iter for every index in [0, n) on every root task.
//
// Threaded roots are forked once per worker; workers claim chunks of the
// range until it is exhausted, and the forks are reduced into their roots in
// worker order after all workers finish. Other roots iterate the whole range
// in a single goroutine. It returns the number of chunks.
func runPhase[T forkable[T]](r *Runner, n, chunk int, roots []T, threaded []bool, iter func(t T, i int)) int {
	if n == 0 || len(roots) == 0 {
		return 0
	}
	chunks := (n + chunk - 1) / chunk
	workers := min(r.workers, chunks)

	var parallel, serial []int
	for i := range roots {
		if threaded[i] && workers > 1 {
			parallel = append(parallel, i)
		} else {
			serial = append(serial, i)
		}
	}

	var g errgroup.Group
	if len(serial) > 0 {
		g.Go(func() error {
			for i := range n {
				for _, j := range serial {
					iter(roots[j], i)
				}
			}
			return nil
		})
	}

	var locals [][]T
	if len(parallel) > 0 {
		locals = make([][]T, workers)
		var next atomic.Int64
		for w := range workers {
			g.Go(func() error {
				ts := make([]T, len(parallel))
				for k, j := range parallel {
					ts[k] = roots[j].Fork()
				}
				for {
					c := int(next.Add(1) - 1)
					if c >= chunks {
						break
					}
					hi := min(n, (c+1)*chunk)
					for i := c * chunk; i < hi; i++ {
						for _, t := range ts {
							iter(t, i)
						}
					}
				}
				locals[w] = ts
				return nil
			})
		}
	}

	// Tasks cannot fail; Wait is the phase barrier.
	_ = g.Wait()

	for _, ts := range locals {
		for k, j := range parallel {
			roots[j].Reduce(ts[k])
		}
	}
	return chunks
}

// Extract runs one coarse pass: faces, then loose edges, then loose verts.
// Every extractor's buffer is replaced by a freshly built one in cache.
func (r *Runner) Extract(rd *RenderData, cache *BatchCache, extractors ...Extractor) {
	assert(rd.Kind != KindGraph || rd.Graph.LoopsIndexed(), "graph loops are not indexed")
	start := time.Now()

	tasks := make([]Task, len(extractors))
	threaded := make([]bool, len(extractors))
	for i, e := range extractors {
		info := e.Info()
		tasks[i] = e.Init(rd, cache, cache.Buffers.Request(info.Buffer))
		threaded[i] = info.UseThreading
	}

	faceChunks := runPhase(r, rd.FacesNum, r.faceChunk, tasks, threaded, func(t Task, i int) {
		t.IterFace(rd, rd.Face(i))
	})
	edgeChunks := runPhase(r, rd.LooseEdgesNum, r.looseChunk, tasks, threaded, func(t Task, i int) {
		t.IterLooseEdge(rd, rd.LooseEdge(i))
	})
	vertChunks := runPhase(r, rd.LooseVertsNum, r.looseChunk, tasks, threaded, func(t Task, i int) {
		t.IterLooseVert(rd, rd.LooseVert(i))
	})

	for i, e := range extractors {
		e.Finish(rd, cache, cache.Buffers.Get(e.Info().Buffer), tasks[i])
	}

	logger.Debug("extraction finished",
		zap.Stringer("kind", rd.Kind),
		zap.Int("extractors", len(extractors)),
		zap.Int("verts", rd.VertsNum),
		zap.Int("slots", rd.Layout().Total()),
		zap.Int("face_chunks", faceChunks),
		zap.Int("loose_edge_chunks", edgeChunks),
		zap.Int("loose_vert_chunks", vertChunks),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// ExtractSubdiv runs one pass over the refined topology of sc: refined
// quads, then loose edges, then loose verts.
func (r *Runner) ExtractSubdiv(sc *subdiv.Cache, rd *RenderData, cache *BatchCache, extractors ...SubdivExtractor) {
	if err := sc.Validate(); err != nil {
		panic("extract: invalid subdivision cache: " + err.Error())
	}
	start := time.Now()

	tasks := make([]SubdivTask, len(extractors))
	threaded := make([]bool, len(extractors))
	for i, e := range extractors {
		info := e.Info()
		tasks[i] = e.InitSubdiv(sc, rd, cache, cache.Buffers.Request(info.Buffer))
		threaded[i] = info.UseThreading
	}

	quadChunks := runPhase(r, sc.NumSubdivQuads, r.faceChunk, tasks, threaded, func(t SubdivTask, q int) {
		coarseFace := -1
		if sc.LoopFaceIndex != nil {
			coarseFace = int(sc.LoopFaceIndex[q*4])
		}
		t.IterSubdivQuad(sc, rd, q, coarseFace)
	})
	edgeChunks := runPhase(r, rd.LooseEdgesNum, r.looseChunk, tasks, threaded, func(t SubdivTask, i int) {
		t.IterSubdivLooseEdge(sc, rd, rd.LooseEdge(i))
	})
	vertChunks := runPhase(r, rd.LooseVertsNum, r.looseChunk, tasks, threaded, func(t SubdivTask, i int) {
		t.IterSubdivLooseVert(sc, rd, rd.LooseVert(i))
	})

	for i, e := range extractors {
		e.FinishSubdiv(sc, rd, cache, cache.Buffers.Get(e.Info().Buffer), tasks[i])
	}

	logger.Debug("subdivision extraction finished",
		zap.Stringer("kind", rd.Kind),
		zap.Int("level", sc.Level),
		zap.Int("verts", rd.VertsNum),
		zap.Int("slots", rd.SubdivLayout(sc).Total()),
		zap.Int("quad_chunks", quadChunks),
		zap.Int("loose_edge_chunks", edgeChunks),
		zap.Int("loose_vert_chunks", vertChunks),
		zap.Duration("elapsed", time.Since(start)),
	)
}
