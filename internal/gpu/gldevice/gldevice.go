// Package gldevice uploads compiled index buffers to OpenGL and draws them.
// All functions must be called on the thread owning the GL context.
package gldevice

import (
	"errors"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/drawcache/internal/gpu"
)

// ErrNotBuilt is returned when uploading a buffer that was never compiled.
var ErrNotBuilt = errors.New("index buffer is not built")

// Init loads the GL function pointers. Call once after the context is current.
func Init() error {
	return gl.Init()
}

// IndexBuffer is an element array buffer on the GPU.
type IndexBuffer struct {
	id      uint32
	count   int32
	xtype   uint32
	base    int32
	restart bool
	reset   uint32
}

// UploadIndexBuf copies ibo into a new element array buffer. The buffer must
// be bound while a vertex array is bound for it to be captured by that array.
func UploadIndexBuf(ibo *gpu.IndexBuf) (*IndexBuffer, error) {
	if !ibo.Built() {
		return nil, ErrNotBuilt
	}
	b := &IndexBuffer{
		count:   int32(ibo.Len()),
		base:    int32(ibo.Base()),
		restart: ibo.UsesRestart(),
		reset:   ibo.RestartValue(),
	}

	var ptr unsafe.Pointer
	switch ibo.Type() {
	case gpu.IndexU16:
		b.xtype = gl.UNSIGNED_SHORT
		if data := ibo.Uint16(); len(data) > 0 {
			ptr = unsafe.Pointer(&data[0])
		}
	default:
		b.xtype = gl.UNSIGNED_INT
		if data := ibo.Uint32(); len(data) > 0 {
			ptr = unsafe.Pointer(&data[0])
		}
	}

	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.id)
	if ptr != nil {
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, ibo.SizeBytes(), ptr, gl.STATIC_DRAW)
	}
	return b, nil
}

// Count returns the number of elements.
func (b *IndexBuffer) Count() int { return int(b.count) }

// Draw issues one indexed draw of mode with primitive restart enabled when
// the buffer uses it. 16-bit buffers are offset by their base.
func (b *IndexBuffer) Draw(mode uint32) {
	if b.count == 0 {
		return
	}
	if b.restart {
		gl.Enable(gl.PRIMITIVE_RESTART)
		gl.PrimitiveRestartIndex(b.reset)
		defer gl.Disable(gl.PRIMITIVE_RESTART)
	}
	if b.base != 0 {
		gl.DrawElementsBaseVertex(mode, b.count, b.xtype, nil, b.base)
		return
	}
	gl.DrawElements(mode, b.count, b.xtype, nil)
}

// Delete frees the GPU buffer.
func (b *IndexBuffer) Delete() {
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}

// PointBatch is a vertex array pairing a slot-ordered position buffer with a
// point index buffer.
type PointBatch struct {
	vao uint32
	vbo uint32
	ibo *IndexBuffer
}

// NewPointBatch uploads positions (three floats per slot) and the point
// buffer. Attribute 0 is the position.
func NewPointBatch(positions []float32, points *gpu.IndexBuf) (*PointBatch, error) {
	pb := &PointBatch{}
	gl.GenVertexArrays(1, &pb.vao)
	gl.BindVertexArray(pb.vao)
	defer gl.BindVertexArray(0)

	gl.GenBuffers(1, &pb.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, pb.vbo)
	if len(positions) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(positions)*4, unsafe.Pointer(&positions[0]), gl.STATIC_DRAW)
	}
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)

	ibo, err := UploadIndexBuf(points)
	if err != nil {
		gl.DeleteBuffers(1, &pb.vbo)
		gl.DeleteVertexArrays(1, &pb.vao)
		return nil, err
	}
	pb.ibo = ibo
	return pb, nil
}

// Points returns the number of index elements, restarts included.
func (pb *PointBatch) Points() int { return pb.ibo.Count() }

// Draw draws the batch as GL_POINTS.
func (pb *PointBatch) Draw() {
	gl.BindVertexArray(pb.vao)
	pb.ibo.Draw(gl.POINTS)
	gl.BindVertexArray(0)
}

// Delete frees all GPU objects.
func (pb *PointBatch) Delete() {
	pb.ibo.Delete()
	gl.DeleteBuffers(1, &pb.vbo)
	gl.DeleteVertexArrays(1, &pb.vao)
}
