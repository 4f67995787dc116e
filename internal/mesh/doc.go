// Package mesh provides the two mesh representations consumed by draw
// extraction: Graph, an editable linked structure of verts, edges, loops and
// faces, and Flat, an evaluated layout of faces as ranges over a corner to
// vertex array.
package mesh

import "errors"

// OrigIndexNone marks a vertex with no original counterpart.
const OrigIndexNone = -1

var (
	// ErrDegenerateFace is returned for faces with fewer than three corners.
	ErrDegenerateFace = errors.New("degenerate face")
	// ErrDuplicateVert is returned when a face or edge repeats a vertex.
	ErrDuplicateVert = errors.New("duplicate vertex")
	// ErrVertRange is returned for vertex references outside the mesh.
	ErrVertRange = errors.New("vertex out of range")
	// ErrBadOffsets is returned when face offsets are not ascending.
	ErrBadOffsets = errors.New("invalid face offsets")
)
