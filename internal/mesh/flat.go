package mesh

import "fmt"

// Flat is an evaluated mesh stored in flat arrays. Face i spans corners
// [FaceOffsets[i], FaceOffsets[i+1]) of CornerVerts.
type Flat struct {
	VertsNum    int
	Edges       [][2]int
	FaceOffsets []int
	CornerVerts []int

	// HideVert is empty when the mesh has no hide layer.
	HideVert []bool
	// OrigIndex maps each vertex to its original, or OrigIndexNone.
	// Nil when the mesh is not derived.
	OrigIndex []int32
}

// NewFlat validates the arrays and returns a flat mesh. faces holds the
// vertex indices of each face; edges lists every edge including face edges.
// Face edges missing from edges are added.
func NewFlat(vertsNum int, faces [][]int, edges [][2]int) (*Flat, error) {
	m := &Flat{
		VertsNum:    vertsNum,
		FaceOffsets: make([]int, 0, len(faces)+1),
	}
	m.FaceOffsets = append(m.FaceOffsets, 0)

	known := make(map[[2]int]struct{}, len(edges))
	for i, e := range edges {
		if err := m.checkVert(e[0]); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		if err := m.checkVert(e[1]); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		if e[0] == e[1] {
			return nil, fmt.Errorf("edge %d: %w", i, ErrDuplicateVert)
		}
		k := orderedPair(e[0], e[1])
		if _, dup := known[k]; dup {
			continue
		}
		known[k] = struct{}{}
		m.Edges = append(m.Edges, e)
	}

	for i, f := range faces {
		if len(f) < 3 {
			return nil, fmt.Errorf("face %d: %w", i, ErrDegenerateFace)
		}
		seen := make(map[int]struct{}, len(f))
		for j, v := range f {
			if err := m.checkVert(v); err != nil {
				return nil, fmt.Errorf("face %d: %w", i, err)
			}
			if _, dup := seen[v]; dup {
				return nil, fmt.Errorf("face %d: %w", i, ErrDuplicateVert)
			}
			seen[v] = struct{}{}

			k := orderedPair(v, f[(j+1)%len(f)])
			if _, ok := known[k]; !ok {
				known[k] = struct{}{}
				m.Edges = append(m.Edges, [2]int{v, f[(j+1)%len(f)]})
			}
		}
		m.CornerVerts = append(m.CornerVerts, f...)
		m.FaceOffsets = append(m.FaceOffsets, len(m.CornerVerts))
	}
	return m, nil
}

func (m *Flat) checkVert(v int) error {
	if v < 0 || v >= m.VertsNum {
		return fmt.Errorf("vert %d of %d: %w", v, m.VertsNum, ErrVertRange)
	}
	return nil
}

func orderedPair(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Validate checks the internal consistency of the arrays.
func (m *Flat) Validate() error {
	if len(m.FaceOffsets) == 0 || m.FaceOffsets[0] != 0 {
		return ErrBadOffsets
	}
	for i := 1; i < len(m.FaceOffsets); i++ {
		if m.FaceOffsets[i]-m.FaceOffsets[i-1] < 3 {
			return fmt.Errorf("face %d: %w", i-1, ErrBadOffsets)
		}
	}
	if m.FaceOffsets[len(m.FaceOffsets)-1] != len(m.CornerVerts) {
		return fmt.Errorf("last offset %d, corners %d: %w",
			m.FaceOffsets[len(m.FaceOffsets)-1], len(m.CornerVerts), ErrBadOffsets)
	}
	for _, v := range m.CornerVerts {
		if err := m.checkVert(v); err != nil {
			return err
		}
	}
	for _, e := range m.Edges {
		if err := m.checkVert(e[0]); err != nil {
			return err
		}
		if err := m.checkVert(e[1]); err != nil {
			return err
		}
	}
	if len(m.HideVert) != 0 && len(m.HideVert) != m.VertsNum {
		return fmt.Errorf("hide layer has %d entries for %d verts", len(m.HideVert), m.VertsNum)
	}
	if m.OrigIndex != nil && len(m.OrigIndex) != m.VertsNum {
		return fmt.Errorf("origin layer has %d entries for %d verts", len(m.OrigIndex), m.VertsNum)
	}
	return nil
}

// FacesNum returns the number of faces.
func (m *Flat) FacesNum() int {
	if len(m.FaceOffsets) == 0 {
		return 0
	}
	return len(m.FaceOffsets) - 1
}

// CornersNum returns the number of face corners.
func (m *Flat) CornersNum() int {
	return len(m.CornerVerts)
}

// FaceCorners returns the corner range [start, end) of face i.
func (m *Flat) FaceCorners(i int) (start, end int) {
	return m.FaceOffsets[i], m.FaceOffsets[i+1]
}

// FaceVerts appends the vertex indices of face i to dst.
func (m *Flat) FaceVerts(i int, dst []int) []int {
	start, end := m.FaceCorners(i)
	return append(dst, m.CornerVerts[start:end]...)
}

// SetHidden sets the hide flag of vertex v, creating the layer on demand.
func (m *Flat) SetHidden(v int, hidden bool) {
	if len(m.HideVert) == 0 {
		if !hidden {
			return
		}
		m.HideVert = make([]bool, m.VertsNum)
	}
	m.HideVert[v] = hidden
}

// LooseEdges returns the indices of edges not used by any face.
func (m *Flat) LooseEdges() []int {
	used := make(map[[2]int]struct{}, len(m.CornerVerts))
	for f := range m.FacesNum() {
		start, end := m.FaceCorners(f)
		for c := start; c < end; c++ {
			next := c + 1
			if next == end {
				next = start
			}
			used[orderedPair(m.CornerVerts[c], m.CornerVerts[next])] = struct{}{}
		}
	}
	var out []int
	for i, e := range m.Edges {
		if _, ok := used[orderedPair(e[0], e[1])]; !ok {
			out = append(out, i)
		}
	}
	return out
}

// LooseVerts returns the indices of vertices used by no corner and no edge.
func (m *Flat) LooseVerts() []int {
	used := make([]bool, m.VertsNum)
	for _, v := range m.CornerVerts {
		used[v] = true
	}
	for _, e := range m.Edges {
		used[e[0]] = true
		used[e[1]] = true
	}
	var out []int
	for v, u := range used {
		if !u {
			out = append(out, v)
		}
	}
	return out
}
