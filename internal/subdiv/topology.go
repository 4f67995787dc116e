package subdiv

import "fmt"

// Coarse is the face topology a Cache is refined from.
type Coarse interface {
	FacesNum() int
	FaceVerts(face int, dst []int) []int
}

// patch loop order inside one refined quad, as (u, v) grid offsets.
var quadCorners = [4][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

// Build refines the face topology of m to the given level. Only topology is
// produced: each coarse n-gon becomes n corner patches of g*g quads where
// g = 2^(level-1). The first loop of the quad at a patch origin sits on the
// coarse corner vertex; every other loop has no coarse vertex.
func Build(m Coarse, level int) (*Cache, error) {
	if level < 1 || level > MaxLevel {
		return nil, fmt.Errorf("level %d: %w", level, ErrLevelRange)
	}
	g := 1 << (level - 1)
	quadsPerCorner := g * g

	corners := 0
	var verts []int
	for f := range m.FacesNum() {
		verts = m.FaceVerts(f, verts[:0])
		corners += len(verts)
	}

	loops := corners * quadsPerCorner * 4
	c := &Cache{
		Level:          level,
		Resolution:     ResolutionForLevel(level),
		NumSubdivLoops: loops,
		NumSubdivQuads: loops / 4,
		VertsOrigIndex: make([]int32, 0, loops),
		LoopFaceIndex:  make([]int32, 0, loops),
	}

	for f := range m.FacesNum() {
		verts = m.FaceVerts(f, verts[:0])
		for _, cv := range verts {
			for y := range g {
				for x := range g {
					for _, qc := range quadCorners {
						orig := NoCoarseVert
						if x+qc[0] == 0 && y+qc[1] == 0 {
							orig = int32(cv)
						}
						c.VertsOrigIndex = append(c.VertsOrigIndex, orig)
						c.LoopFaceIndex = append(c.LoopFaceIndex, int32(f))
					}
				}
			}
		}
	}
	return c, nil
}
