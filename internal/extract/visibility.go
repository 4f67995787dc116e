package extract

import "github.com/Faultbox/drawcache/internal/mesh"

// Visibility is the outcome of resolving one vertex.
type Visibility uint8

const (
	Visible Visibility = iota
	Restart
)

func (v Visibility) String() string {
	if v == Visible {
		return "visible"
	}
	return "restart"
}

// VertHidden reports whether the hide state of vertex v excludes it.
func (rd *RenderData) VertHidden(v int) bool {
	if rd.Kind == KindGraph {
		return rd.Graph.Verts[v].Hidden
	}
	return rd.UseHide && len(rd.HideVert) != 0 && rd.HideVert[v]
}

// OrigNone reports whether vertex v has no original counterpart.
func (rd *RenderData) OrigNone(v int) bool {
	return rd.VertOrigIndex != nil && rd.VertOrigIndex[v] == mesh.OrigIndexNone
}

// ResolveVert decides whether vertex v is drawn. It depends only on the
// vertex, never on the corner or task that reaches it.
func (rd *RenderData) ResolveVert(v int) Visibility {
	if rd.Kind == KindGraph {
		if rd.Graph.Verts[v].Hidden {
			return Restart
		}
		return Visible
	}
	if rd.VertHidden(v) || rd.OrigNone(v) {
		return Restart
	}
	return Visible
}

// origGraphVert maps a vertex of a derived mesh back to the graph vertex it
// came from. It reports false when the vertex has no original.
func (rd *RenderData) origGraphVert(v int) (*mesh.Vert, bool) {
	if rd.VertOrigIndex == nil {
		return rd.Graph.Verts[v], true
	}
	orig := rd.VertOrigIndex[v]
	if orig == mesh.OrigIndexNone {
		return nil, false
	}
	return rd.Graph.Verts[orig], true
}
