// Package meshio reads and writes YAML mesh documents used by the tools.
package meshio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/drawcache/internal/extract"
	"github.com/Faultbox/drawcache/internal/mesh"
)

// Document errors.
var (
	ErrUnknownKind = errors.New("unknown mesh kind")
	ErrNoVerts     = errors.New("mesh has no verts")
)

// Document kinds.
const (
	KindFlat  = "flat"
	KindGraph = "graph"
)

// Document is the on-disk form of a mesh.
type Document struct {
	Name string `yaml:"name,omitempty"`
	// Kind is "flat" (default) or "graph".
	Kind  string       `yaml:"kind,omitempty"`
	Verts [][3]float32 `yaml:"verts"`
	// Hidden lists hidden vertex indices.
	Hidden []int `yaml:"hidden,omitempty"`
	// OrigIndex maps each vertex to its original; -1 means none.
	OrigIndex []int32  `yaml:"orig_index,omitempty"`
	Faces     [][]int  `yaml:"faces,omitempty"`
	Edges     [][2]int `yaml:"edges,omitempty"`
}

// Load reads a document from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes and validates a document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save writes the document to path.
func (d *Document) Save(path string) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the document fields that the mesh builders do not.
func (d *Document) Validate() error {
	switch d.Kind {
	case "", KindFlat, KindGraph:
	default:
		return fmt.Errorf("%q: %w", d.Kind, ErrUnknownKind)
	}
	if len(d.Verts) == 0 {
		return ErrNoVerts
	}
	for _, v := range d.Hidden {
		if v < 0 || v >= len(d.Verts) {
			return fmt.Errorf("hidden vert %d: %w", v, mesh.ErrVertRange)
		}
	}
	if d.OrigIndex != nil && len(d.OrigIndex) != len(d.Verts) {
		return fmt.Errorf("orig_index has %d entries for %d verts", len(d.OrigIndex), len(d.Verts))
	}
	for v, o := range d.OrigIndex {
		if o != mesh.OrigIndexNone && (o < 0 || int(o) >= len(d.Verts)) {
			return fmt.Errorf("orig_index of vert %d is %d: %w", v, o, mesh.ErrVertRange)
		}
	}
	return nil
}

// IsGraph reports whether the document asks for the graph representation.
func (d *Document) IsGraph() bool {
	return d.Kind == KindGraph
}

// Flat builds the flat representation.
func (d *Document) Flat() (*mesh.Flat, error) {
	m, err := mesh.NewFlat(len(d.Verts), d.Faces, d.Edges)
	if err != nil {
		return nil, err
	}
	for _, v := range d.Hidden {
		m.SetHidden(v, true)
	}
	m.OrigIndex = d.OrigIndex
	return m, nil
}

// Graph builds the graph representation. Edges are added before faces so
// edge indices follow the document order.
func (d *Document) Graph() (*mesh.Graph, error) {
	g := mesh.NewGraph()
	verts := g.AddVerts(len(d.Verts))
	at := func(i int) (*mesh.Vert, error) {
		if i < 0 || i >= len(verts) {
			return nil, fmt.Errorf("vert %d: %w", i, mesh.ErrVertRange)
		}
		return verts[i], nil
	}

	for i, e := range d.Edges {
		a, err := at(e[0])
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		b, err := at(e[1])
		if err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
		if _, err := g.AddEdge(a, b); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}

	fv := make([]*mesh.Vert, 0, 4)
	for i, f := range d.Faces {
		fv = fv[:0]
		for _, v := range f {
			vert, err := at(v)
			if err != nil {
				return nil, fmt.Errorf("face %d: %w", i, err)
			}
			fv = append(fv, vert)
		}
		if _, err := g.AddFace(fv...); err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
	}

	for _, v := range d.Hidden {
		g.SetHidden(v, true)
	}
	g.IndexLoops()
	return g, nil
}

// RenderData builds the mesh of the document's kind and snapshots it.
// The document's orig_index is used unless opts overrides it.
func (d *Document) RenderData(opts extract.Options) (*extract.RenderData, error) {
	if d.IsGraph() {
		g, err := d.Graph()
		if err != nil {
			return nil, err
		}
		if opts.OrigIndex == nil {
			opts.OrigIndex = d.OrigIndex
		}
		return extract.NewGraphRenderData(g, opts)
	}
	m, err := d.Flat()
	if err != nil {
		return nil, err
	}
	return extract.NewFlatRenderData(m, opts)
}
