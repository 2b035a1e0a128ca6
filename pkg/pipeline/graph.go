package pipeline

import (
	"fmt"
	"io"
	"os"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
)

// Graph builds the buffer dependency graph: one vertex per step output and
// an edge from every input to the step reading it. Steps only read earlier
// buffers, so the graph is acyclic by construction.
func (p *Pipeline) Graph() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.Acyclic())
	for i, s := range p.steps {
		err := g.AddVertex(string(s.Out),
			graph.VertexAttribute("label", fmt.Sprintf(`%s\n%s`, s.Out, s.Params.Op())),
			graph.VertexWeight(i),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "vertex %s", s.Out)
		}
		for _, in := range s.In {
			if err := g.AddEdge(string(in), string(s.Out)); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, errors.Wrapf(err, "edge %s -> %s", in, s.Out)
			}
		}
	}
	return g, nil
}

// WriteDOT renders the step graph in Graphviz DOT format.
func (p *Pipeline) WriteDOT(w io.Writer) error {
	g, err := p.Graph()
	if err != nil {
		return err
	}
	return draw.DOT(g, w,
		draw.GraphAttribute("label", p.name),
		draw.GraphAttribute("rankdir", "TB"),
	)
}

// DrawDOT writes the step graph to path.
func (p *Pipeline) DrawDOT(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := p.WriteDOT(file); err != nil {
		return errors.Wrapf(err, "drawing %s", path)
	}
	return file.Close()
}
