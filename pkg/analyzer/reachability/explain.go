package reachability

import (
	"context"
	"errors"
	"fmt"

	"github.com/panbanda/sweep/pkg/graph"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	// ErrUnknownSymbol is returned by Explain when no declaration carries the USR.
	ErrUnknownSymbol = errors.New("reachability: unknown symbol")
	// ErrNotRetained is returned by Explain when the declaration is unreachable.
	ErrNotRetained = errors.New("reachability: declaration is not retained")
)

// rootNode is the synthetic node every root hangs off. Declaration nodes are
// offset by one so that ID 0 stays free for it.
const rootNode = int64(0)

// Explanation is the shortest chain of declarations that keeps a target alive.
// Path[0] is a root and the last element is the target.
type Explanation struct {
	Target *graph.Declaration
	Path   []*graph.Declaration
}

// Explain finds the shortest retention path from the root set to the declaration
// carrying usr.
func (a *Analyzer) Explain(ctx context.Context, g *graph.Graph, usr string) (*Explanation, error) {
	if a.policy == nil {
		return nil, ErrNoPolicy
	}
	target, ok := g.Declaration(usr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, usr)
	}

	dispatch := NewDispatchResolver(g)
	dg := simple.NewDirectedGraph()
	dg.AddNode(simple.Node(rootNode))
	for _, d := range g.Declarations() {
		dg.AddNode(simple.Node(nodeID(d.ID)))
	}
	for _, id := range a.Roots(g, dispatch) {
		dg.SetEdge(simple.Edge{F: simple.Node(rootNode), T: simple.Node(nodeID(id))})
	}
	for i, d := range g.Declarations() {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for _, next := range successors(g, dispatch, d) {
			// simple graphs reject self loops
			if next == d.ID {
				continue
			}
			dg.SetEdge(simple.Edge{F: simple.Node(nodeID(d.ID)), T: simple.Node(nodeID(next))})
		}
	}

	shortest := path.DijkstraFrom(simple.Node(rootNode), dg)
	nodes, _ := shortest.To(nodeID(target.ID))
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotRetained, usr)
	}

	return &Explanation{
		Target: target,
		Path:   resolvePath(g, nodes[1:]),
	}, nil
}

func nodeID(id uint32) int64 {
	return int64(id) + 1
}

func resolvePath(g *graph.Graph, nodes []gonumgraph.Node) []*graph.Declaration {
	out := make([]*graph.Declaration, len(nodes))
	for i, n := range nodes {
		out[i] = g.ByID(uint32(n.ID() - 1))
	}
	return out
}
