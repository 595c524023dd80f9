package analyzer

import (
	"context"

	"github.com/panbanda/sweep/pkg/graph"
)

// GraphAnalyzer is the interface every analysis pass implements.
// Passes read the graph and return their own result; recording the result on the
// graph is the caller's job, so no pass ever touches another pass's annotations.
type GraphAnalyzer[T any] interface {
	// Analyze runs the pass over a frozen graph.
	// The context is checked between declarations for cancellation.
	Analyze(ctx context.Context, g *graph.Graph) (T, error)
}
