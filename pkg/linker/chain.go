package linker

import (
	"fmt"

	"github.com/heimdalr/dag"
)

// periodChain orders period indices as a graph with an edge t → t+1. A
// valid chain has exactly one root and reaches every vertex from it.
type periodChain struct {
	dag *dag.DAG
}

func vertexID(index int) string {
	return fmt.Sprintf("period-%d", index)
}

// buildChain adds one vertex per index and an edge between consecutive indices.
func buildChain(indices []int) (*periodChain, error) {
	c := &periodChain{dag: dag.NewDAG()}
	seen := make(map[int]struct{}, len(indices))

	for _, index := range indices {
		if _, ok := seen[index]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicatePeriod, index)
		}

		seen[index] = struct{}{}

		// The vertex value must be hashable, so store the index only.
		if err := c.dag.AddVertexByID(vertexID(index), index); err != nil {
			return nil, fmt.Errorf("failed to add vertex %s: %w", vertexID(index), err)
		}
	}

	for _, index := range indices {
		next := vertexID(index + 1)
		if _, err := c.dag.GetVertex(next); err != nil {
			continue
		}

		if err := c.dag.AddEdge(vertexID(index), next); err != nil {
			return nil, fmt.Errorf("invalid link %s → %s: %w", vertexID(index), next, err)
		}
	}

	return c, nil
}

// order walks the chain from its root and returns the period indices in
// ascending order.
func (c *periodChain) order() ([]int, error) {
	roots := c.dag.GetRoots()
	if len(roots) != 1 {
		return nil, fmt.Errorf("%w: %d separate runs", ErrNonContiguous, len(roots))
	}

	ordered := make([]int, 0, c.dag.GetOrder())

	for _, vertex := range roots {
		index, ok := vertex.(int)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected vertex %v", ErrNonContiguous, vertex)
		}

		ordered = append(ordered, index)
	}

	for {
		children, err := c.dag.GetChildren(vertexID(ordered[len(ordered)-1]))
		if err != nil {
			return nil, err
		}

		if len(children) == 0 {
			break
		}

		for _, vertex := range children {
			index, ok := vertex.(int)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected vertex %v", ErrNonContiguous, vertex)
			}

			ordered = append(ordered, index)
		}
	}

	if len(ordered) != c.dag.GetOrder() {
		return nil, fmt.Errorf("%w: reached %d of %d periods", ErrNonContiguous, len(ordered), c.dag.GetOrder())
	}

	return ordered, nil
}
