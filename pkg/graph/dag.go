package graph

import (
	"fmt"

	"github.com/weftlabs/weft/pkg/models"
)

// WouldCreateCycle reports whether adding candidate to the edge set closes a
// directed cycle. It builds the adjacency structure from the existing edges
// plus the candidate and runs a DFS from the candidate's source, tracking the
// recursion stack; revisiting a node already on the stack means a cycle.
// A self-loop (source == target) is caught by the same mechanism. Runs in
// O(nodes + edges) and handles disconnected components, since only the part
// reachable from the candidate's source can close a cycle through it.
//
// The returned path lists the nodes walked up to and including the revisited
// one, for diagnostics.
func WouldCreateCycle(edges []*models.Edge, candidate *models.Edge) (bool, []string) {
	adjacency := buildAdjacency(edges)
	adjacency[candidate.Source] = append(adjacency[candidate.Source], candidate.Target)

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	path := make([]string, 0)

	var dfs func(id string) bool

	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, next := range adjacency[id] {
			if !visited[next] {
				if dfs(next) {
					return true
				}
			} else if onStack[next] {
				path = append(path, next)

				return true
			}
		}

		delete(onStack, id)
		path = path[:len(path)-1]

		return false
	}

	if dfs(candidate.Source) {
		return true, path
	}

	return false, nil
}

// ValidateDAG confirms the whole graph is acyclic, starting a DFS from every
// unvisited node. Used as a defensive check independent of the incremental
// pre-check, e.g. after a bulk import.
func ValidateDAG(nodes []*models.Node, edges []*models.Edge) error {
	adjacency := buildAdjacency(edges)

	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var dfs func(id string) bool

	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, next := range adjacency[id] {
			if !visited[next] {
				if dfs(next) {
					return true
				}
			} else if onStack[next] {
				return true
			}
		}

		delete(onStack, id)

		return false
	}

	for _, node := range nodes {
		if !visited[node.ID] {
			if dfs(node.ID) {
				return fmt.Errorf("workflow contains circular dependencies: %w", ErrCycleDetected)
			}
		}
	}

	return nil
}

// ExecutionOrder computes a dependency-respecting total order over all nodes
// using Kahn's algorithm. Order among nodes of equal in-degree follows their
// insertion order, so the result is deterministic for a given graph.
//
// The graph is acyclic by construction, so the order must consume every
// node; if it does not, a cycle slipped through or a dangling edge survived,
// and the ErrGraphCorrupted precondition failure is returned rather than a
// silently truncated order.
func ExecutionOrder(nodes []*models.Node, edges []*models.Edge) ([]string, error) {
	adjacency := make(map[string][]string, len(nodes))
	inDegree := make(map[string]int, len(nodes))

	for _, node := range nodes {
		adjacency[node.ID] = nil
		inDegree[node.ID] = 0
	}

	for _, edge := range edges {
		if _, ok := inDegree[edge.Source]; !ok {
			return nil, fmt.Errorf("edge %s references unknown source %s: %w", edge.ID, edge.Source, ErrGraphCorrupted)
		}

		if _, ok := inDegree[edge.Target]; !ok {
			return nil, fmt.Errorf("edge %s references unknown target %s: %w", edge.ID, edge.Target, ErrGraphCorrupted)
		}

		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		inDegree[edge.Target]++
	}

	queue := make([]string, 0, len(nodes))

	for _, node := range nodes {
		if inDegree[node.ID] == 0 {
			queue = append(queue, node.ID)
		}
	}

	order := make([]string, 0, len(nodes))

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)

		for _, next := range adjacency[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, fmt.Errorf(
			"execution order consumed %d of %d nodes: %w",
			len(order), len(nodes), ErrGraphCorrupted,
		)
	}

	return order, nil
}

func buildAdjacency(edges []*models.Edge) map[string][]string {
	adjacency := make(map[string][]string)
	for _, edge := range edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
	}

	return adjacency
}
