package graph

// DefaultInputKey is the key an edge's value lands on when the edge carries
// no source handle.
const DefaultInputKey = "default"

// NodeInputs resolves the effective input values supplied to the node by its
// upstream neighbors: for every inbound edge, the source node's produced
// value (see models.Node.OutputValue for the field precedence) keyed by the
// edge's source handle, or DefaultInputKey when the edge has none.
//
// Pure with respect to the current graph state; no side effects. Upstream
// nodes that have produced nothing yet contribute no entry, so a node with
// no resolvable inputs gets an empty map. When several edges share a key the
// later edge wins, matching edge insertion order.
func (g *Graph) NodeInputs(nodeID string) map[string]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	inputs := make(map[string]string)

	for _, edge := range g.edges {
		if edge.Target != nodeID {
			continue
		}

		index := g.nodeIndex(edge.Source)
		if index < 0 {
			continue
		}

		value := g.nodes[index].OutputValue()
		if value == "" {
			continue
		}

		key := edge.SourceHandle
		if key == "" {
			key = DefaultInputKey
		}

		inputs[key] = value
	}

	return inputs
}
