package graph

import "github.com/weftlabs/weft/pkg/models"

// historyLimit caps the undo depth; the oldest snapshot is evicted first.
const historyLimit = 50

// snapshot is an immutable copy of the full node/edge state. Snapshots never
// alias live graph objects: both commit and restore deep-copy.
type snapshot struct {
	nodes []*models.Node
	edges []*models.Edge
}

func takeSnapshot(nodes []*models.Node, edges []*models.Edge) snapshot {
	return snapshot{nodes: cloneNodes(nodes), edges: cloneEdges(edges)}
}

func (s snapshot) restore() ([]*models.Node, []*models.Edge) {
	return cloneNodes(s.nodes), cloneEdges(s.edges)
}

// history is a linear sequence of snapshots with a cursor. The cursor always
// points at a valid index; committing while undone truncates the redo branch.
type history struct {
	entries []snapshot
	cursor  int
}

func newHistory(initial snapshot) *history {
	return &history{entries: []snapshot{initial}, cursor: 0}
}

func (h *history) commit(s snapshot) {
	h.entries = append(h.entries[:h.cursor+1], s)
	h.cursor = len(h.entries) - 1

	if len(h.entries) > historyLimit {
		h.entries = h.entries[1:]
		h.cursor--
	}
}

func (h *history) undo() (snapshot, bool) {
	if h.cursor == 0 {
		return snapshot{}, false
	}

	h.cursor--

	return h.entries[h.cursor], true
}

func (h *history) redo() (snapshot, bool) {
	if h.cursor >= len(h.entries)-1 {
		return snapshot{}, false
	}

	h.cursor++

	return h.entries[h.cursor], true
}

func (h *history) canUndo() bool {
	return h.cursor > 0
}

func (h *history) canRedo() bool {
	return h.cursor < len(h.entries)-1
}

func (h *history) len() int {
	return len(h.entries)
}

func cloneNodes(nodes []*models.Node) []*models.Node {
	clones := make([]*models.Node, len(nodes))
	for i, node := range nodes {
		clones[i] = node.Clone()
	}

	return clones
}

func cloneEdges(edges []*models.Edge) []*models.Edge {
	clones := make([]*models.Edge, len(edges))
	for i, edge := range edges {
		clones[i] = edge.Clone()
	}

	return clones
}
