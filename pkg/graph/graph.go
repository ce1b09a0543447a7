// Package graph implements the workflow graph engine: the node/edge state
// store with its acyclicity invariant, cycle detection and topological
// ordering, input propagation between connected nodes, bounded undo/redo
// history, and export/import of portable documents.
package graph

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/weftlabs/weft/pkg/models"
)

// Graph is the single source of truth for workflow topology and per-node
// data. All mutations go through its API; topology changes are checked
// against the DAG invariant before being committed, and every committed
// structural mutation is snapshotted for undo/redo.
//
// A Graph is safe for concurrent use. Handlers and the runner share one
// instance; concurrently completing node executions each write only their
// own node's data.
type Graph struct {
	mu       sync.RWMutex
	nodes    []*models.Node
	edges    []*models.Edge
	selected map[string]bool
	history  *history
	logger   *slog.Logger
}

// New creates an empty graph. The empty state is the first history entry, so
// undoing the first mutation restores it exactly.
func New(logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Graph{
		selected: make(map[string]bool),
		logger:   logger.With("module", "graph"),
	}
	g.history = newHistory(takeSnapshot(g.nodes, g.edges))

	return g
}

// AddNode creates a node of the given kind with a fresh unique id and idle
// status. Fields set in initial override the variant defaults. Always
// succeeds; commits a history snapshot.
func (g *Graph) AddNode(kind models.NodeKind, position models.Position, initial *models.NodeDataPatch) *models.Node {
	g.mu.Lock()
	defer g.mu.Unlock()

	data := models.DefaultData(kind)
	initial.Apply(data)
	data.Status = models.NodeStatusIdle

	node := &models.Node{
		ID:       uuid.NewString(),
		Kind:     kind,
		Position: position,
		Data:     data,
	}

	g.nodes = append(g.nodes, node)
	g.commit()

	g.logger.Debug("Node added", "node_id", node.ID, "kind", kind)

	return node.Clone()
}

// DeleteNode removes the node and every edge where it is source or target.
// Commits a history snapshot on success.
func (g *Graph) DeleteNode(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	index := g.nodeIndex(id)
	if index < 0 {
		return fmt.Errorf("delete node %s: %w", id, ErrNodeNotFound)
	}

	g.nodes = append(g.nodes[:index], g.nodes[index+1:]...)

	kept := g.edges[:0]

	for _, edge := range g.edges {
		if edge.Source != id && edge.Target != id {
			kept = append(kept, edge)
		}
	}

	g.edges = kept
	delete(g.selected, id)
	g.commit()

	g.logger.Debug("Node deleted", "node_id", id)

	return nil
}

// UpdateNodeData shallow-merges the set fields of patch into the node's
// data. Field edits are frequent (every keystroke), so this deliberately
// does NOT commit a history snapshot; only structural mutations do.
func (g *Graph) UpdateNodeData(id string, patch *models.NodeDataPatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	index := g.nodeIndex(id)
	if index < 0 {
		return fmt.Errorf("update node %s: %w", id, ErrNodeNotFound)
	}

	patch.Apply(g.nodes[index].Data)

	return nil
}

// Connect creates a directed edge from source to target. The connection is
// rejected with a *CycleError when it would close a cycle (a self-loop is a
// one-node cycle), and with ErrNodeNotFound when either endpoint is missing,
// keeping referential integrity. Commits a history snapshot on success.
func (g *Graph) Connect(source, target, sourceHandle string) (*models.Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.nodeIndex(source) < 0 {
		return nil, fmt.Errorf("connect: source %s: %w", source, ErrNodeNotFound)
	}

	if g.nodeIndex(target) < 0 {
		return nil, fmt.Errorf("connect: target %s: %w", target, ErrNodeNotFound)
	}

	candidate := &models.Edge{
		ID:           uuid.NewString(),
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
	}

	if cyclic, path := WouldCreateCycle(g.edges, candidate); cyclic {
		g.logger.Debug("Connection rejected", "source", source, "target", target, "path", path)

		return nil, &CycleError{Source: source, Target: target, Path: path}
	}

	g.edges = append(g.edges, candidate)
	g.commit()

	g.logger.Debug("Edge added", "edge_id", candidate.ID, "source", source, "target", target)

	return candidate.Clone(), nil
}

// DeleteEdge removes a single edge. Commits a history snapshot on success.
func (g *Graph) DeleteEdge(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, edge := range g.edges {
		if edge.ID == id {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			g.commit()

			return nil
		}
	}

	return fmt.Errorf("delete edge %s: %w", id, ErrEdgeNotFound)
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (*models.Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	index := g.nodeIndex(id)
	if index < 0 {
		return nil, fmt.Errorf("node %s: %w", id, ErrNodeNotFound)
	}

	return g.nodes[index].Clone(), nil
}

// Nodes returns a copy of the node collection in insertion order.
func (g *Graph) Nodes() []*models.Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return cloneNodes(g.nodes)
}

// Edges returns a copy of the edge collection in insertion order.
func (g *Graph) Edges() []*models.Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return cloneEdges(g.edges)
}

// ExecutionOrder returns a topological order over the current graph.
func (g *Graph) ExecutionOrder() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return ExecutionOrder(g.nodes, g.edges)
}

// Validate runs the full-graph acyclicity check on the current state.
func (g *Graph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return ValidateDAG(g.nodes, g.edges)
}

// SelectNode marks a node as selected for group execution.
func (g *Graph) SelectNode(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.nodeIndex(id) < 0 {
		return fmt.Errorf("select node %s: %w", id, ErrNodeNotFound)
	}

	g.selected[id] = true

	return nil
}

// ClearSelection deselects all nodes.
func (g *Graph) ClearSelection() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.selected = make(map[string]bool)
}

// SelectedNodes returns the selected node ids in insertion order.
func (g *Graph) SelectedNodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.selected))

	for _, node := range g.nodes {
		if g.selected[node.ID] {
			ids = append(ids, node.ID)
		}
	}

	return ids
}

// Undo restores the previous snapshot wholesale. No-op at the oldest entry.
func (g *Graph) Undo() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.history.undo()
	if !ok {
		return false
	}

	g.nodes, g.edges = s.restore()

	return true
}

// Redo restores the next snapshot wholesale. No-op at the newest entry.
func (g *Graph) Redo() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.history.redo()
	if !ok {
		return false
	}

	g.nodes, g.edges = s.restore()

	return true
}

// CanUndo reports whether an undo step is available.
func (g *Graph) CanUndo() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.history.canUndo()
}

// CanRedo reports whether a redo step is available.
func (g *Graph) CanRedo() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.history.canRedo()
}

// HistoryLen returns the number of stored snapshots.
func (g *Graph) HistoryLen() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.history.len()
}

// Load replaces the live graph wholesale with the given collections after
// validating referential integrity and acyclicity. On failure the live graph
// is left untouched. Commits a history snapshot on success.
func (g *Graph) Load(nodes []*models.Node, edges []*models.Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	known := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		known[node.ID] = true
	}

	for _, edge := range edges {
		if !known[edge.Source] || !known[edge.Target] {
			return fmt.Errorf(
				"%w: edge %s references missing node", ErrInvalidDocument, edge.ID,
			)
		}
	}

	if err := ValidateDAG(nodes, edges); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	g.nodes = cloneNodes(nodes)
	g.edges = cloneEdges(edges)
	g.selected = make(map[string]bool)
	g.commit()

	return nil
}

// commit snapshots the current state. Callers must hold the write lock.
func (g *Graph) commit() {
	g.history.commit(takeSnapshot(g.nodes, g.edges))
}

// nodeIndex returns the index of the node with the given id, or -1. Callers
// must hold at least the read lock.
func (g *Graph) nodeIndex(id string) int {
	for i, node := range g.nodes {
		if node.ID == id {
			return i
		}
	}

	return -1
}
