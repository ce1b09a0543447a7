package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Expected validation failures. Callers branch on these to surface messages;
// they never indicate a bug.
var (
	// ErrCycleDetected indicates a connect or import would violate acyclicity.
	ErrCycleDetected = errors.New("cycle detected")

	// ErrNodeNotFound indicates an operation referenced a node id that does
	// not exist in the graph.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound indicates an operation referenced an edge id that does
	// not exist in the graph.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrInvalidDocument indicates an import document failed validation. The
	// live graph is left untouched.
	ErrInvalidDocument = errors.New("invalid workflow document")
)

// ErrGraphCorrupted is an internal-consistency failure: the acyclicity or
// referential-integrity invariant was violated somewhere upstream. It must
// be kept distinguishable from ordinary validation errors.
var ErrGraphCorrupted = errors.New("graph invariant violated")

// CycleError reports a rejected connection together with the path that
// closes the cycle.
type CycleError struct {
	Source string
	Target string
	Path   []string
}

func (e *CycleError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf(
			"cannot connect %s -> %s: would create a circular dependency (%s)",
			e.Source, e.Target, strings.Join(e.Path, " -> "),
		)
	}

	return fmt.Sprintf("cannot connect %s -> %s: would create a circular dependency", e.Source, e.Target)
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// IsCycle checks if an error indicates a rejected cyclic connection.
func IsCycle(err error) bool {
	return errors.Is(err, ErrCycleDetected)
}

// IsNodeNotFound checks if an error indicates a missing node.
func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}
