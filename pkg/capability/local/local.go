// Package local provides the capability for node kinds that are pure local
// state (text and upload nodes): no remote execution, immediate success.
package local

import (
	"context"

	"github.com/weftlabs/weft/pkg/capability"
	"github.com/weftlabs/weft/pkg/models"
)

type Capability struct {
	kind models.NodeKind
}

func New(kind models.NodeKind) *Capability {
	return &Capability{kind: kind}
}

func (c *Capability) Kind() models.NodeKind {
	return c.kind
}

// Execute succeeds immediately. The node's produced value already lives in
// its data fields, so the result carries whatever value the payload resolved.
func (c *Capability) Execute(_ context.Context, payload map[string]any) (*capability.Result, error) {
	value, _ := payload["value"].(string)

	return &capability.Result{Success: true, Result: value}, nil
}
