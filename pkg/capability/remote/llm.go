package remote

import (
	"context"

	"github.com/weftlabs/weft/pkg/capability"
	"github.com/weftlabs/weft/pkg/models"
)

// LLM invokes the language model operation of the job service. The payload
// carries the model id, an optional system prompt, the user message (with
// any upstream text already substituted), and the list of input images.
type LLM struct {
	client *Client
}

func NewLLM(client *Client) *LLM {
	return &LLM{client: client}
}

func (c *LLM) Kind() models.NodeKind {
	return models.NodeKindLLM
}

func (c *LLM) Execute(ctx context.Context, payload map[string]any) (*capability.Result, error) {
	return c.client.post(ctx, "/execute/llm", payload)
}
