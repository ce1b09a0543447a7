package remote

import (
	"context"

	"github.com/weftlabs/weft/pkg/capability"
	"github.com/weftlabs/weft/pkg/models"
)

// ExtractFrame invokes the video frame extraction operation: a video
// reference plus a timestamp in seconds, or as a percentage of the duration
// when the isPercentage flag is set.
type ExtractFrame struct {
	client *Client
}

func NewExtractFrame(client *Client) *ExtractFrame {
	return &ExtractFrame{client: client}
}

func (c *ExtractFrame) Kind() models.NodeKind {
	return models.NodeKindExtractFrame
}

func (c *ExtractFrame) Execute(ctx context.Context, payload map[string]any) (*capability.Result, error) {
	return c.client.post(ctx, "/execute/extract-frame", payload)
}
