package remote

import (
	"context"

	"github.com/weftlabs/weft/pkg/capability"
	"github.com/weftlabs/weft/pkg/models"
)

// CropImage invokes the image crop operation: an image reference plus
// x/y/width/height as percentages of the source dimensions.
type CropImage struct {
	client *Client
}

func NewCropImage(client *Client) *CropImage {
	return &CropImage{client: client}
}

func (c *CropImage) Kind() models.NodeKind {
	return models.NodeKindCropImage
}

func (c *CropImage) Execute(ctx context.Context, payload map[string]any) (*capability.Result, error) {
	return c.client.post(ctx, "/execute/crop-image", payload)
}
