// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/weftlabs/weft/pkg/capability"
	"github.com/weftlabs/weft/pkg/capability/local"
	"github.com/weftlabs/weft/pkg/capability/remote"
	"github.com/weftlabs/weft/pkg/models"
)

// NewCapabilityRegistry wires up the full capability set: local pass-through
// execution for the authoring kinds and HTTP-backed execution for the kinds
// that run on the job service.
func NewCapabilityRegistry(jobServiceURL string, logger *slog.Logger) *capability.Registry {
	registry := capability.NewRegistry(logger)

	registry.Register(local.New(models.NodeKindText))
	registry.Register(local.New(models.NodeKindUploadImage))
	registry.Register(local.New(models.NodeKindUploadVideo))

	client := remote.NewClient(jobServiceURL, logger)
	registry.Register(remote.NewLLM(client))
	registry.Register(remote.NewCropImage(client))
	registry.Register(remote.NewExtractFrame(client))

	return registry
}
