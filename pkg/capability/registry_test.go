package capability_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftlabs/weft/pkg/capability"
	"github.com/weftlabs/weft/pkg/capability/local"
	"github.com/weftlabs/weft/pkg/models"
)

type fakeCapability struct {
	kind models.NodeKind
}

func (f *fakeCapability) Kind() models.NodeKind {
	return f.kind
}

func (f *fakeCapability) Execute(_ context.Context, _ map[string]any) (*capability.Result, error) {
	return &capability.Result{Success: true}, nil
}

func newRegistry() *capability.Registry {
	return capability.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistry_ForKind(t *testing.T) {
	registry := newRegistry()
	text := local.New(models.NodeKindText)
	registry.Register(text)

	got, err := registry.ForKind(models.NodeKindText)
	require.NoError(t, err)
	assert.Same(t, capability.Capability(text), got)

	_, err = registry.ForKind(models.NodeKindLLM)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm")
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	registry := newRegistry()
	registry.Register(&fakeCapability{kind: models.NodeKindLLM})

	replacement := &fakeCapability{kind: models.NodeKindLLM}
	registry.Register(replacement)

	got, err := registry.ForKind(models.NodeKindLLM)
	require.NoError(t, err)
	assert.Same(t, capability.Capability(replacement), got)
	assert.Len(t, registry.Kinds(), 1)
}

func TestRegistry_HealthCheck(t *testing.T) {
	registry := newRegistry()
	registry.Register(&fakeCapability{kind: models.NodeKindLLM})
	registry.Register(&fakeCapability{kind: models.NodeKindCropImage})

	message, healthy := registry.HealthCheck()
	assert.False(t, healthy)
	assert.Contains(t, message, string(models.NodeKindExtractFrame))

	registry.Register(&fakeCapability{kind: models.NodeKindExtractFrame})

	message, healthy = registry.HealthCheck()
	assert.True(t, healthy)
	assert.Equal(t, "all capabilities registered", message)
}

func TestRegistry_HealthCheckIgnoresLocalKinds(t *testing.T) {
	registry := newRegistry()
	registry.Register(&fakeCapability{kind: models.NodeKindLLM})
	registry.Register(&fakeCapability{kind: models.NodeKindCropImage})
	registry.Register(&fakeCapability{kind: models.NodeKindExtractFrame})

	// No local capability registered at all; health only tracks remote kinds.
	_, healthy := registry.HealthCheck()
	assert.True(t, healthy)
}
