package capability

import (
	"fmt"
	"log/slog"

	"github.com/weftlabs/weft/pkg/models"
)

// Registry maps node kinds to their execution capabilities. The capability
// set is closed, so registration happens once at startup.
type Registry struct {
	logger       *slog.Logger
	capabilities map[models.NodeKind]Capability
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:       logger,
		capabilities: make(map[models.NodeKind]Capability),
	}
}

// Register binds a capability to its node kind, replacing any previous one.
func (r *Registry) Register(c Capability) {
	r.capabilities[c.Kind()] = c
	r.logger.Debug("Registered capability", "kind", c.Kind())
}

// ForKind returns the capability registered for the node kind.
func (r *Registry) ForKind(kind models.NodeKind) (Capability, error) {
	c, ok := r.capabilities[kind]
	if !ok {
		return nil, fmt.Errorf("no capability registered for node kind %q", kind)
	}

	return c, nil
}

// Kinds returns the registered node kinds.
func (r *Registry) Kinds() []models.NodeKind {
	kinds := make([]models.NodeKind, 0, len(r.capabilities))
	for kind := range r.capabilities {
		kinds = append(kinds, kind)
	}

	return kinds
}

// HealthCheck reports whether every remote-executing kind has a capability.
func (r *Registry) HealthCheck() (string, bool) {
	for _, kind := range models.Kinds() {
		if !kind.RequiresRemoteExecution() {
			continue
		}

		if _, ok := r.capabilities[kind]; !ok {
			return "missing capability for node kind " + string(kind), false
		}
	}

	return "all capabilities registered", true
}
