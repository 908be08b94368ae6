// Package registry maps node_type identifiers to the factories that build
// concrete Node instances, grounded on the original implementation's
// replace-on-duplicate semantics rather than the teacher's error-on-
// duplicate behavior (see DESIGN.md for the reasoning).
package registry

import (
	"sync"

	"github.com/flowforge/flowengine/pkg/flowerr"
	"github.com/flowforge/flowengine/pkg/logging"
	"github.com/flowforge/flowengine/pkg/node"
	"github.com/flowforge/flowengine/pkg/value"
)

// PortDefinition documents one declared input or output port.
type PortDefinition struct {
	Name        string
	Description string
	Required    bool
}

// Metadata is static, factory-supplied documentation for a node type.
type Metadata struct {
	Description string
	Category    string
	Inputs      []PortDefinition
	Outputs     []PortDefinition
}

// DefaultMetadata matches the original registry's defaults for a factory
// that doesn't override Metadata().
func DefaultMetadata() Metadata {
	return Metadata{Category: "general"}
}

// Factory builds Node instances of one node_type and advertises static
// metadata about it.
type Factory interface {
	NodeType() string
	Create(cfg map[string]value.Value) (node.Node, error)
	Metadata() Metadata
}

// Registry is a thread-safe node_type -> Factory map. It must only be
// mutated before a runtime starts executing workflows; the read path
// (CreateNode, ListNodeTypes, GetMetadata) takes no lock contention
// concerns into account beyond correctness, since execution never writes
// to it.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	log       *logging.Logger
}

// New creates an empty Registry.
func New(log *logging.Logger) *Registry {
	if log == nil {
		log = logging.New(logging.Config{Level: "error"})
	}
	return &Registry{factories: make(map[string]Factory), log: log}
}

// Register inserts or replaces the factory for its node_type. Safe to
// call concurrently, but all registration must complete before a runtime
// begins executing workflows.
func (r *Registry) Register(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[f.NodeType()]; exists {
		r.log.WithField("node_type", f.NodeType()).Info("replacing existing node factory registration")
	}
	r.factories[f.NodeType()] = f
}

// CreateNode resolves node_type and builds an instance from cfg.
func (r *Registry) CreateNode(nodeType string, cfg map[string]value.Value) (node.Node, error) {
	r.mu.RLock()
	f, ok := r.factories[nodeType]
	r.mu.RUnlock()
	if !ok {
		return nil, flowerr.UnknownNodeType(nodeType)
	}
	n, err := f.Create(cfg)
	if err != nil {
		return nil, flowerr.Invalid("factory for " + nodeType + " failed: " + err.Error())
	}
	return n, nil
}

// ListNodeTypes returns every registered node_type, in unspecified order.
func (r *Registry) ListNodeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	return types
}

// GetMetadata returns the metadata for a registered node_type, or
// (Metadata{}, false) if unknown.
func (r *Registry) GetMetadata(nodeType string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[nodeType]
	if !ok {
		return Metadata{}, false
	}
	return f.Metadata(), true
}
