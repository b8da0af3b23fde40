package syncengine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spacedriveapp/sdcore/internal/wire"
)

// ModelDef registers one syncable entity: its table name, the sync models
// it depends on (e.g. Entry depends on PathPrefix), and the function that
// applies one SyncLogEntry to local state. The engine never contains a
// central switch over model types — every model-specific behavior lives in
// its own ModelDef (original_source/core/src/infra/sync/registry.rs).
type ModelDef struct {
	Name      string
	DependsOn []string

	// Apply maps a SyncLogEntry's record UUID through local foreign keys
	// and writes it into the local table, inside tx. Must be idempotent:
	// applying the same (originator, hlc, uuid) twice yields the same state
	// (spec §4.6 failure semantics).
	Apply func(ctx context.Context, tx *sql.Tx, entry wire.SyncLogEntry) error
}

// Registry holds every registered syncable model and the dependency order
// computed from them.
type Registry struct {
	models map[string]*ModelDef
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*ModelDef)}
}

// Register adds def and recomputes the topological sort. A dependency
// cycle is a registration-time panic, never a runtime error — spec.md §9:
// "Sync dependency cycles are forbidden and detected at registration time."
func (r *Registry) Register(def *ModelDef) {
	if _, exists := r.models[def.Name]; exists {
		panic("syncengine: duplicate model registration for " + def.Name)
	}
	r.models[def.Name] = def

	order, err := computeSyncOrder(r.models)
	if err != nil {
		delete(r.models, def.Name)
		panic("syncengine: " + err.Error())
	}
	r.order = order
}

// Order returns the dependency-ordered list of registered model names,
// spec §4.6's compute_sync_order(models).
func (r *Registry) Order() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// rank returns name's position in dependency order, used to sort a batch
// of entries "model-by-model in that order, then by HLC within each
// model" (spec §4.6).
func (r *Registry) rank(name string) int {
	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return len(r.order)
}

func (r *Registry) model(name string) (*ModelDef, bool) {
	def, ok := r.models[name]
	return def, ok
}

// computeSyncOrder performs Kahn's algorithm over models' DependsOn edges,
// returning an error (never panicking itself — Register panics) if a cycle
// exists or a model depends on an unregistered name.
func computeSyncOrder(models map[string]*ModelDef) ([]string, error) {
	indegree := make(map[string]int, len(models))
	dependents := make(map[string][]string, len(models))

	for name := range models {
		indegree[name] = 0
	}
	for name, def := range models {
		for _, dep := range def.DependsOn {
			if _, ok := models[dep]; !ok {
				return nil, fmt.Errorf("model %q depends on unregistered model %q", name, dep)
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var queue []string
	for name, deg := range indegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	var order []string
	for len(queue) > 0 {
		// Stable order: always take the lexicographically smallest ready
		// node so Register's recomputation is deterministic across runs.
		minIdx := 0
		for i := 1; i < len(queue); i++ {
			if queue[i] < queue[minIdx] {
				minIdx = i
			}
		}
		name := queue[minIdx]
		queue = append(queue[:minIdx], queue[minIdx+1:]...)
		order = append(order, name)

		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(models) {
		return nil, fmt.Errorf("dependency cycle detected among sync models")
	}
	return order, nil
}
