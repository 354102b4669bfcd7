package actions

import (
	"context"
	"fmt"
	"sync"

	"github.com/Bukialo/crm-api/internal/models"
)

// Executor runs one action type against the CRM. Parameters arrive already
// validated and normalized; triggerData is the payload of the event that
// started the execution.
type Executor interface {
	Type() models.ActionType
	Execute(ctx context.Context, params map[string]interface{}, triggerData map[string]interface{}) error
}

// Registry maps action types to their executors.
// Safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	executors map[models.ActionType]Executor
}

func NewRegistry() *Registry {
	return &Registry{executors: make(map[models.ActionType]Executor)}
}

// Register adds an executor. Panics on duplicate type to surface
// misconfiguration early.
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.executors[e.Type()]; exists {
		panic(fmt.Sprintf("action registry: duplicate type %q", e.Type()))
	}
	r.executors[e.Type()] = e
}

// Get returns the executor for the given type.
func (r *Registry) Get(actionType models.ActionType) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[actionType]
	if !ok {
		return nil, fmt.Errorf("no executor registered for action type %q", actionType)
	}
	return e, nil
}

// Types returns all registered action types.
func (r *Registry) Types() []models.ActionType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ActionType, 0, len(r.executors))
	for k := range r.executors {
		out = append(out, k)
	}
	return out
}
