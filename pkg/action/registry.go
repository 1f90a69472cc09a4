// Package action provides the handlers that rule actions are dispatched to.
package action

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

// Scope tells which kind of property map a handler works on
type Scope int

const (
	ScopeIssue Scope = iota
	ScopeProject
)

func (s Scope) String() string {
	switch s {
	case ScopeIssue:
		return "issue"
	case ScopeProject:
		return "project"
	default:
		return "unknown"
	}
}

// Handler executes one action request. target is the issue id for issue-scoped
// handlers and the tracker project for project-scoped ones.
type Handler interface {
	Scope() Scope
	Execute(ctx context.Context, target string, req model.ActionRequest, props model.Properties) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc struct {
	HandlerScope Scope
	Func         func(ctx context.Context, target string, req model.ActionRequest, props model.Properties) error
}

func (h *HandlerFunc) Scope() Scope { return h.HandlerScope }

func (h *HandlerFunc) Execute(ctx context.Context, target string, req model.ActionRequest, props model.Properties) error {
	return h.Func(ctx, target, req, props)
}

// Registry maps action names to handlers
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler, replacing any handler of the same name
func (r *Registry) Register(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Get retrieves a handler by action name
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered action names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
