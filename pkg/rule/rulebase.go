package rule

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

// Source yields one named rule collection, e.g. a rule file
type Source interface {
	Name() string
	Load(ctx context.Context) ([]*Rule, error)
}

// ProjectCache holds per-project rule overrides
type ProjectCache interface {
	// RulesFor returns the rules configured for a project or its nearest parent.
	// Empty means no override.
	RulesFor(ctx context.Context, project string) []*Rule

	// Invalidate drops the cached rules of a project
	Invalidate(project string)
}

// Base is the set of rules the service matches against. The global collection is
// replaced as a whole on Reload; readers never take a lock.
type Base struct {
	sources  []Source
	projects ProjectCache

	reloadMu sync.Mutex
	current  atomic.Pointer[[]*Rule]
}

// NewBase creates an empty rule base. Call Reload to populate it.
func NewBase(projects ProjectCache, sources ...Source) *Base {
	b := &Base{
		sources:  sources,
		projects: projects,
	}
	empty := []*Rule{}
	b.current.Store(&empty)
	return b
}

// Reload reads every source again and publishes the combined collection. A source that
// fails to load contributes no rules; the others still apply.
func (b *Base) Reload(ctx context.Context) {
	b.reloadMu.Lock()
	defer b.reloadMu.Unlock()

	logger := ctxlog.From(ctx)

	var rules []*Rule
	for _, src := range b.sources {
		loaded, err := src.Load(ctx)
		if err != nil {
			logger.Error("Failed to load rules, using none from this source",
				"source", src.Name(),
				"error", err,
			)
			continue
		}
		logger.Debug("Loaded rules", "source", src.Name(), "count", len(loaded))
		rules = append(rules, loaded...)
	}

	if rules == nil {
		rules = []*Rule{}
	}
	b.current.Store(&rules)

	logger.Info("Rule base reloaded", "rules", len(rules))
}

// Rules returns the current global snapshot
func (b *Base) Rules() []*Rule {
	return *b.current.Load()
}

// Invalidate drops the per-project override of a project
func (b *Base) Invalidate(project string) {
	if b.projects != nil {
		b.projects.Invalidate(project)
	}
}

// ActionRequestsFor collects the actions of every matching rule in declaration order.
// Project-specific rules replace the global ones entirely when present.
func (b *Base) ActionRequestsFor(ctx context.Context, props model.Properties) []model.ActionRequest {
	rules := b.Rules()
	if b.projects != nil {
		if project, ok := props.Get(model.PropProject); ok && project != "" {
			if override := b.projects.RulesFor(ctx, project); len(override) > 0 {
				rules = override
			}
		}
	}

	var requests []model.ActionRequest
	for _, r := range rules {
		requests = append(requests, r.ActionRequestsFor(props)...)
	}
	return requests
}
