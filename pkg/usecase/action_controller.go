package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

// metaConfigRef holds per-project configuration, including project rule files
const metaConfigRef = "refs/meta/config"

// RuleMatcher selects the action requests that apply to a property map
type RuleMatcher interface {
	ActionRequestsFor(ctx context.Context, props model.Properties) []model.ActionRequest
	Invalidate(project string)
}

// ActionController runs one event through property extraction, rule matching and action
// execution
type ActionController struct {
	properties *PropertyExtractor
	rules      RuleMatcher
	executor   *ActionExecutor
	enablement interfaces.Enablement
	metrics    interfaces.Metrics
}

// ActionControllerOption configures an ActionController
type ActionControllerOption func(*ActionController)

// WithEnablement filters events before any work is done
func WithEnablement(e interfaces.Enablement) ActionControllerOption {
	return func(c *ActionController) {
		c.enablement = e
	}
}

// WithControllerMetrics sets the counters the controller reports to
func WithControllerMetrics(m interfaces.Metrics) ActionControllerOption {
	return func(c *ActionController) {
		c.metrics = m
	}
}

// NewActionController creates an ActionController
func NewActionController(properties *PropertyExtractor, rules RuleMatcher, executor *ActionExecutor, opts ...ActionControllerOption) *ActionController {
	c := &ActionController{
		properties: properties,
		rules:      rules,
		executor:   executor,
		metrics:    nopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnEvent processes one event synchronously. Project actions run first, then the
// actions of each referenced issue. Action failures do not stop other actions and are
// returned joined.
func (c *ActionController) OnEvent(ctx context.Context, event model.Event) error {
	if event == nil {
		return goerr.New("event is nil")
	}

	kind := event.Kind()
	project := event.ProjectName()
	logger := ctxlog.From(ctx).With("event_type", string(kind), "project", project)
	ctx = ctxlog.With(ctx, logger)

	c.metrics.EventReceived(string(kind))

	if kind == model.EventKindRefUpdated && event.RefName() == metaConfigRef && project != "" {
		logger.Info("Project configuration updated, dropping cached rules")
		c.rules.Invalidate(project)
	}

	if !kind.RefScoped() {
		logger.Debug("Event is not ref-scoped, ignored")
		c.metrics.EventIgnored(string(kind), "not_ref_scoped")
		return nil
	}
	if c.enablement != nil && !c.enablement.IsEnabled(event) {
		logger.Debug("Event is not enabled, ignored", "ref", event.RefName())
		c.metrics.EventIgnored(string(kind), "disabled")
		return nil
	}

	props, err := c.properties.ExtractFrom(ctx, event)
	if err != nil {
		return goerr.Wrap(err, "failed to extract properties", goerr.V("event_type", kind))
	}

	var errs []error
	if requests := c.rules.ActionRequestsFor(ctx, props.Project); len(requests) > 0 {
		logger.Debug("Project rules matched", "requests", len(requests))
		if err := c.executor.ExecuteOnProject(ctx, requests, props.Project); err != nil {
			errs = append(errs, err)
		}
	}

	for _, issueProps := range props.Issues {
		if err := c.DispatchIssue(ctx, issueProps); err != nil {
			errs = append(errs, err)
		}
	}

	logger.Info("Event processed", "issues", len(props.Issues), "failures", len(errs))
	return errors.Join(errs...)
}

// DispatchIssue matches and executes the rules for one issue property map
func (c *ActionController) DispatchIssue(ctx context.Context, props model.Properties) error {
	requests := c.rules.ActionRequestsFor(ctx, props)
	if len(requests) == 0 {
		return nil
	}

	issue, _ := props.Get(model.PropIssue)
	ctxlog.From(ctx).Debug("Issue rules matched", "issue", issue, "requests", len(requests))
	return c.executor.ExecuteOnIssue(ctx, requests, props)
}
