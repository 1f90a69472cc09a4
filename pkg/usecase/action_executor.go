package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/action"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
	"github.com/m-mizutani/itsgate/pkg/utils/errutil"
)

// ActionExecutor runs matched action requests against their handlers
type ActionExecutor struct {
	registry *action.Registry
	tracker  interfaces.Tracker
	metrics  interfaces.Metrics
}

// ActionExecutorOption configures an ActionExecutor
type ActionExecutorOption func(*ActionExecutor)

// WithExecutorMetrics sets the counters the executor reports to
func WithExecutorMetrics(m interfaces.Metrics) ActionExecutorOption {
	return func(x *ActionExecutor) {
		x.metrics = m
	}
}

// NewActionExecutor creates an executor. Actions without a handler are passed to
// tracker as free-form instructions on the issue, or on the tracker project for
// project rules.
func NewActionExecutor(registry *action.Registry, tracker interfaces.Tracker, opts ...ActionExecutorOption) *ActionExecutor {
	x := &ActionExecutor{
		registry: registry,
		tracker:  tracker,
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// ExecuteOnIssue runs requests for the issue named by the "issue" property. Every
// request is attempted; the failures are returned joined.
func (x *ActionExecutor) ExecuteOnIssue(ctx context.Context, requests []model.ActionRequest, props model.Properties) error {
	issue, _ := props.Get(model.PropIssue)
	return x.executeAll(ctx, action.ScopeIssue, issue, requests, props)
}

// ExecuteOnProject runs requests for the tracker project of the event
func (x *ActionExecutor) ExecuteOnProject(ctx context.Context, requests []model.ActionRequest, props model.Properties) error {
	itsProject, _ := props.Get(model.PropITSProject)
	return x.executeAll(ctx, action.ScopeProject, itsProject, requests, props)
}

func (x *ActionExecutor) executeAll(ctx context.Context, scope action.Scope, target string, requests []model.ActionRequest, props model.Properties) error {
	var errs []error
	for _, req := range requests {
		if err := x.execute(ctx, scope, target, req, props); err != nil {
			x.metrics.ActionFailed(req.Name(), scope.String())
			errutil.Handle(ctx, "Failed to execute action", err)
			errs = append(errs, err)
			continue
		}
		x.metrics.ActionExecuted(req.Name(), scope.String())
	}
	return errors.Join(errs...)
}

func (x *ActionExecutor) execute(ctx context.Context, scope action.Scope, target string, req model.ActionRequest, props model.Properties) (err error) {
	logger := ctxlog.From(ctx).With("action", req.Name(), "scope", scope.String(), "target", target)

	defer func() {
		if r := recover(); r != nil {
			err = goerr.New("panic in action handler",
				goerr.V("action", req.Name()),
				goerr.V("recover", fmt.Sprint(r)),
				goerr.V("stack", string(debug.Stack())),
			)
		}
	}()

	handler, ok := x.registry.Get(req.Name())
	if !ok {
		if x.tracker == nil {
			return goerr.New("no handler and no tracker for action", goerr.V("action", req.Name()))
		}
		logger.Debug("Passing action to tracker", "request", req.Unparsed())
		if err := x.tracker.PerformAction(ctx, target, req.Unparsed()); err != nil {
			return goerr.Wrap(err, "tracker failed to perform action",
				goerr.V("scope", scope.String()),
				goerr.V("target", target),
				goerr.V("request", req.Unparsed()),
			)
		}
		return nil
	}

	if handler.Scope() != scope {
		logger.Debug("Action scope does not match, skipped", "handler_scope", handler.Scope().String())
		return nil
	}

	if err := handler.Execute(ctx, target, req, props); err != nil {
		return goerr.Wrap(err, "action failed",
			goerr.V("action", req.Name()),
			goerr.V("target", target),
		)
	}
	logger.Debug("Action executed")
	return nil
}

type nopMetrics struct{}

func (nopMetrics) EventReceived(string)          {}
func (nopMetrics) EventIgnored(string, string)   {}
func (nopMetrics) ActionExecuted(string, string) {}
func (nopMetrics) ActionFailed(string, string)   {}
