// Package tracker holds tracker facades that do not talk to a real tracker.
package tracker

import (
	"context"
	"sync"

	"github.com/m-mizutani/ctxlog"
)

// Operation is one tracker call DryRun received
type Operation struct {
	Method string
	Target string
	Args   []string
}

// DryRun logs every tracker operation instead of performing it
type DryRun struct {
	mu  sync.Mutex
	ops []Operation
}

func NewDryRun() *DryRun {
	return &DryRun{}
}

func (d *DryRun) record(ctx context.Context, method, target string, args ...string) {
	d.mu.Lock()
	d.ops = append(d.ops, Operation{Method: method, Target: target, Args: args})
	d.mu.Unlock()

	ctxlog.From(ctx).Info("Dry-run tracker operation",
		"method", method,
		"target", target,
		"args", args,
	)
}

// Operations returns the operations received so far
func (d *DryRun) Operations() []Operation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Operation(nil), d.ops...)
}

func (d *DryRun) AddComment(ctx context.Context, issue, comment string) error {
	d.record(ctx, "AddComment", issue, comment)
	return nil
}

func (d *DryRun) PerformAction(ctx context.Context, issue, action string) error {
	d.record(ctx, "PerformAction", issue, action)
	return nil
}

func (d *DryRun) CreateLinkForWebUI(url, caption string) string {
	if caption == "" || caption == url {
		return url
	}
	return caption + " <" + url + ">"
}

func (d *DryRun) AddValueToField(ctx context.Context, issue, value, fieldID string) error {
	d.record(ctx, "AddValueToField", issue, value, fieldID)
	return nil
}

func (d *DryRun) CreateVersion(ctx context.Context, itsProject, version string) error {
	d.record(ctx, "CreateVersion", itsProject, version)
	return nil
}

func (d *DryRun) MarkVersionAsReleased(ctx context.Context, itsProject, version string) error {
	d.record(ctx, "MarkVersionAsReleased", itsProject, version)
	return nil
}
