// Package errutil reports errors that cannot be returned to a caller.
package errutil

import (
	"context"
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err with its goerr values and sends it to Sentry when a client is set up
func Handle(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}

	attrs := []any{"error", err}
	var gerr *goerr.Error
	if errors.As(err, &gerr) {
		for k, v := range gerr.Values() {
			attrs = append(attrs, k, v)
		}
	}
	ctxlog.From(ctx).Error(msg, attrs...)

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.Clone().CaptureException(err)
	}
}
