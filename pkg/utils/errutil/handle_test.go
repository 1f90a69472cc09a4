package errutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/utils/errutil"
)

func TestHandle(t *testing.T) {
	ctx := context.Background()

	// none of these may panic without a Sentry client
	errutil.Handle(ctx, "nil error", nil)
	errutil.Handle(ctx, "plain error", errors.New("boom"))
	errutil.Handle(ctx, "goerr error", goerr.New("boom", goerr.V("issue", "42")))
}
