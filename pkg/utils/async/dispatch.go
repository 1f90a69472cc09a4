package async

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/utils/errutil"
)

// Dispatcher runs handlers in background goroutines and tracks them so that shutdown
// can wait for in-flight work. The zero value is ready to use and unbounded.
type Dispatcher struct {
	wg  sync.WaitGroup
	sem chan struct{}
}

// NewDispatcher creates a Dispatcher running at most limit handlers at once. A
// non-positive limit means no bound.
func NewDispatcher(limit int) *Dispatcher {
	d := &Dispatcher{}
	if limit > 0 {
		d.sem = make(chan struct{}, limit)
	}
	return d
}

// Dispatch executes handler asynchronously with panic recovery. The handler context
// keeps the logger of ctx but is not cancelled with it.
func (d *Dispatcher) Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if d.sem != nil {
			d.sem <- struct{}{}
			defer func() { <-d.sem }()
		}

		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				logger := ctxlog.From(newCtx)
				logger.Error("panic in async handler",
					"recover", r,
					"stack", string(stack))
			}
		}()

		if err := handler(newCtx); err != nil {
			errutil.Handle(newCtx, "error in async handler", err)
		}
	}()
}

// Wait blocks until every dispatched handler returned or ctx is done
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "in-flight handlers did not finish")
	}
}

// newBackgroundContext creates a new background context preserving the ctxlog logger
func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))
	return newCtx
}
