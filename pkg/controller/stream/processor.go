// Package stream feeds newline-delimited stream-events JSON through the event use case.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
	"github.com/m-mizutani/itsgate/pkg/utils/errutil"
)

const maxLineSize = 5 << 20

// Result counts what happened to the lines of one run
type Result struct {
	Processed int
	Ignored   int
	Failed    int
}

// Processor replays recorded events one at a time. A bad line or a failing event
// never stops the run.
type Processor struct {
	eventUC interfaces.EventUseCase
}

func NewProcessor(eventUC interfaces.EventUseCase) *Processor {
	return &Processor{eventUC: eventUC}
}

// Run reads r to the end. Only read errors and cancellation are returned.
func (p *Processor) Run(ctx context.Context, r io.Reader) (*Result, error) {
	logger := ctxlog.From(ctx)
	result := &Result{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return result, goerr.Wrap(err, "replay interrupted", goerr.V("line", line))
		}

		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		lineCtx := ctxlog.With(ctx, logger.With("line", line))
		ev, err := model.DecodeEvent(data)
		if errors.Is(err, model.ErrUnsupportedEvent) {
			ctxlog.From(lineCtx).Debug("Skipping unsupported event", "error", err)
			result.Ignored++
			continue
		}
		if err != nil {
			errutil.Handle(lineCtx, "Failed to decode event", err)
			result.Failed++
			continue
		}

		if err := p.eventUC.OnEvent(lineCtx, ev); err != nil {
			errutil.Handle(lineCtx, "Failed to process event", err)
			result.Failed++
			continue
		}
		result.Processed++
	}
	if err := scanner.Err(); err != nil {
		return result, goerr.Wrap(err, "failed to read events", goerr.V("line", line))
	}

	logger.Info("Replay finished",
		"processed", result.Processed,
		"ignored", result.Ignored,
		"failed", result.Failed,
	)
	return result, nil
}
