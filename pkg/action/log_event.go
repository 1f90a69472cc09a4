package action

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

// LogEvent writes the properties to the log. The optional parameter selects the level;
// unknown levels fall back to info.
type LogEvent struct{}

func NewLogEvent() *LogEvent { return &LogEvent{} }

func (a *LogEvent) Scope() Scope { return ScopeIssue }

func (a *LogEvent) Execute(ctx context.Context, issue string, req model.ActionRequest, props model.Properties) error {
	level := slog.LevelInfo
	if name := req.Parameter(1); name != "" {
		if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
			level = slog.LevelInfo
		}
	}

	attrs := make([]any, 0, len(props)*2+2)
	attrs = append(attrs, "issue", issue)
	for _, key := range props.Keys() {
		attrs = append(attrs, key, props[key])
	}

	ctxlog.From(ctx).Log(ctx, level, "Event properties", attrs...)
	return nil
}
