package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/itsgate/pkg/action"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
	"github.com/m-mizutani/itsgate/pkg/usecase"
)

type mockTracker struct {
	mu sync.Mutex

	PerformActionFunc func(ctx context.Context, issue, act string) error
	performed         []string
	comments          []string
}

func (m *mockTracker) AddComment(ctx context.Context, issue, comment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, issue+": "+comment)
	return nil
}

func (m *mockTracker) PerformAction(ctx context.Context, issue, act string) error {
	m.mu.Lock()
	m.performed = append(m.performed, issue+": "+act)
	m.mu.Unlock()
	if m.PerformActionFunc != nil {
		return m.PerformActionFunc(ctx, issue, act)
	}
	return nil
}

func (m *mockTracker) CreateLinkForWebUI(url, caption string) string { return url }

func (m *mockTracker) AddValueToField(ctx context.Context, issue, value, fieldID string) error {
	return nil
}

func (m *mockTracker) CreateVersion(ctx context.Context, itsProject, version string) error {
	return nil
}

func (m *mockTracker) MarkVersionAsReleased(ctx context.Context, itsProject, version string) error {
	return nil
}

type mockMetrics struct {
	mu       sync.Mutex
	executed []string
	failed   []string
	ignored  []string
	received []string
}

func (m *mockMetrics) EventReceived(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, kind)
}

func (m *mockMetrics) EventIgnored(kind, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ignored = append(m.ignored, kind+"/"+reason)
}

func (m *mockMetrics) ActionExecuted(name, scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executed = append(m.executed, name)
}

func (m *mockMetrics) ActionFailed(name, scope string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, name)
}

func handlerFunc(scope action.Scope, f func(ctx context.Context, target string, req model.ActionRequest, props model.Properties) error) action.Handler {
	return &action.HandlerFunc{HandlerScope: scope, Func: f}
}

func requests(lines ...string) []model.ActionRequest {
	out := make([]model.ActionRequest, 0, len(lines))
	for _, l := range lines {
		out = append(out, model.NewActionRequest(l))
	}
	return out
}

func TestActionExecutor_BatchIsolation(t *testing.T) {
	errFirst := errors.New("first failed")
	var secondCalls int

	registry := action.NewRegistry()
	registry.Register("first", handlerFunc(action.ScopeIssue, func(ctx context.Context, target string, req model.ActionRequest, props model.Properties) error {
		return errFirst
	}))
	registry.Register("second", handlerFunc(action.ScopeIssue, func(ctx context.Context, target string, req model.ActionRequest, props model.Properties) error {
		secondCalls++
		gt.Equal(t, target, "42")
		return nil
	}))
	registry.Register("third", handlerFunc(action.ScopeIssue, func(ctx context.Context, target string, req model.ActionRequest, props model.Properties) error {
		panic("third exploded")
	}))

	m := &mockMetrics{}
	x := usecase.NewActionExecutor(registry, &mockTracker{}, usecase.WithExecutorMetrics(m))

	err := x.ExecuteOnIssue(context.Background(), requests("first", "second", "third"), model.Properties{"issue": "42"})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, errFirst))
	gt.String(t, err.Error()).Contains("panic in action handler")
	gt.Equal(t, secondCalls, 1)
	gt.Equal(t, m.executed, []string{"second"})
	gt.Equal(t, m.failed, []string{"first", "third"})
}

func TestActionExecutor_Fallbacks(t *testing.T) {
	t.Run("unknown issue action goes to tracker", func(t *testing.T) {
		tracker := &mockTracker{}
		x := usecase.NewActionExecutor(action.NewRegistry(), tracker)

		gt.NoError(t, x.ExecuteOnIssue(context.Background(), requests("label  needs-review"), model.Properties{"issue": "7"}))
		gt.Equal(t, tracker.performed, []string{"7: label  needs-review"})
	})

	t.Run("tracker pass-through failure is reported", func(t *testing.T) {
		tracker := &mockTracker{
			PerformActionFunc: func(ctx context.Context, issue, act string) error {
				return errors.New("rejected")
			},
		}
		x := usecase.NewActionExecutor(action.NewRegistry(), tracker)

		gt.Error(t, x.ExecuteOnIssue(context.Background(), requests("close"), model.Properties{"issue": "7"}))
	})

	t.Run("unknown project action goes to tracker project", func(t *testing.T) {
		tracker := &mockTracker{}
		x := usecase.NewActionExecutor(action.NewRegistry(), tracker)

		gt.NoError(t, x.ExecuteOnProject(context.Background(), requests("archive-milestone v1.2"), model.Properties{"its-project": "octo/widgets"}))
		gt.Equal(t, tracker.performed, []string{"octo/widgets: archive-milestone v1.2"})
	})

	t.Run("project pass-through failure is reported", func(t *testing.T) {
		tracker := &mockTracker{
			PerformActionFunc: func(ctx context.Context, issue, act string) error {
				return errors.New("unsupported tracker action")
			},
		}
		x := usecase.NewActionExecutor(action.NewRegistry(), tracker)

		gt.Error(t, x.ExecuteOnProject(context.Background(), requests("close"), model.Properties{"its-project": "P"}))
	})

	t.Run("scope mismatch is a no-op", func(t *testing.T) {
		var called int
		registry := action.NewRegistry()
		registry.Register("project-only", handlerFunc(action.ScopeProject, func(ctx context.Context, target string, req model.ActionRequest, props model.Properties) error {
			called++
			gt.Equal(t, target, "P")
			return nil
		}))
		x := usecase.NewActionExecutor(registry, &mockTracker{})

		gt.NoError(t, x.ExecuteOnIssue(context.Background(), requests("project-only"), model.Properties{"issue": "1"}))
		gt.Equal(t, called, 0)

		gt.NoError(t, x.ExecuteOnProject(context.Background(), requests("project-only"), model.Properties{"its-project": "P"}))
		gt.Equal(t, called, 1)
	})

	t.Run("empty batch", func(t *testing.T) {
		x := usecase.NewActionExecutor(action.NewRegistry(), &mockTracker{})
		gt.NoError(t, x.ExecuteOnIssue(context.Background(), nil, model.Properties{}))
	})
}
