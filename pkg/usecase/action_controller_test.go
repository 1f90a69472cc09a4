package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/itsgate/pkg/action"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
	"github.com/m-mizutani/itsgate/pkg/rule"
	"github.com/m-mizutani/itsgate/pkg/usecase"
)

type ruleSource struct {
	config string
}

func (s *ruleSource) Name() string { return "actions.config" }

func (s *ruleSource) Load(ctx context.Context) ([]*rule.Rule, error) {
	return rule.ParseString(s.config)
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *recordingCache) RulesFor(ctx context.Context, project string) []*rule.Rule { return nil }

func (c *recordingCache) Invalidate(project string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, project)
}

type controllerFixture struct {
	controller *usecase.ActionController
	tracker    *mockTracker
	metrics    *mockMetrics
	cache      *recordingCache
	projectRun []string
}

const controllerRules = `
[rule "commentOnNewReference"]
	event-type = patchset-created
	association = added@somewhere
	action = add-comment referenced
	action = label linked

[rule "versionOnTag"]
	event-type = ref-updated
	action = record-project

[rule "neverForProjects"]
	association = !,somewhere
	event-type = change-merged
	action = record-project
`

func newControllerFixture(t *testing.T, messages map[string]string, settings *model.Settings) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		tracker: &mockTracker{},
		metrics: &mockMetrics{},
		cache:   &recordingCache{},
	}

	registry := action.NewRegistry()
	gt.NoError(t, action.RegisterBuiltins(registry, f.tracker))
	registry.Register("record-project", handlerFunc(action.ScopeProject, func(ctx context.Context, target string, req model.ActionRequest, props model.Properties) error {
		f.projectRun = append(f.projectRun, props["event-type"])
		return nil
	}))

	base := rule.NewBase(f.cache, &ruleSource{config: controllerRules})
	base.Reload(context.Background())

	issues, err := usecase.NewIssueExtractor(`#(\d+)`, 1,
		usecase.WithCommitFetcher(messagesFetcher(messages)),
		usecase.WithPatchSetLookup(&mockPatchSetLookup{}),
	)
	gt.NoError(t, err)

	enablement := usecase.NewEnablement(settings)
	props := usecase.NewPropertyExtractor(issues, usecase.NewAttributeFlattener(), enablement)
	executor := usecase.NewActionExecutor(registry, f.tracker, usecase.WithExecutorMetrics(f.metrics))

	f.controller = usecase.NewActionController(props, base, executor,
		usecase.WithEnablement(enablement),
		usecase.WithControllerMetrics(f.metrics),
	)
	return f
}

func patchSetCreated(project, revision string, ps int) *model.PatchSetCreatedEvent {
	ev := &model.PatchSetCreatedEvent{}
	ev.Type = model.EventKindPatchSetCreated
	ev.Change = &model.ChangeAttribute{Project: project, Branch: "main", Number: 10}
	ev.PatchSet = &model.PatchSetAttribute{Number: ps, Revision: revision}
	return ev
}

func TestActionController_OnEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("issue and project actions", func(t *testing.T) {
		f := newControllerFixture(t, map[string]string{
			"rev": "Fix #1 and #2",
		}, nil)

		gt.NoError(t, f.controller.OnEvent(ctx, patchSetCreated("team/repo", "rev", 1)))
		gt.Equal(t, f.tracker.comments, []string{"1: referenced", "2: referenced"})
		gt.Equal(t, f.tracker.performed, []string{"1: label linked", "2: label linked"})
		gt.Number(t, len(f.projectRun)).Equal(0)
		gt.Equal(t, f.metrics.received, []string{"patchset-created"})
	})

	t.Run("project rules on ref update", func(t *testing.T) {
		f := newControllerFixture(t, map[string]string{"new": "no refs"}, nil)

		ev := &model.RefUpdatedEvent{RefUpdate: &model.RefUpdateAttribute{
			Project: "team/repo", RefName: "refs/tags/v1", OldRev: "old", NewRev: "new",
		}}
		ev.Type = model.EventKindRefUpdated

		gt.NoError(t, f.controller.OnEvent(ctx, ev))
		gt.Equal(t, f.projectRun, []string{"ref-updated"})
		gt.Number(t, len(f.cache.invalidated)).Equal(0)
	})

	t.Run("meta config update invalidates project rules", func(t *testing.T) {
		f := newControllerFixture(t, nil, nil)

		ev := &model.RefUpdatedEvent{RefUpdate: &model.RefUpdateAttribute{
			Project: "team/repo", RefName: "refs/meta/config", OldRev: "a", NewRev: "b",
		}}
		ev.Type = model.EventKindRefUpdated

		gt.NoError(t, f.controller.OnEvent(ctx, ev))
		gt.Equal(t, f.cache.invalidated, []string{"team/repo"})
	})

	t.Run("not ref-scoped", func(t *testing.T) {
		f := newControllerFixture(t, nil, nil)

		ev := &model.ProjectCreatedEvent{Project: "team/new", Head: "refs/heads/main"}
		ev.Type = model.EventKindProjectCreated

		gt.NoError(t, f.controller.OnEvent(ctx, ev))
		gt.Equal(t, f.metrics.ignored, []string{"project-created/not_ref_scoped"})
	})

	t.Run("disabled project", func(t *testing.T) {
		f := newControllerFixture(t, map[string]string{"rev": "Fix #1"}, &model.Settings{
			ITS: model.ITSSettings{EnabledByDefault: false},
		})

		gt.NoError(t, f.controller.OnEvent(ctx, patchSetCreated("team/repo", "rev", 1)))
		gt.Number(t, len(f.tracker.comments)).Equal(0)
		gt.Equal(t, f.metrics.ignored, []string{"patchset-created/disabled"})
	})

	t.Run("later patch set without resolvable prior", func(t *testing.T) {
		f := newControllerFixture(t, map[string]string{"rev": "Fix #1"}, nil)

		gt.NoError(t, f.controller.OnEvent(ctx, patchSetCreated("team/repo", "rev", 2)))
		gt.Equal(t, f.tracker.comments, []string{"1: referenced"})
	})

	t.Run("action failures are returned after all actions ran", func(t *testing.T) {
		f := newControllerFixture(t, map[string]string{"rev": "Fix #1 #2"}, nil)
		f.tracker.PerformActionFunc = func(ctx context.Context, issue, act string) error {
			if issue == "1" {
				return errors.New("tracker down")
			}
			return nil
		}

		err := f.controller.OnEvent(ctx, patchSetCreated("team/repo", "rev", 1))
		gt.Error(t, err)
		gt.Equal(t, f.tracker.comments, []string{"1: referenced", "2: referenced"})
		gt.Equal(t, f.metrics.failed, []string{"label"})
	})

	t.Run("nil event", func(t *testing.T) {
		f := newControllerFixture(t, nil, nil)
		gt.Error(t, f.controller.OnEvent(ctx, nil))
	})
}

func TestActionController_DispatchIssue(t *testing.T) {
	f := newControllerFixture(t, nil, nil)

	gt.NoError(t, f.controller.DispatchIssue(context.Background(), model.Properties{
		"event-type":  "patchset-created",
		"issue":       "9",
		"association": "somewhere added@somewhere",
	}))
	gt.Equal(t, f.tracker.comments, []string{"9: referenced"})

	gt.NoError(t, f.controller.DispatchIssue(context.Background(), model.Properties{
		"event-type":  "patchset-created",
		"issue":       "9",
		"association": "somewhere",
	}))
	gt.Number(t, len(f.tracker.comments)).Equal(1)
}
