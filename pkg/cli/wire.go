package cli

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/action"
	"github.com/m-mizutani/itsgate/pkg/cli/config"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/infra/git"
	"github.com/m-mizutani/itsgate/pkg/infra/metrics"
	"github.com/m-mizutani/itsgate/pkg/infra/rules"
	"github.com/m-mizutani/itsgate/pkg/rule"
	"github.com/m-mizutani/itsgate/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// pipelineConfig is the configuration shared by every command that processes events
type pipelineConfig struct {
	settings   config.Settings
	rules      config.Rules
	repository config.Repository
	github     config.GitHub
	slack      config.Slack
}

func (c *pipelineConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, c.settings.Flags()...)
	flags = append(flags, c.rules.Flags()...)
	flags = append(flags, c.repository.Flags()...)
	flags = append(flags, c.github.Flags()...)
	flags = append(flags, c.slack.Flags()...)
	return flags
}

// pipeline is the assembled event processing chain
type pipeline struct {
	controller *usecase.ActionController
	rules      *rule.Base
	sources    []*rules.FileSource
	metrics    *metrics.Prometheus
	tracker    interfaces.Tracker
}

func buildPipeline(ctx context.Context, cfg *pipelineConfig) (*pipeline, error) {
	logger := ctxlog.From(ctx)

	settings, err := cfg.settings.Load()
	if err != nil {
		return nil, err
	}

	var store *git.Store
	var extractorOpts []usecase.IssueExtractorOption
	if cfg.repository.Root != "" {
		store = git.NewStore(cfg.repository.Root)
		extractorOpts = append(extractorOpts,
			usecase.WithCommitFetcher(store),
			usecase.WithPatchSetLookup(store),
		)
	} else {
		logger.Warn("No repository root, commit messages cannot be read")
	}

	issues, err := usecase.NewIssueExtractor(settings.ITS.IssuePattern, settings.ITS.IssuePatternGroup, extractorOpts...)
	if err != nil {
		return nil, err
	}

	enablement := usecase.NewEnablement(settings)
	properties := usecase.NewPropertyExtractor(issues, usecase.NewAttributeFlattener(), enablement)

	var projects rule.ProjectCache
	if store != nil {
		projects = rules.NewProjectCache(store, settings.ITS.Name, cfg.rules.CacheSize)
	}
	var sources []*rules.FileSource
	var ruleSources []rule.Source
	for _, src := range rules.DirSources(cfg.rules.Dir, settings.ITS.Name) {
		if fs, ok := src.(*rules.FileSource); ok {
			sources = append(sources, fs)
		}
		ruleSources = append(ruleSources, src)
	}
	base := rule.NewBase(projects, ruleSources...)
	base.Reload(ctx)

	tracker, err := cfg.github.NewTracker(ctx)
	if err != nil {
		return nil, err
	}

	registry := action.NewRegistry()
	if err := action.RegisterBuiltins(registry, tracker, action.WithTemplateDir(cfg.rules.TemplateDir)); err != nil {
		return nil, goerr.Wrap(err, "failed to register actions")
	}

	m := metrics.New()
	executor := usecase.NewActionExecutor(registry, tracker, usecase.WithExecutorMetrics(m))
	controller := usecase.NewActionController(properties, base, executor,
		usecase.WithEnablement(enablement),
		usecase.WithControllerMetrics(m),
	)

	if store != nil {
		registry.Register(action.NameFireEventOnCommits, action.NewFireEventOnCommits(store, issues, controller))
	}
	if notifier := cfg.slack.NewNotifier(); notifier != nil {
		registry.Register(action.NamePostSlackMessage, action.NewPostChatMessage(notifier))
	}

	logger.Info("Pipeline ready",
		"its", settings.ITS.Name,
		"rules", len(base.Rules()),
		"actions", registry.Names(),
		"github", cfg.github,
	)

	return &pipeline{
		controller: controller,
		rules:      base,
		sources:    sources,
		metrics:    m,
		tracker:    tracker,
	}, nil
}

// ruleFiles lists the paths the rule watcher observes
func (p *pipeline) ruleFiles() []string {
	paths := make([]string, 0, len(p.sources))
	for _, src := range p.sources {
		paths = append(paths, src.Path())
	}
	return paths
}
