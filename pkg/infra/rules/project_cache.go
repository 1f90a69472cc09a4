package rules

import (
	"context"
	"strconv"
	"strings"
	"sync"

	format "github.com/go-git/go-git/v5/plumbing/format/config"
	"github.com/golang/groupcache/lru"
	"github.com/m-mizutani/ctxlog"
	"golang.org/x/sync/singleflight"

	"github.com/m-mizutani/itsgate/pkg/rule"
)

const (
	metaConfigRef     = "refs/meta/config"
	projectConfigFile = "project.config"
	maxInheritDepth   = 16
	defaultCacheSize  = 256
)

// ConfigReader reads a file from a ref of a project
type ConfigReader interface {
	ReadFile(ctx context.Context, project, ref, path string) (string, bool, error)
}

// ProjectCache holds the rules configured in refs/meta/config of each project. A
// project without rules of its own uses those of the nearest parent named by
// access.inheritFrom in project.config.
type ProjectCache struct {
	reader ConfigReader
	files  []string

	mu    sync.Mutex
	cache *lru.Cache
	gen   map[string]uint64
	group singleflight.Group
}

// NewProjectCache creates a cache reading actions.config and, if its is set, the
// tracker specific rule file
func NewProjectCache(reader ConfigReader, its string, size int) *ProjectCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	files := []string{GlobalFileName}
	if its != "" {
		files = append(files, PluginFileName(its))
	}
	return &ProjectCache{
		reader: reader,
		files:  files,
		cache:  lru.New(size),
		gen:    make(map[string]uint64),
	}
}

func (c *ProjectCache) RulesFor(ctx context.Context, project string) []*rule.Rule {
	c.mu.Lock()
	if v, ok := c.cache.Get(project); ok {
		c.mu.Unlock()
		return v.([]*rule.Rule)
	}
	gen := c.gen[project]
	c.mu.Unlock()

	// a load started before Invalidate must not be joined by later callers
	key := project + "@" + strconv.FormatUint(gen, 10)
	v, _, _ := c.group.Do(key, func() (any, error) {
		rules := c.load(ctx, project)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen[project] == gen {
			c.cache.Add(project, rules)
		}
		return rules, nil
	})
	return v.([]*rule.Rule)
}

func (c *ProjectCache) Invalidate(project string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[project]++
	c.cache.Remove(project)
}

func (c *ProjectCache) load(ctx context.Context, project string) []*rule.Rule {
	logger := ctxlog.From(ctx)

	visited := make(map[string]struct{})
	for p := project; p != "" && len(visited) < maxInheritDepth; p = c.parentOf(ctx, p) {
		if _, ok := visited[p]; ok {
			logger.Warn("Project inheritance loop", "project", project, "at", p)
			break
		}
		visited[p] = struct{}{}

		if rules := c.rulesOf(ctx, p); len(rules) > 0 {
			logger.Debug("Project rules loaded", "project", project, "from", p, "rules", len(rules))
			return rules
		}
	}
	return []*rule.Rule{}
}

func (c *ProjectCache) rulesOf(ctx context.Context, project string) []*rule.Rule {
	logger := ctxlog.From(ctx)

	var rules []*rule.Rule
	for _, file := range c.files {
		content, found, err := c.reader.ReadFile(ctx, project, metaConfigRef, file)
		if err != nil {
			logger.Warn("Failed to read project rules", "project", project, "file", file, "error", err)
			continue
		}
		if !found {
			continue
		}

		parsed, err := rule.ParseString(content)
		if err != nil {
			logger.Error("Failed to parse project rules, using none from this file",
				"project", project,
				"file", file,
				"error", err,
			)
			continue
		}
		rules = append(rules, parsed...)
	}
	return rules
}

func (c *ProjectCache) parentOf(ctx context.Context, project string) string {
	content, found, err := c.reader.ReadFile(ctx, project, metaConfigRef, projectConfigFile)
	if err != nil || !found {
		return ""
	}

	cfg := format.New()
	if err := format.NewDecoder(strings.NewReader(content)).Decode(cfg); err != nil {
		ctxlog.From(ctx).Warn("Failed to parse project config", "project", project, "error", err)
		return ""
	}
	return cfg.Section("access").Option("inheritFrom")
}
