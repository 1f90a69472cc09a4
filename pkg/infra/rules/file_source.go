// Package rules loads rule collections from files and from project configuration refs.
package rules

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/rule"
)

// GlobalFileName is the rule file shared by all trackers
const GlobalFileName = "actions.config"

// PluginFileName returns the tracker specific rule file name
func PluginFileName(its string) string {
	return "actions-" + its + ".config"
}

// FileSource reads rules from one file. A missing file has no rules.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return filepath.Base(s.path) }

func (s *FileSource) Path() string { return s.path }

func (s *FileSource) Load(ctx context.Context) ([]*rule.Rule, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to open rule file", goerr.V("path", s.path))
	}
	defer f.Close()

	rules, err := rule.Parse(f)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse rule file", goerr.V("path", s.path))
	}
	return rules, nil
}

// DirSources returns the global and tracker specific sources inside dir
func DirSources(dir, its string) []rule.Source {
	sources := []rule.Source{NewFileSource(filepath.Join(dir, GlobalFileName))}
	if its != "" {
		sources = append(sources, NewFileSource(filepath.Join(dir, PluginFileName(its))))
	}
	return sources
}
