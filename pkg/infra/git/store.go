// Package git reads commits and refs from bare or non-bare repositories on disk.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

var ErrProjectNotFound = goerr.New("project repository not found")

// Store opens the repository of a project below a root directory, either
// <root>/<project>.git or <root>/<project>
type Store struct {
	root string

	mu    sync.Mutex
	repos map[string]*git.Repository
}

func NewStore(root string) *Store {
	return &Store{
		root:  root,
		repos: make(map[string]*git.Repository),
	}
}

func (s *Store) open(project string) (*git.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if repo, ok := s.repos[project]; ok {
		return repo, nil
	}

	clean := filepath.Clean(project)
	if project == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, goerr.New("invalid project name", goerr.V("project", project))
	}

	for _, dir := range []string{
		filepath.Join(s.root, clean+".git"),
		filepath.Join(s.root, clean),
	} {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		repo, err := git.PlainOpen(dir)
		if err != nil {
			continue
		}
		s.repos[project] = repo
		return repo, nil
	}

	return nil, goerr.Wrap(ErrProjectNotFound, "no repository for project",
		goerr.V("project", project),
		goerr.V("root", s.root),
	)
}

func resolve(repo *git.Repository, revision string) (plumbing.Hash, error) {
	if plumbing.IsHash(revision) {
		return plumbing.NewHash(revision), nil
	}
	h, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return *h, nil
}

func isMissing(err error) bool {
	return errors.Is(err, plumbing.ErrObjectNotFound) || errors.Is(err, plumbing.ErrReferenceNotFound)
}

// Fetch returns the message of a commit. Missing objects and objects that are not
// commits yield an empty message.
func (s *Store) Fetch(ctx context.Context, project, revision string) (string, error) {
	repo, err := s.open(project)
	if err != nil {
		return "", err
	}

	hash, err := resolve(repo, revision)
	if err != nil {
		if isMissing(err) {
			return "", nil
		}
		return "", goerr.Wrap(err, "failed to resolve revision", goerr.V("project", project), goerr.V("revision", revision))
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		if isMissing(err) {
			return "", nil
		}
		return "", goerr.Wrap(err, "failed to read commit", goerr.V("project", project), goerr.V("revision", revision))
	}
	return commit.Message, nil
}

// ChangeRef returns the ref of a patch set, e.g. refs/changes/45/12345/2
func ChangeRef(id model.PatchSetID) string {
	return fmt.Sprintf("refs/changes/%02d/%d/%d", id.Change%100, id.Change, id.PatchSet)
}

// RevisionOfPreviousPatchSet resolves the patch set ref before id
func (s *Store) RevisionOfPreviousPatchSet(ctx context.Context, project string, id model.PatchSetID) (string, bool, error) {
	prev, ok := id.Previous()
	if !ok {
		return "", false, nil
	}

	repo, err := s.open(project)
	if err != nil {
		return "", false, err
	}

	ref, err := repo.Reference(plumbing.ReferenceName(ChangeRef(prev)), true)
	if err != nil {
		if isMissing(err) {
			return "", false, nil
		}
		return "", false, goerr.Wrap(err, "failed to read patch set ref",
			goerr.V("project", project),
			goerr.V("ref", ChangeRef(prev)),
		)
	}
	return ref.Hash().String(), true, nil
}

// CommitsBetween lists up to limit commits reachable from to but not from from, newest
// first. An empty or zero from walks the whole history of to.
func (s *Store) CommitsBetween(ctx context.Context, project, from, to string, limit int) ([]interfaces.Commit, error) {
	repo, err := s.open(project)
	if err != nil {
		return nil, err
	}

	toHash, err := resolve(repo, to)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve revision", goerr.V("project", project), goerr.V("revision", to))
	}

	excluded := make(map[plumbing.Hash]struct{})
	if from != "" && from != plumbing.ZeroHash.String() {
		fromHash, err := resolve(repo, from)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve revision", goerr.V("project", project), goerr.V("revision", from))
		}
		iter, err := repo.Log(&git.LogOptions{From: fromHash})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to walk history", goerr.V("revision", from))
		}
		err = iter.ForEach(func(c *object.Commit) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			excluded[c.Hash] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to walk history", goerr.V("revision", from))
		}
	}

	iter, err := repo.Log(&git.LogOptions{From: toHash})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to walk history", goerr.V("revision", to))
	}

	var commits []interfaces.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, skip := excluded[c.Hash]; skip {
			return nil
		}
		commits = append(commits, interfaces.Commit{ID: c.Hash.String(), Message: c.Message})
		if limit > 0 && len(commits) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to walk history", goerr.V("revision", to))
	}
	return commits, nil
}

// ReadFile returns the content of path in the tree of ref. The boolean is false when
// the ref or the file does not exist.
func (s *Store) ReadFile(ctx context.Context, project, ref, path string) (string, bool, error) {
	repo, err := s.open(project)
	if err != nil {
		return "", false, err
	}

	r, err := repo.Reference(plumbing.ReferenceName(ref), true)
	if err != nil {
		if isMissing(err) {
			return "", false, nil
		}
		return "", false, goerr.Wrap(err, "failed to read ref", goerr.V("project", project), goerr.V("ref", ref))
	}

	commit, err := repo.CommitObject(r.Hash())
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to read commit", goerr.V("project", project), goerr.V("ref", ref))
	}
	file, err := commit.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", false, nil
		}
		return "", false, goerr.Wrap(err, "failed to read file", goerr.V("project", project), goerr.V("path", path))
	}

	content, err := file.Contents()
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to read file", goerr.V("project", project), goerr.V("path", path))
	}
	return content, true, nil
}
