package interfaces

import (
	"context"

	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

// CommitFetcher reads commit messages from the repository store
type CommitFetcher interface {
	// Fetch returns the message of a commit. Missing or non-commit objects yield "".
	Fetch(ctx context.Context, project, revision string) (string, error)
}

// PatchSetLookup resolves revisions of earlier patch sets
type PatchSetLookup interface {
	// RevisionOfPreviousPatchSet returns the revision of the patch set before id.
	// The boolean is false when there is none.
	RevisionOfPreviousPatchSet(ctx context.Context, project string, id model.PatchSetID) (string, bool, error)
}

// Commit is a revision with its message
type Commit struct {
	ID      string
	Message string
}

// CommitWalker lists commits reachable from a revision but not from another
type CommitWalker interface {
	CommitsBetween(ctx context.Context, project, from, to string, limit int) ([]Commit, error)
}
