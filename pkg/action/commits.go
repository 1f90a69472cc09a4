package action

import (
	"context"
	"strconv"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

const defaultCommitLimit = 100

// Extractor finds issue references in one commit message
type Extractor interface {
	Extract(message string) model.Associations
}

// IssueDispatcher runs rule matching for a synthesized issue property map
type IssueDispatcher interface {
	DispatchIssue(ctx context.Context, props model.Properties) error
}

// FireEventOnCommits walks the commits a ref update brought in and dispatches one issue
// event per referenced issue and commit. The optional parameter caps the number of
// commits walked.
type FireEventOnCommits struct {
	walker     interfaces.CommitWalker
	extractor  Extractor
	dispatcher IssueDispatcher
}

func NewFireEventOnCommits(walker interfaces.CommitWalker, extractor Extractor, dispatcher IssueDispatcher) *FireEventOnCommits {
	return &FireEventOnCommits{
		walker:     walker,
		extractor:  extractor,
		dispatcher: dispatcher,
	}
}

func (a *FireEventOnCommits) Scope() Scope { return ScopeProject }

func (a *FireEventOnCommits) Execute(ctx context.Context, _ string, req model.ActionRequest, props model.Properties) error {
	logger := ctxlog.From(ctx)

	limit := defaultCommitLimit
	if p := req.Parameter(1); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return goerr.New("invalid commit limit", goerr.V("action", req.Name()), goerr.V("limit", p))
		}
		limit = n
	}

	project, err := propertyValue(req, props, model.PropProject)
	if err != nil {
		return err
	}
	to, err := propertyValue(req, props, model.PropRevision)
	if err != nil {
		return err
	}
	from, _ := props.Get(model.PropRevisionOld)

	commits, err := a.walker.CommitsBetween(ctx, project, from, to, limit)
	if err != nil {
		return goerr.Wrap(err, "failed to walk commits",
			goerr.V("project", project),
			goerr.V("from", from),
			goerr.V("to", to),
		)
	}

	var dispatched int
	for _, commit := range commits {
		associations := a.extractor.Extract(commit.Message)
		for _, id := range associations.IssueIDs() {
			issueProps := props.With(
				model.PropRevision, commit.ID,
				model.PropIssue, id,
				model.PropAssociation, associations[id].String(),
			)
			if err := a.dispatcher.DispatchIssue(ctx, issueProps); err != nil {
				logger.Warn("Failed to dispatch commit issue event",
					"commit", commit.ID,
					"issue", id,
					"error", err,
				)
				continue
			}
			dispatched++
		}
	}

	logger.Debug("Fired events on commits",
		"project", project,
		"commits", len(commits),
		"dispatched", dispatched,
	)
	return nil
}
