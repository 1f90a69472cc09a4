package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

// zeroRevision marks a created or deleted reference side in ref-updated events
const zeroRevision = "0000000000000000000000000000000000000000"

// issueSource tells the extractor where to look for issue references of an event
type issueSource struct {
	revision string
	patchSet *model.PatchSetID
}

// PropertyExtractor folds an event into project and per-issue properties
type PropertyExtractor struct {
	issues    *IssueExtractor
	flattener interfaces.AttributeFlattener
	resolver  interfaces.ITSProjectResolver
}

// NewPropertyExtractor creates a PropertyExtractor. resolver may be nil.
func NewPropertyExtractor(issues *IssueExtractor, flattener interfaces.AttributeFlattener, resolver interfaces.ITSProjectResolver) *PropertyExtractor {
	if flattener == nil {
		flattener = NewAttributeFlattener()
	}
	return &PropertyExtractor{
		issues:    issues,
		flattener: flattener,
		resolver:  resolver,
	}
}

// ExtractFrom builds the project properties of an event and one property map per
// referenced issue
func (x *PropertyExtractor) ExtractFrom(ctx context.Context, event model.Event) (*model.EventProperties, error) {
	if event == nil {
		return nil, goerr.New("event is nil")
	}

	base, source, err := x.baseProperties(event)
	if err != nil {
		return nil, err
	}

	kind := event.Kind()
	base[model.PropEvent] = kind.ClassName()
	base[model.PropEventType] = string(kind)

	project := event.ProjectName()
	if project != "" {
		base[model.PropProject] = project
	}
	if x.resolver != nil && project != "" {
		if itsProject, ok := x.resolver.ITSProject(project); ok {
			base[model.PropITSProject] = itsProject
		}
	}

	result := &model.EventProperties{Project: base}
	if source == nil || x.issues == nil {
		return result, nil
	}

	associations := x.issues.IssueIDs(ctx, project, source.revision, source.patchSet)
	for _, id := range associations.IssueIDs() {
		result.Issues = append(result.Issues, base.With(
			model.PropIssue, id,
			model.PropAssociation, associations[id].String(),
		))
	}

	return result, nil
}

// baseProperties maps one event kind to its attribute properties and issue source
func (x *PropertyExtractor) baseProperties(event model.Event) (model.Properties, *issueSource, error) {
	switch e := event.(type) {
	case *model.PatchSetCreatedEvent:
		props := x.patchSetProperties(e.Change, e.PatchSet)
		props.Merge(x.flattener.Flatten(e.Uploader, "uploader"))
		return props, patchSetSource(e.Change, e.PatchSet), nil

	case *model.CommentAddedEvent:
		props := x.patchSetProperties(e.Change, e.PatchSet)
		props.Merge(
			x.flattener.Flatten(e.Author, "commenter"),
			x.flattener.Flatten(e.Approvals, ""),
		)
		setIf(props, "comment", e.Comment)
		return props, patchSetSource(e.Change, e.PatchSet), nil

	case *model.ChangeMergedEvent:
		props := x.patchSetProperties(e.Change, e.PatchSet)
		props.Merge(x.flattener.Flatten(e.Submitter, "submitter"))
		setIf(props, "new-revision", e.NewRev)
		return props, patchSetSource(e.Change, e.PatchSet), nil

	case *model.ChangeAbandonedEvent:
		props := x.patchSetProperties(e.Change, e.PatchSet)
		props.Merge(x.flattener.Flatten(e.Abandoner, "abandoner"))
		setIf(props, "reason", e.Reason)
		return props, patchSetSource(e.Change, e.PatchSet), nil

	case *model.ChangeRestoredEvent:
		props := x.patchSetProperties(e.Change, e.PatchSet)
		props.Merge(x.flattener.Flatten(e.Restorer, "restorer"))
		setIf(props, "reason", e.Reason)
		return props, patchSetSource(e.Change, e.PatchSet), nil

	case *model.WorkInProgressStateChangedEvent:
		props := x.patchSetProperties(e.Change, e.PatchSet)
		props.Merge(x.flattener.Flatten(e.Changer, "changer"))
		return props, patchSetSource(e.Change, e.PatchSet), nil

	case *model.PrivateStateChangedEvent:
		props := x.patchSetProperties(e.Change, e.PatchSet)
		props.Merge(x.flattener.Flatten(e.Changer, "changer"))
		return props, patchSetSource(e.Change, e.PatchSet), nil

	case *model.TopicChangedEvent:
		props := x.flattener.Flatten(e.Change, "")
		props.Merge(x.flattener.Flatten(e.Changer, "changer"))
		setIf(props, "old-topic", e.OldTopic)
		return props, nil, nil

	case *model.RefUpdatedEvent:
		props := x.flattener.Flatten(e.RefUpdate, "")
		props.Merge(x.flattener.Flatten(e.Submitter, "submitter"))
		if e.RefUpdate == nil || e.RefUpdate.NewRev == "" || e.RefUpdate.NewRev == zeroRevision {
			return props, nil, nil
		}
		if strings.HasPrefix(e.RefUpdate.FullRefName(), "refs/meta/") {
			return props, nil, nil
		}
		return props, &issueSource{revision: e.RefUpdate.NewRev}, nil

	default:
		return nil, nil, goerr.New("event kind has no property mapping",
			goerr.V("kind", event.Kind()),
		)
	}
}

func (x *PropertyExtractor) patchSetProperties(change *model.ChangeAttribute, ps *model.PatchSetAttribute) model.Properties {
	return x.flattener.Flatten(change, "").Merge(x.flattener.Flatten(ps, ""))
}

func patchSetSource(change *model.ChangeAttribute, ps *model.PatchSetAttribute) *issueSource {
	if ps == nil || ps.Revision == "" {
		return nil
	}
	src := &issueSource{revision: ps.Revision}
	if change != nil && change.Number > 0 && ps.Number > 0 {
		src.patchSet = &model.PatchSetID{Change: change.Number, PatchSet: ps.Number}
	}
	return src
}
