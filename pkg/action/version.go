package action

import (
	"context"

	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

// CreateVersionFromProperty creates a tracker version named after a property value,
// e.g. "create-version-from-property ref-simple-name"
type CreateVersionFromProperty struct {
	tracker interfaces.Tracker
}

func NewCreateVersionFromProperty(tracker interfaces.Tracker) *CreateVersionFromProperty {
	return &CreateVersionFromProperty{tracker: tracker}
}

func (a *CreateVersionFromProperty) Scope() Scope { return ScopeProject }

func (a *CreateVersionFromProperty) Execute(ctx context.Context, itsProject string, req model.ActionRequest, props model.Properties) error {
	version, err := versionOf(req, props, itsProject)
	if err != nil {
		return err
	}
	return a.tracker.CreateVersion(ctx, itsProject, version)
}

// MarkPropertyAsReleasedVersion flags the version named by a property value as released
type MarkPropertyAsReleasedVersion struct {
	tracker interfaces.Tracker
}

func NewMarkPropertyAsReleasedVersion(tracker interfaces.Tracker) *MarkPropertyAsReleasedVersion {
	return &MarkPropertyAsReleasedVersion{tracker: tracker}
}

func (a *MarkPropertyAsReleasedVersion) Scope() Scope { return ScopeProject }

func (a *MarkPropertyAsReleasedVersion) Execute(ctx context.Context, itsProject string, req model.ActionRequest, props model.Properties) error {
	version, err := versionOf(req, props, itsProject)
	if err != nil {
		return err
	}
	return a.tracker.MarkVersionAsReleased(ctx, itsProject, version)
}

func versionOf(req model.ActionRequest, props model.Properties, itsProject string) (string, error) {
	if err := requireParams(req, 1); err != nil {
		return "", err
	}
	if err := requireTarget(req, itsProject); err != nil {
		return "", err
	}
	return propertyValue(req, props, req.Parameter(1))
}

// AddPropertyToField appends a property value to an issue field,
// e.g. "add-property-to-field branch labels"
type AddPropertyToField struct {
	tracker interfaces.Tracker
}

func NewAddPropertyToField(tracker interfaces.Tracker) *AddPropertyToField {
	return &AddPropertyToField{tracker: tracker}
}

func (a *AddPropertyToField) Scope() Scope { return ScopeIssue }

func (a *AddPropertyToField) Execute(ctx context.Context, issue string, req model.ActionRequest, props model.Properties) error {
	if err := requireParams(req, 2); err != nil {
		return err
	}
	if err := requireTarget(req, issue); err != nil {
		return err
	}
	value, err := propertyValue(req, props, req.Parameter(1))
	if err != nil {
		return err
	}
	return a.tracker.AddValueToField(ctx, issue, value, req.Parameter(2))
}
