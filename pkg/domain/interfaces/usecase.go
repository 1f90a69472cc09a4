package interfaces

import (
	"context"

	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

// EventUseCase processes one repository event
type EventUseCase interface {
	// OnEvent runs rule matching and action dispatch for an event
	OnEvent(ctx context.Context, event model.Event) error
}

// AttributeFlattener turns event attribute objects into flat properties
type AttributeFlattener interface {
	Flatten(attr any, prefix string) model.Properties
}

// Enablement decides whether an event is in scope for this service
type Enablement interface {
	IsEnabled(event model.Event) bool
}

// ITSProjectResolver maps a repository project to its tracker project
type ITSProjectResolver interface {
	ITSProject(project string) (string, bool)
}
