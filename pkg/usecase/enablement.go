package usecase

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

// Enablement decides per project and branch whether events are processed. It also
// maps projects to their tracker project.
type Enablement struct {
	settings *model.Settings
}

// NewEnablement creates an Enablement over settings. nil settings use the defaults.
func NewEnablement(settings *model.Settings) *Enablement {
	if settings == nil {
		settings = model.DefaultSettings()
	}
	return &Enablement{settings: settings}
}

// IsEnabled reports whether an event is in scope. Events outside a project never are.
func (e *Enablement) IsEnabled(event model.Event) bool {
	if event == nil {
		return false
	}
	project := event.ProjectName()
	if project == "" {
		return false
	}

	ps, ok := e.settings.Projects[project]
	if !ok {
		return e.settings.ITS.EnabledByDefault
	}
	if ps.Enabled != nil && !*ps.Enabled {
		return false
	}
	if ps.Enabled == nil && !e.settings.ITS.EnabledByDefault {
		return false
	}
	if len(ps.Branches) == 0 {
		return true
	}

	ref := event.RefName()
	for _, pattern := range ps.Branches {
		if matched, err := doublestar.Match(pattern, ref); err == nil && matched {
			return true
		}
	}
	return false
}

// ITSProject returns the tracker project configured for a project
func (e *Enablement) ITSProject(project string) (string, bool) {
	ps, ok := e.settings.Projects[project]
	if !ok || ps.ITSProject == "" {
		return "", false
	}
	return ps.ITSProject, true
}
