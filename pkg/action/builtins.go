package action

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
)

// Built-in action names
const (
	NameAddComment                    = "add-comment"
	NameAddStandardComment            = "add-standard-comment"
	NameAddSoyComment                 = "add-soy-comment"
	NameLogEvent                      = "log-event"
	NameCreateVersionFromProperty     = "create-version-from-property"
	NameMarkPropertyAsReleasedVersion = "mark-property-as-released-version"
	NameAddPropertyToField            = "add-property-to-field"
	NameFireEventOnCommits            = "fire-event-on-commits"
	NamePostSlackMessage              = "post-slack-message"
)

type builtinConfig struct {
	templateDir string
}

// BuiltinOption configures RegisterBuiltins
type BuiltinOption func(*builtinConfig)

// WithTemplateDir sets the directory add-soy-comment reads templates from
func WithTemplateDir(dir string) BuiltinOption {
	return func(c *builtinConfig) {
		c.templateDir = dir
	}
}

// RegisterBuiltins registers the handlers every deployment has
func RegisterBuiltins(r *Registry, tracker interfaces.Tracker, opts ...BuiltinOption) error {
	if tracker == nil {
		return goerr.New("tracker is required for built-in actions")
	}

	cfg := &builtinConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	standard, err := NewAddStandardComment(tracker)
	if err != nil {
		return err
	}

	r.Register(NameAddComment, NewAddComment(tracker))
	r.Register(NameAddStandardComment, standard)
	r.Register(NameAddSoyComment, NewAddTemplateComment(tracker, cfg.templateDir))
	r.Register(NameLogEvent, NewLogEvent())
	r.Register(NameCreateVersionFromProperty, NewCreateVersionFromProperty(tracker))
	r.Register(NameMarkPropertyAsReleasedVersion, NewMarkPropertyAsReleasedVersion(tracker))
	r.Register(NameAddPropertyToField, NewAddPropertyToField(tracker))
	return nil
}
