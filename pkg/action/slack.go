package action

import (
	"context"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

var placeholder = regexp.MustCompile(`\$\{([A-Za-z0-9_-]+)\}`)

// PostChatMessage posts "post-slack-message <channel> <text...>" with ${key}
// placeholders replaced by property values
type PostChatMessage struct {
	notifier interfaces.ChatNotifier
}

func NewPostChatMessage(notifier interfaces.ChatNotifier) *PostChatMessage {
	return &PostChatMessage{notifier: notifier}
}

func (a *PostChatMessage) Scope() Scope { return ScopeIssue }

func (a *PostChatMessage) Execute(ctx context.Context, _ string, req model.ActionRequest, props model.Properties) error {
	if err := requireParams(req, 2); err != nil {
		return err
	}

	text, err := expand(req, strings.Join(req.Parameters()[1:], " "), props)
	if err != nil {
		return err
	}
	return a.notifier.PostMessage(ctx, req.Parameter(1), text)
}

// expand substitutes ${key} placeholders; any undefined key fails the whole text
func expand(req model.ActionRequest, text string, props model.Properties) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(text, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		v, ok := props.Get(key)
		if !ok {
			missing = append(missing, key)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", goerr.Wrap(ErrUndefinedProperty, "undefined placeholder",
			goerr.V("action", req.Name()),
			goerr.V("properties", missing),
		)
	}
	return out, nil
}
