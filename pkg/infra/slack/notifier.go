// Package slack posts chat messages through the Slack Web API.
package slack

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Notifier implements interfaces.ChatNotifier
type Notifier struct {
	client *slack.Client
}

// Option configures a Notifier
type Option func(*[]slack.Option)

// WithAPIURL overrides the Slack API endpoint
func WithAPIURL(url string) Option {
	return func(opts *[]slack.Option) {
		*opts = append(*opts, slack.OptionAPIURL(url))
	}
}

// New creates a Notifier with a bot token
func New(token string, opts ...Option) *Notifier {
	var slackOpts []slack.Option
	for _, opt := range opts {
		opt(&slackOpts)
	}
	return &Notifier{client: slack.New(token, slackOpts...)}
}

// PostMessage posts text to a channel name or id
func (n *Notifier) PostMessage(ctx context.Context, channel, text string) error {
	channelID, ts, err := n.client.PostMessageContext(ctx, channel, slack.MsgOptionText(text, false))
	if err != nil {
		return goerr.Wrap(err, "failed to post slack message", goerr.V("channel", channel))
	}
	ctxlog.From(ctx).Debug("Slack message posted", "channel", channelID, "ts", ts)
	return nil
}
