package config

import (
	"github.com/m-mizutani/itsgate/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds chat notification configuration
type Slack struct {
	Token string `masq:"secret"`
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-token",
			Usage:       "Slack bot token, enables post-slack-message",
			Destination: &c.Token,
			Sources:     cli.EnvVars("ITSGATE_SLACK_TOKEN"),
		},
	}
}

// NewNotifier returns nil when no token is configured
func (c *Slack) NewNotifier() *slack.Notifier {
	if c.Token == "" {
		return nil
	}
	return slack.New(c.Token)
}
