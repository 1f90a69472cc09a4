package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr          string
	WebhookSecret string `masq:"secret"`
	MaxInFlight   int
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("ITSGATE_ADDR"),
		},
		&cli.StringFlag{
			Name:        "webhook-secret",
			Usage:       "HMAC secret of X-Hub-Signature-256, verification is off when empty",
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("ITSGATE_WEBHOOK_SECRET"),
		},
		&cli.IntFlag{
			Name:        "max-in-flight",
			Usage:       "Maximum number of events processed at once (0 for no limit)",
			Value:       16,
			Destination: &c.MaxInFlight,
			Sources:     cli.EnvVars("ITSGATE_MAX_IN_FLIGHT"),
		},
	}
}
