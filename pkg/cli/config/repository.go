package config

import "github.com/urfave/cli/v3"

// Repository holds the location of the repositories events refer to
type Repository struct {
	Root string
}

// Flags returns CLI flags for repository configuration
func (c *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-root",
			Usage:       "Directory holding <project>.git repositories; commit lookups are off when empty",
			Destination: &c.Root,
			Sources:     cli.EnvVars("ITSGATE_REPOSITORY_ROOT"),
		},
	}
}
