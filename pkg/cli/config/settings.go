package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Settings points at the TOML settings file
type Settings struct {
	Path string
}

// Flags returns CLI flags for the settings file
func (c *Settings) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "settings",
			Aliases:     []string{"c"},
			Usage:       "TOML settings file (tracker name, issue pattern, projects)",
			Destination: &c.Path,
			Sources:     cli.EnvVars("ITSGATE_SETTINGS"),
		},
	}
}

// Load reads the settings file on top of the defaults. Without a path the defaults
// are returned.
func (c *Settings) Load() (*model.Settings, error) {
	settings := model.DefaultSettings()
	if c.Path == "" {
		return settings, nil
	}

	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read settings file", goerr.V("path", c.Path))
	}
	if err := toml.Unmarshal(raw, settings); err != nil {
		return nil, goerr.Wrap(err, "failed to parse settings file", goerr.V("path", c.Path))
	}
	if settings.Projects == nil {
		settings.Projects = map[string]model.ProjectSettings{}
	}
	if settings.ITS.IssuePattern == "" {
		return nil, goerr.New("issue pattern must not be empty", goerr.V("path", c.Path))
	}
	return settings, nil
}
