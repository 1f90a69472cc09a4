package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Rules holds rule file configuration
type Rules struct {
	Dir         string
	TemplateDir string
	Watch       bool
	Debounce    time.Duration
	CacheSize   int
}

// Flags returns CLI flags for rule configuration
func (c *Rules) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "rules-dir",
			Usage:       "Directory holding actions.config and actions-<its>.config",
			Value:       "./etc/its",
			Destination: &c.Dir,
			Sources:     cli.EnvVars("ITSGATE_RULES_DIR"),
		},
		&cli.StringFlag{
			Name:        "template-dir",
			Usage:       "Directory of <name>.tmpl files for add-soy-comment",
			Destination: &c.TemplateDir,
			Sources:     cli.EnvVars("ITSGATE_TEMPLATE_DIR"),
		},
		&cli.BoolFlag{
			Name:        "rules-watch",
			Usage:       "Reload rules when rule files change",
			Destination: &c.Watch,
			Sources:     cli.EnvVars("ITSGATE_RULES_WATCH"),
		},
		&cli.DurationFlag{
			Name:        "rules-debounce",
			Usage:       "Quiet period before reloading changed rule files",
			Value:       500 * time.Millisecond,
			Destination: &c.Debounce,
			Sources:     cli.EnvVars("ITSGATE_RULES_DEBOUNCE"),
		},
		&cli.IntFlag{
			Name:        "project-rules-cache-size",
			Usage:       "Number of projects whose rules are kept in memory",
			Value:       256,
			Destination: &c.CacheSize,
			Sources:     cli.EnvVars("ITSGATE_PROJECT_RULES_CACHE_SIZE"),
		},
	}
}
