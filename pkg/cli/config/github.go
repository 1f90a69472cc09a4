package config

import (
	"context"
	"log/slog"
	"os"

	gh "github.com/google/go-github/v60/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	githubinfra "github.com/m-mizutani/itsgate/pkg/infra/github"
	"github.com/m-mizutani/itsgate/pkg/infra/tracker"
	"github.com/urfave/cli/v3"
)

// GitHub holds configuration of the GitHub issues tracker
type GitHub struct {
	Token          string `masq:"secret"`
	AppID          int64
	InstallationID int64
	PrivateKeyFile string
	DefaultRepo    string
	BaseURL        string
	DryRun         bool
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub token",
			Destination: &c.Token,
			Sources:     cli.EnvVars("ITSGATE_GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID, used instead of a token when set",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("ITSGATE_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("ITSGATE_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key-file",
			Usage:       "Path to the GitHub App private key",
			Destination: &c.PrivateKeyFile,
			Sources:     cli.EnvVars("ITSGATE_GITHUB_PRIVATE_KEY_FILE"),
		},
		&cli.StringFlag{
			Name:        "github-default-repo",
			Usage:       "Repository (owner/repo) for issue ids without one",
			Destination: &c.DefaultRepo,
			Sources:     cli.EnvVars("ITSGATE_GITHUB_DEFAULT_REPO"),
		},
		&cli.StringFlag{
			Name:        "github-base-url",
			Usage:       "GitHub API base URL, e.g. for GitHub Enterprise",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("ITSGATE_GITHUB_BASE_URL"),
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Log tracker operations instead of calling GitHub",
			Destination: &c.DryRun,
			Sources:     cli.EnvVars("ITSGATE_DRY_RUN"),
		},
	}
}

func (c GitHub) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("app_id", c.AppID),
		slog.Int64("installation_id", c.InstallationID),
		slog.String("default_repo", c.DefaultRepo),
		slog.String("base_url", c.BaseURL),
		slog.Bool("dry_run", c.DryRun),
		slog.Bool("token_set", c.Token != ""),
	)
}

// NewTracker builds the tracker facade. Dry run needs no credentials.
func (c *GitHub) NewTracker(ctx context.Context) (interfaces.Tracker, error) {
	if c.DryRun {
		return tracker.NewDryRun(), nil
	}

	var client *gh.Client
	switch {
	case c.AppID != 0:
		if c.InstallationID == 0 || c.PrivateKeyFile == "" {
			return nil, goerr.New("GitHub App needs an installation ID and a private key file",
				goerr.V("app_id", c.AppID))
		}
		key, err := os.ReadFile(c.PrivateKeyFile)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read GitHub App private key", goerr.V("path", c.PrivateKeyFile))
		}
		client, err = githubinfra.NewAppClient(c.AppID, c.InstallationID, key)
		if err != nil {
			return nil, err
		}
	case c.Token != "":
		client = githubinfra.NewTokenClient(ctx, c.Token)
	default:
		return nil, goerr.New("either a GitHub token or a GitHub App is required unless --dry-run is set")
	}

	if c.BaseURL != "" {
		var err error
		if client, err = githubinfra.WithBaseURL(client, c.BaseURL); err != nil {
			return nil, err
		}
	}

	return githubinfra.NewTracker(client, c.DefaultRepo)
}
