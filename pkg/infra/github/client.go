package github

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v60/github"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/oauth2"
)

// NewTokenClient creates a GitHub API client authenticated with a personal or
// installation token. An empty token yields an unauthenticated client.
func NewTokenClient(ctx context.Context, token string) *github.Client {
	var tc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		tc = oauth2.NewClient(ctx, ts)
	}
	return github.NewClient(tc)
}

// NewAppClient creates a GitHub API client authenticated as a GitHub App installation
func NewAppClient(appID, installationID int64, privateKey []byte) (*github.Client, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport",
			goerr.V("app_id", appID),
			goerr.V("installation_id", installationID),
		)
	}
	return github.NewClient(&http.Client{Transport: itr}), nil
}

// WithBaseURL points a client at another API endpoint, e.g. GitHub Enterprise
func WithBaseURL(client *github.Client, baseURL string) (*github.Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid GitHub API base URL", goerr.V("url", baseURL))
	}
	client.BaseURL = u
	return client, nil
}
