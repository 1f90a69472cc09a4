package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/cli/config"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
	"github.com/m-mizutani/itsgate/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdExtract() *cli.Command {
	var (
		settingsCfg config.Settings
		message     string
		previous    string
		pattern     string
	)

	flags := append(settingsCfg.Flags(),
		&cli.StringFlag{
			Name:        "message",
			Aliases:     []string{"m"},
			Usage:       "File holding the commit message, - for stdin",
			Value:       "-",
			Destination: &message,
		},
		&cli.StringFlag{
			Name:        "previous",
			Usage:       "File holding the message of the previous patch set",
			Destination: &previous,
		},
		&cli.StringFlag{
			Name:        "pattern",
			Usage:       "Issue pattern, overrides the settings file",
			Destination: &pattern,
		},
	)

	return &cli.Command{
		Name:  "extract",
		Usage: "Print the issue associations of a commit message",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			settings, err := settingsCfg.Load()
			if err != nil {
				return err
			}
			if pattern != "" {
				settings.ITS.IssuePattern = pattern
			}

			x, err := usecase.NewIssueExtractor(settings.ITS.IssuePattern, settings.ITS.IssuePatternGroup)
			if err != nil {
				return err
			}

			msg, err := readMessage(message)
			if err != nil {
				return err
			}

			var prev *string
			if previous != "" {
				p, err := readMessage(previous)
				if err != nil {
					return err
				}
				prev = &p
			}

			printAssociations(c.Root().Writer, x.ExtractSince(msg, prev))
			return nil
		},
	}
}

func readMessage(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", goerr.Wrap(err, "failed to open message", goerr.V("path", path))
		}
		defer f.Close()
		r = f
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read message", goerr.V("path", path))
	}
	return string(raw), nil
}

func printAssociations(w io.Writer, assoc model.Associations) {
	if w == nil {
		w = os.Stdout
	}
	if len(assoc) == 0 {
		fmt.Fprintln(w, color.New(color.Faint).Sprint("no issues"))
		return
	}

	issue := color.New(color.FgCyan, color.Bold)
	tag := color.New(color.FgYellow)
	for _, id := range assoc.IssueIDs() {
		tags := assoc[id].Sorted()
		colored := make([]string, len(tags))
		for i, t := range tags {
			colored[i] = tag.Sprint(t)
		}
		fmt.Fprintf(w, "%s\t%s\n", issue.Sprint(id), strings.Join(colored, " "))
	}
}
