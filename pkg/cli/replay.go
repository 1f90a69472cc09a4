package cli

import (
	"context"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/controller/stream"
	"github.com/urfave/cli/v3"
)

func cmdReplay() *cli.Command {
	var (
		pipelineCfg pipelineConfig
		input       string
		strict      bool
	)

	flags := append(pipelineCfg.Flags(),
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "File of newline-delimited events, - for stdin",
			Value:       "-",
			Destination: &input,
		},
		&cli.BoolFlag{
			Name:        "strict",
			Usage:       "Exit with an error when any event failed",
			Destination: &strict,
		},
	)

	return &cli.Command{
		Name:  "replay",
		Usage: "Process recorded stream events",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			var r io.Reader = os.Stdin
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return goerr.Wrap(err, "failed to open input", goerr.V("path", input))
				}
				defer f.Close()
				r = f
			}

			p, err := buildPipeline(ctx, &pipelineCfg)
			if err != nil {
				return err
			}

			result, err := stream.NewProcessor(p.controller).Run(ctx, r)
			if err != nil {
				return err
			}
			if strict && result.Failed > 0 {
				return goerr.New("some events failed", goerr.V("failed", result.Failed))
			}
			return nil
		},
	}
}
