package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/cli/config"
	controller "github.com/m-mizutani/itsgate/pkg/controller/http"
	"github.com/m-mizutani/itsgate/pkg/infra/rules"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		pipelineCfg pipelineConfig
	)

	flags := append(serverCfg.Flags(), pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server receiving events",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting itsgate server",
				slog.String("addr", serverCfg.Addr),
			)

			p, err := buildPipeline(ctx, &pipelineCfg)
			if err != nil {
				return err
			}

			if pipelineCfg.rules.Watch {
				watcher, err := rules.NewWatcher(p.ruleFiles(), p.rules.Reload,
					rules.WithDebounce(pipelineCfg.rules.Debounce))
				if err != nil {
					return err
				}
				defer watcher.Close()
				watcher.Start(ctx)
			}

			server, err := controller.NewServer(
				ctx,
				p.controller,
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(serverCfg.WebhookSecret),
				controller.WithMaxInFlight(serverCfg.MaxInFlight),
				controller.WithMetricsHandler(p.metrics.Handler()),
				controller.WithRuleCount(func() int { return len(p.rules.Rules()) }),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

		wait:
			for {
				select {
				case <-ctx.Done():
					logger.Info("Context cancelled, shutting down...")
					break wait
				case sig := <-sigChan:
					if sig == syscall.SIGHUP {
						logger.Info("SIGHUP received, reloading rules")
						p.rules.Reload(ctx)
						continue
					}
					logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
					break wait
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}
			if err := server.Drain(shutdownCtx); err != nil {
				return err
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
