package main

import (
	"context"
	"fmt"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/gifchat-server/internal/app"
	"github.com/vovakirdan/gifchat-server/internal/config"
	"github.com/vovakirdan/gifchat-server/internal/log"
)

const releaseVersion = "0.1.0"

func newCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:           "gifchat-server",
		Short:         "Anonymous real-time group chat with gifs, whispers and self-deleting rooms.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, _ []string) error {
			bootLogger := log.New(overrides.LogLevel, "")

			cfg, resolvedPath, err := config.Load(bootLogger, configPath)
			if err != nil {
				return err
			}
			cfg.UpdateFrom(overrides)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger := log.New(cfg.LogLevel, cfg.Environment)
			logger.Info().Str("config", resolvedPath).Str("environment", cfg.Environment).Msg("config loaded")

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			runErr := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", cfg.Addr).Msg("starting gifchat server")
				runErr <- application.Run(ctx)
			}()

			// Run waits for the http server to drain, so the shutdown timeout
			// gets a little headroom on top of the server's own.
			wait := gfshutdown.GracefulShutdown(
				context.Background(),
				cfg.ShutdownTimeout*2,
				map[string]gfshutdown.Operation{
					"gifchat-server": func(ctx context.Context) error {
						logger.Info().Msg("graceful shutdown initiated")
						cancel()
						select {
						case err := <-runErr:
							return err
						case <-ctx.Done():
							return ctx.Err()
						}
					},
				},
			)

			select {
			case err := <-runErr:
				if err != nil {
					return fmt.Errorf("server exited with error: %w", err)
				}
				return nil
			case code := <-wait:
				logger.Info().Int("exit_code", code).Msg("server stopped")
				if code != 0 {
					return fmt.Errorf("shutdown finished with exit code %d", code)
				}
				return nil
			}
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&configPath, "config", "c", "", "path to config file (env: GIFCHAT_CONFIG_DEFAULT_PATH for the directory)")
	fs.StringVar(&overrides.Addr, "addr", "", "HTTP listen address, overrides config (env: GIFCHAT_ADDR)")
	fs.StringVar(&overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error (env: GIFCHAT_LOG_LEVEL)")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("gifchat-server v{{.Version}}\n")

	return cmd
}

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
