package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/config"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/convert"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/server"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload form and the conversion API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, conv, logger, err := a.setup(cmd.Context(), func(c *config.Config) {
				if cmd.Flags().Changed("addr") {
					c.Server.Addr = addr
				}
			})
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			mode, err := convert.ParseMode(cfg.Extraction.Mode)
			if err != nil {
				return err
			}
			srv := server.New(conv, server.Options{
				Addr:            cfg.Server.Addr,
				MaxUploadBytes:  cfg.Server.MaxUploadMB << 20,
				RateLimit:       cfg.Server.RateLimit,
				RateBurst:       cfg.Server.RateBurst,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				DefaultMode:     mode,
			}, logger.Named("server"))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
