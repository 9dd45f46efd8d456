// ABOUTME: Serve command that runs the REST API.
// ABOUTME: Stops gracefully on interrupt.

package main

import (
	"github.com/harper/notes/internal/httpapi"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Long:  `Serve notes over HTTP under /api/notes until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := a.cfg.HTTP.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}

			srv := httpapi.New(a.svc,
				httpapi.WithLogger(a.logger.With().Str("component", "http").Logger()),
				httpapi.WithTimeouts(a.cfg.HTTP.ReadTimeout, a.cfg.HTTP.WriteTimeout),
			)
			return srv.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config, 127.0.0.1:8080)")
	return cmd
}
