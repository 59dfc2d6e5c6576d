package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/broadcast/broadcast"
	"github.com/tailored-agentic-units/broadcast/observability"
	"github.com/tailored-agentic-units/broadcast/rpc"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the configured topic and subscribers over the Connect topic service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}

			logger := root.logger()
			rt, err := broadcast.New(cfg,
				broadcast.WithLogger(logger),
				broadcast.WithOutput(cmd.OutOrStdout()),
				broadcast.WithObserver(observability.NewSlogObserver(logger)),
			)
			if err != nil {
				return fmt.Errorf("failed to create runtime: %w", err)
			}

			srv := rpc.NewServer(rt.Topic(), &cfg.Server, rpc.WithLogger(logger))
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Listen address (overrides config)")

	return cmd
}
