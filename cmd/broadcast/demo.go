package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/broadcast/broadcast"
	"github.com/tailored-agentic-units/broadcast/observability"
)

func newDemoCommand(root *rootOptions) *cobra.Command {
	var (
		message       string
		skipRegister  []string
		skipSubscribe []string
		showEvents    bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Post one message to an in-process topic and print every subscriber's report",
		Example: `  broadcast demo
  broadcast demo --message X --skip-subscribe first`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if message != "" {
				cfg.Message = message
			}
			if err := applySkips(cfg, skipRegister, skipSubscribe); err != nil {
				return err
			}

			logger := root.logger()
			rec := observability.NewRecorder()
			rt, err := broadcast.New(cfg,
				broadcast.WithLogger(logger),
				broadcast.WithOutput(cmd.OutOrStdout()),
				broadcast.WithObserver(observability.NewMultiObserver(
					rec,
					observability.NewSlogObserver(logger),
				)),
			)
			if err != nil {
				return fmt.Errorf("failed to create runtime: %w", err)
			}

			result, runErr := rt.Run(cmd.Context())
			if result != nil {
				for _, d := range result.Deliveries {
					if !d.Notified {
						fmt.Fprintln(cmd.OutOrStdout(), d)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nNotified: %d of %d\n", result.Notified(), len(result.Deliveries))
			}

			if showEvents {
				fmt.Fprintln(cmd.OutOrStdout(), "\nEvents:")
				for _, e := range rec.Events() {
					fmt.Fprintf(cmd.OutOrStdout(), "  %-22s %s\n", e.Type, e.Source)
				}
			}

			return runErr
		},
	}

	cmd.Flags().StringVar(&message, "message", "", "Message to post (overrides config)")
	cmd.Flags().StringSliceVar(&skipRegister, "skip-register", nil, "Subscribers to leave out of the topic registry")
	cmd.Flags().StringSliceVar(&skipSubscribe, "skip-subscribe", nil, "Subscribers to leave without a subject reference")
	cmd.Flags().BoolVar(&showEvents, "events", false, "Print the topic events recorded during the run")

	return cmd
}

func applySkips(cfg *broadcast.Config, skipRegister, skipSubscribe []string) error {
	known := make([]string, len(cfg.Subscribers))
	for i, sc := range cfg.Subscribers {
		known[i] = sc.Name
	}
	for _, name := range slices.Concat(skipRegister, skipSubscribe) {
		if !slices.Contains(known, name) {
			return fmt.Errorf("unknown subscriber %q (configured: %v)", name, known)
		}
	}

	for i := range cfg.Subscribers {
		sc := &cfg.Subscribers[i]
		if slices.Contains(skipRegister, sc.Name) {
			sc.SkipRegister = true
		}
		if slices.Contains(skipSubscribe, sc.Name) {
			sc.SkipSubscribe = true
		}
	}
	return nil
}
