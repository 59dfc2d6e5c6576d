package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/broadcast/rpc"
)

func newPostCommand(root *rootOptions) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "post <message>",
		Short: "Post a message to a running topic service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := root.client(address)
			if err != nil {
				return err
			}
			if err := client.PostMessage(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("post failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "posted")
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Service address (overrides config)")

	return cmd
}

func newGetCommand(root *rootOptions) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Pull the current message from a running topic service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := root.client(address)
			if err != nil {
				return err
			}

			msg, ok, err := client.GetUpdate(cmd.Context())
			if err != nil {
				return fmt.Errorf("get failed: %w", err)
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no new message")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Service address (overrides config)")

	return cmd
}

func (o *rootOptions) client(address string) (*rpc.Client, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if address != "" {
		cfg.Server.Address = address
	}
	return rpc.NewClient(nil, cfg.Server.BaseURL(), &cfg.Server), nil
}
