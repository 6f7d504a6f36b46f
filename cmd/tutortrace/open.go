package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/tutortrace/internal/open"
)

func openCmd() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "open <username>",
		Short: "Open the message store in $EDITOR at a user's sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("in") {
				cfg.StorePath = in
			}
			return open.User(cfg.StorePath, args[0])
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Message store to open")
	return cmd
}
