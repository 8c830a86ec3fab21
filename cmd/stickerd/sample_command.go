package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stickerd/internal/config"
	"stickerd/internal/packstore"
	"stickerd/internal/samplepack"
)

func newSampleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Install a small demonstration pack",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *packstore.Store, cfg *config.Config) error {
				identifier, err := samplepack.Install(cmd.Context(), store, nil)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), identifier)
				return nil
			})
		},
	}
}
