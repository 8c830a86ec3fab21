package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stickerd/internal/imaging"
	"stickerd/internal/logging"
	"stickerd/internal/packstore"
	"stickerd/internal/provider"
	"stickerd/internal/samplepack"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var withSample bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pack metadata and assets over HTTP until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			store, err := packstore.New(cfg, imaging.Native{}, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if withSample {
				svc := provider.NewService(cfg, logger)
				rows, err := svc.ListPacks()
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					if _, err := samplepack.Install(runCtx, store, logger); err != nil {
						return err
					}
				}
			}

			svc := provider.NewService(cfg, logger)
			server, err := provider.NewServer(cfg, svc, store, logger)
			if err != nil {
				return err
			}
			if err := server.Start(runCtx); err != nil {
				return err
			}
			defer server.Stop()

			changes, cancel := store.Subscribe()
			defer cancel()
			go func() {
				for {
					select {
					case <-runCtx.Done():
						return
					case <-changes:
						logger.Info("pack tree changed",
							logging.Int64("generation", int64(store.Generation())))
					}
				}
			}()

			logger.Info("stickerd serving",
				logging.String("address", server.Addr()),
				logging.String("packs_root", cfg.PacksRoot()))
			<-runCtx.Done()
			logger.Info("shutting down")
			return nil
		},
	}

	cmd.Flags().BoolVar(&withSample, "sample", false, "Install the sample pack if the store is empty")
	return cmd
}
