package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sortme/internal/rpc"
	"sortme/internal/watch"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Speak JSON-RPC 2.0 on stdin/stdout for host applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := a.openCategories()
			if err != nil {
				return err
			}
			defer cats.Close()

			sess, err := a.newSession(cats)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := rpc.NewServer(apiVersion, os.Stdin, os.Stdout, a.logger)
			sess.SetNotifier(srv.Notify)
			rpc.RegisterMethods(srv, rpc.EngineInfo{
				Name:       "sortme",
				Version:    engineVersion,
				APIVersion: apiVersion,
				Model:      a.cfg.Model.Name,
				Root:       sess.Root(),
			}, sess, cats)

			w, err := watch.New(sess.Root(), func() {
				sess.Index().MarkStale()
				srv.Notify("IndexStale", map[string]string{"root": sess.Root()})
			}, a.logger)
			if err != nil {
				a.logger.Warn().Err(err).Msg("serve.watch_unavailable")
			} else {
				defer w.Close()
				go w.Run(ctx)
			}

			a.logger.Info().Str("root", sess.Root()).Msg("serve.start")
			err = srv.Serve(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
