package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricofy/catalog-translator/internal/api"
	"github.com/pricofy/catalog-translator/internal/handler"
	"github.com/pricofy/catalog-translator/internal/queue"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP trigger API",
		Long: `serve exposes POST /v1/translate and POST /v1/products/{id}/translate.
Batches are queued on the Lambda function named by TRANSLATION_QUEUE_FUNCTION;
without one they are processed inline before the request returns.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := opts.build()
			if err != nil {
				return err
			}
			defer c.Close()

			var q queue.Enqueuer
			if opts.cfg.QueueFunction != "" {
				lq, err := queue.NewLambda(ctx, opts.cfg.QueueFunction)
				if err != nil {
					return err
				}
				q = lq
			} else {
				c.logger.Warn("no queue function configured, batches run inline")
			}

			h := handler.New(c.settings, c.orch, q, c.logger)
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(h, opts.cfg.APIToken, c.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.logger.Info("listening", zap.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			c.logger.Info("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
