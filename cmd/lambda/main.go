// Package main is the entry point for the catalog translator Lambda function.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/pricofy/catalog-translator/internal/config"
	"github.com/pricofy/catalog-translator/internal/domain"
	"github.com/pricofy/catalog-translator/internal/handler"
	"github.com/pricofy/catalog-translator/internal/logging"
	"github.com/pricofy/catalog-translator/internal/orchestrator"
	"github.com/pricofy/catalog-translator/internal/queue"
	"github.com/pricofy/catalog-translator/internal/settings"
	"github.com/pricofy/catalog-translator/internal/store"
)

type app struct {
	handler *handler.Handler
	warmer  invoker
	logger  *zap.Logger
}

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	lambda.Start(a.handleRequest)
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	db, err := store.OpenSQLite(cfg.ProductsDB)
	if err != nil {
		return nil, err
	}
	src := settings.NewFileSource(cfg.SettingsPath)

	host := store.NewLanguageLinks(db, cfg.MultilingualEnabled)
	orch := orchestrator.New(db, host, orchestrator.WithLogger(logger))

	var q queue.Enqueuer
	if cfg.QueueFunction != "" {
		lq, err := queue.NewLambda(ctx, cfg.QueueFunction)
		if err != nil {
			return nil, err
		}
		q = lq
	}

	a := &app{handler: handler.New(src, orch, q, logger), logger: logger}
	if self := os.Getenv("AWS_LAMBDA_FUNCTION_NAME"); self != "" {
		if w, err := queue.NewLambda(ctx, self); err == nil {
			a.warmer = w
		}
	}
	return a, nil
}

func (a *app) handleRequest(ctx context.Context, event json.RawMessage) (any, error) {
	// Warmup detection (MUST be first - before any other processing)
	if warmup, ok := IsWarmupEvent(event); ok {
		return HandleWarmup(ctx, warmup, a.warmer)
	}

	var req handler.Request
	if err := json.Unmarshal(event, &req); err != nil {
		a.logger.Error("unrecognised event", zap.Error(err))
		return nil, err
	}

	if req.Async {
		return a.handler.Enqueue(ctx, req)
	}
	return a.handler.ProcessBatch(ctx, domain.BatchPayload{ProductIDs: req.ProductIDs, TargetLang: req.TargetLang})
}
