// Package handler provides the entry points shared by the Lambda function,
// the HTTP API and the CLI.
package handler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pricofy/catalog-translator/internal/chunker"
	"github.com/pricofy/catalog-translator/internal/domain"
	"github.com/pricofy/catalog-translator/internal/queue"
	"github.com/pricofy/catalog-translator/internal/settings"
)

// Request asks for a set of products to be translated. Async requests are
// chunked and queued; the others run immediately.
type Request struct {
	ProductIDs []int64 `json:"product_ids"`
	TargetLang string  `json:"target_lang"`
	Async      bool    `json:"async,omitempty"`
}

// Response is the output of every entry point. Failures are reported in
// Error rather than as a returned error.
type Response struct {
	Success bool               `json:"success"`
	Queued  int                `json:"queued,omitempty"`
	Summary *domain.RunSummary `json:"summary,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Runner executes a translation run.
type Runner interface {
	Run(ctx context.Context, productIDs []int64, targetLang string, s domain.TranslationSettings) (domain.RunSummary, error)
}

// Handler wires settings, the orchestrator and the task queue together.
type Handler struct {
	settings settings.Source
	runner   Runner
	queue    queue.Enqueuer
	logger   *zap.Logger
}

// New creates a Handler. A nil queue processes batches inline.
func New(src settings.Source, runner Runner, q queue.Enqueuer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{settings: src, runner: runner, queue: q, logger: logger}
	if h.queue == nil {
		h.queue = queue.Inline(h.processInline)
	}
	return h
}

// ProcessBatch runs one persisted payload. Settings are re-read on every call.
func (h *Handler) ProcessBatch(ctx context.Context, p domain.BatchPayload) (*Response, error) {
	s, err := h.settings.Load(ctx)
	if err != nil {
		h.logger.Error("load settings failed", zap.Error(err))
		return &Response{Error: fmt.Sprintf("settings: %v", err)}, nil
	}

	summary, err := h.runner.Run(ctx, p.ProductIDs, p.TargetLang, s)
	if err != nil {
		return &Response{Summary: &summary, Error: err.Error()}, nil
	}
	return &Response{Success: true, Summary: &summary}, nil
}

// Enqueue chunks the request by the configured batch size and queues every
// chunk. Queued counts the chunks accepted before any failure.
func (h *Handler) Enqueue(ctx context.Context, req Request) (*Response, error) {
	if err := ValidateRequest(req); err != nil {
		return &Response{Error: err.Error()}, nil
	}

	s, err := h.settings.Load(ctx)
	if err != nil {
		h.logger.Error("load settings failed", zap.Error(err))
		return &Response{Error: fmt.Sprintf("settings: %v", err)}, nil
	}

	queued := 0
	for _, chunk := range chunker.Chunk(req.ProductIDs, s.BatchSize) {
		if err := h.queue.Enqueue(ctx, domain.BatchPayload{ProductIDs: chunk, TargetLang: req.TargetLang}); err != nil {
			h.logger.Error("enqueue batch failed", zap.Int64s("product_ids", chunk), zap.Error(err))
			return &Response{Queued: queued, Error: err.Error()}, nil
		}
		queued++
	}

	h.logger.Info("translation batches queued",
		zap.Int("products", len(req.ProductIDs)),
		zap.Int("batches", queued),
		zap.String("target_lang", req.TargetLang),
	)
	return &Response{Success: true, Queued: queued}, nil
}

// EnqueueProduct queues a single product.
func (h *Handler) EnqueueProduct(ctx context.Context, id int64, targetLang string) (*Response, error) {
	return h.Enqueue(ctx, Request{ProductIDs: []int64{id}, TargetLang: targetLang})
}

func (h *Handler) processInline(ctx context.Context, p domain.BatchPayload) error {
	resp, err := h.ProcessBatch(ctx, p)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	return nil
}

// ValidateRequest checks the request is valid.
func ValidateRequest(req Request) error {
	if req.ProductIDs == nil {
		return fmt.Errorf("product_ids is required")
	}
	for _, id := range req.ProductIDs {
		if id <= 0 {
			return fmt.Errorf("product_ids must be positive integers, got %d", id)
		}
	}
	if req.TargetLang != "" && !settings.ValidLanguage(req.TargetLang) {
		return fmt.Errorf("target_lang %q is not a language code", req.TargetLang)
	}
	return nil
}
