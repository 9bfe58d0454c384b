// Package orchestrator runs a bulk translation: it chunks product ids, sends
// each chunk to the provider, enforces the glossary and persists the results.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pricofy/catalog-translator/internal/chunker"
	"github.com/pricofy/catalog-translator/internal/domain"
	"github.com/pricofy/catalog-translator/internal/glossary"
	"github.com/pricofy/catalog-translator/internal/persist"
	"github.com/pricofy/catalog-translator/internal/provider"
	"github.com/pricofy/catalog-translator/internal/settings"
	"github.com/pricofy/catalog-translator/internal/store"
)

// Persister writes one translated item back to the store.
type Persister interface {
	Persist(ctx context.Context, item domain.TranslationItem, source domain.Product, targetLang, sourceLang string) (persist.Outcome, error)
}

// TranslatorFactory builds the provider for a run's settings.
type TranslatorFactory func(domain.TranslationSettings) (provider.Translator, error)

// Orchestrator runs translation batches sequentially.
type Orchestrator struct {
	store         store.ProductStore
	persister     Persister
	newTranslator TranslatorFactory
	providerOpts  provider.Options
	logger        *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTranslatorFactory replaces provider.New.
func WithTranslatorFactory(f TranslatorFactory) Option {
	return func(o *Orchestrator) { o.newTranslator = f }
}

// WithProviderOptions passes transport options to provider.New.
func WithProviderOptions(opts provider.Options) Option {
	return func(o *Orchestrator) { o.providerOpts = opts }
}

// WithPersister replaces the default persistence selector.
func WithPersister(p Persister) Option {
	return func(o *Orchestrator) { o.persister = p }
}

// New creates an Orchestrator over the product store and multilingual host.
func New(ps store.ProductStore, host store.MultilingualHost, opts ...Option) *Orchestrator {
	o := &Orchestrator{store: ps, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.persister == nil {
		o.persister = persist.NewSelector(ps, host, o.logger)
	}
	if o.newTranslator == nil {
		o.newTranslator = func(s domain.TranslationSettings) (provider.Translator, error) {
			popts := o.providerOpts
			if popts.Logger == nil {
				popts.Logger = o.logger
			}
			return provider.New(s, popts)
		}
	}
	return o
}

// Run translates productIDs into targetLang. A blank targetLang uses the
// settings target. Invalid settings fail before any batch is sent. A failing
// batch is logged and skipped; the run continues with the next one. The
// returned summary is valid even when err is a context error.
func (o *Orchestrator) Run(ctx context.Context, productIDs []int64, targetLang string, s domain.TranslationSettings) (domain.RunSummary, error) {
	summary := domain.RunSummary{RunID: uuid.NewString(), Items: []domain.ItemResult{}}
	logger := o.logger.With(zap.String("run_id", summary.RunID))

	if targetLang != "" {
		s.TargetLang = targetLang
	}
	if err := settings.Validate(s); err != nil {
		logger.Error("invalid settings", zap.Error(err))
		return summary, err
	}

	translator, err := o.newTranslator(s)
	if err != nil {
		return summary, err
	}
	g := glossary.Parse(s.Glossary)

	logger.Info("translation run started",
		zap.String("provider", string(translator.Name())),
		zap.Int("products", len(productIDs)),
		zap.Int("batch_size", s.BatchSize),
		zap.String("source_lang", s.SourceLang),
		zap.String("target_lang", s.TargetLang),
	)

	for i, chunk := range chunker.Chunk(productIDs, s.BatchSize) {
		if err := ctx.Err(); err != nil {
			logger.Warn("translation run cancelled", zap.Int("batch", i), zap.Error(err))
			return summary, err
		}
		o.runBatch(ctx, logger.With(zap.Int("batch", i)), &summary, chunk, translator, g, s)
	}

	logger.Info("translation run finished",
		zap.Int("batches", summary.BatchesQueued),
		zap.Int("items_translated", summary.ItemsTranslated),
	)
	return summary, nil
}

func (o *Orchestrator) runBatch(
	ctx context.Context,
	logger *zap.Logger,
	summary *domain.RunSummary,
	ids []int64,
	translator provider.Translator,
	g glossary.Glossary,
	s domain.TranslationSettings,
) {
	sources := make(map[int64]domain.Product, len(ids))
	items := make([]domain.TranslationItem, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			summary.Items = append(summary.Items, domain.ItemResult{ProductID: id, Status: domain.StatusDropped, Error: "duplicate id"})
			continue
		}
		seen[id] = true

		p, ok, err := o.store.Resolve(ctx, id)
		if err != nil {
			logger.Error("resolve product failed", zap.Int64("product_id", id), zap.Error(err))
			summary.Items = append(summary.Items, domain.ItemResult{ProductID: id, Status: domain.StatusUnresolved, Error: err.Error()})
			continue
		}
		if !ok {
			logger.Debug("product not found", zap.Int64("product_id", id))
			summary.Items = append(summary.Items, domain.ItemResult{ProductID: id, Status: domain.StatusUnresolved})
			continue
		}
		sources[id] = p
		items = append(items, p.Item())
	}
	if len(items) == 0 {
		return
	}

	summary.BatchesQueued++
	translated, err := translator.Translate(ctx, items, provider.Request{
		SourceLang: s.SourceLang,
		TargetLang: s.TargetLang,
		Glossary:   g,
	})
	if err != nil {
		logger.Error("batch translation failed", batchErrorFields(items, err)...)
		for _, it := range items {
			summary.Items = append(summary.Items, domain.ItemResult{ProductID: it.ID, Status: domain.StatusProviderFailed, Error: err.Error()})
		}
		return
	}
	translated = glossary.Apply(translated, g)

	done := make(map[int64]bool, len(translated))
	for _, item := range translated {
		src, ok := sources[item.ID]
		if !ok || item.ID == 0 || done[item.ID] {
			logger.Warn("dropping translated item", zap.Int64("product_id", item.ID))
			summary.Items = append(summary.Items, domain.ItemResult{ProductID: item.ID, Status: domain.StatusDropped, Error: "id not in batch"})
			continue
		}
		done[item.ID] = true

		out, err := o.persister.Persist(ctx, item, src, s.TargetLang, s.SourceLang)
		if err != nil {
			logger.Error("persist translation failed", zap.Int64("product_id", item.ID), zap.Error(err))
			summary.Items = append(summary.Items, domain.ItemResult{ProductID: item.ID, RecordID: out.RecordID, Status: domain.StatusPersistFailed, Error: err.Error()})
			continue
		}

		res := domain.ItemResult{ProductID: item.ID, RecordID: out.RecordID, Status: out.Status()}
		if out.LinkErr != nil {
			res.Error = out.LinkErr.Error()
		}
		summary.Items = append(summary.Items, res)
		summary.ItemsTranslated++
	}

	for _, it := range items {
		if !done[it.ID] {
			logger.Warn("provider omitted item", zap.Int64("product_id", it.ID))
			summary.Items = append(summary.Items, domain.ItemResult{ProductID: it.ID, Status: domain.StatusDropped, Error: "missing from provider response"})
		}
	}
}

func batchErrorFields(items []domain.TranslationItem, err error) []zap.Field {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	fields := []zap.Field{zap.Int64s("product_ids", ids), zap.Error(err)}

	var te *domain.TransportError
	if errors.As(err, &te) {
		fields = append(fields,
			zap.Int("http_status", te.Status),
			zap.String("body", domain.Truncate(te.Body, domain.MaxBodySnippet)),
		)
	}
	var se *domain.ResponseShapeError
	if errors.As(err, &se) {
		fields = append(fields, zap.String("shape", se.Reason))
	}
	return fields
}

// String renders a one-line summary for CLI output.
func String(s domain.RunSummary) string {
	return fmt.Sprintf("run %s: %d batches, %d items translated", s.RunID, s.BatchesQueued, s.ItemsTranslated)
}
