// Package persist decides how a translated item is written back: as a new
// record linked to its source, or over the source itself.
package persist

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/pricofy/catalog-translator/internal/domain"
	"github.com/pricofy/catalog-translator/internal/store"
)

// State is the persistence strategy chosen for one item.
type State int

const (
	// StateLinkedCopy creates a new record and links it to the source.
	StateLinkedCopy State = iota
	// StateOverwrite replaces the source record's text in place. Without a
	// multilingual host the source language content is lost.
	StateOverwrite
)

func (s State) String() string {
	switch s {
	case StateLinkedCopy:
		return "linked_copy"
	case StateOverwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Select picks the strategy. Only host presence and language equality matter.
func Select(hostActive bool, targetLang, sourceLang string) State {
	if hostActive && !domain.SameLanguage(targetLang, sourceLang) {
		return StateLinkedCopy
	}
	return StateOverwrite
}

// Outcome describes what Persist wrote.
type Outcome struct {
	State    State
	RecordID int64
	// LinkErr is set when the new record exists but could not be linked.
	LinkErr error
}

// Status maps the outcome to a per-item status.
func (o Outcome) Status() domain.ItemStatus {
	switch {
	case o.State == StateOverwrite:
		return domain.StatusOverwritten
	case o.LinkErr != nil:
		return domain.StatusCreatedUnlinked
	default:
		return domain.StatusCreated
	}
}

// Selector writes translated items through the store collaborators.
type Selector struct {
	store  store.ProductStore
	host   store.MultilingualHost
	logger *zap.Logger
}

// NewSelector creates a Selector. A nil host behaves as an inactive one.
func NewSelector(ps store.ProductStore, host store.MultilingualHost, logger *zap.Logger) *Selector {
	if host == nil {
		host = store.NoHost{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{store: ps, host: host, logger: logger}
}

// Persist writes one item. The strategy is evaluated per item.
func (s *Selector) Persist(ctx context.Context, item domain.TranslationItem, source domain.Product, targetLang, sourceLang string) (Outcome, error) {
	state := Select(s.host.IsActive(ctx), targetLang, sourceLang)

	if state == StateOverwrite {
		if err := s.store.Overwrite(ctx, source.ID, overwriteFields(item)); err != nil {
			return Outcome{State: state}, err
		}
		s.logger.Warn("overwrote source product with translation",
			zap.Int64("product_id", source.ID), zap.String("target_lang", targetLang))
		return Outcome{State: state, RecordID: source.ID}, nil
	}

	newID, err := s.store.PersistNew(ctx, newFields(item, source))
	if err != nil {
		return Outcome{State: state}, err
	}
	out := Outcome{State: state, RecordID: newID}

	if err := s.store.CopyMetadata(ctx, source.ID, newID); err != nil {
		// The translated record exists; missing metadata is recorded, not fatal.
		s.logger.Error("copy metadata failed", zap.Int64("product_id", source.ID), zap.Int64("record_id", newID), zap.Error(err))
	}

	if err := s.host.LinkTranslation(ctx, newID, source.ID, sourceLang, targetLang); err != nil {
		linkErr := &domain.LinkingError{RecordID: newID, SourceID: source.ID, Lang: targetLang, Err: err}
		out.LinkErr = linkErr
		s.logger.Warn("language link failed, keeping unlinked translation",
			zap.Int64("product_id", source.ID), zap.Int64("record_id", newID), zap.Error(err))
		if metaErr := s.markUnlinked(ctx, newID, source.ID, targetLang, err); metaErr != nil {
			return out, errors.Join(linkErr, metaErr)
		}
	}

	return out, nil
}

func (s *Selector) markUnlinked(ctx context.Context, newID, sourceID int64, lang string, cause error) error {
	meta := [][2]string{
		{store.MetaTranslationError, cause.Error()},
		{store.MetaTranslationLanguage, lang},
		{store.MetaTranslationSource, strconv.FormatInt(sourceID, 10)},
	}
	for _, kv := range meta {
		if err := s.store.SetMeta(ctx, newID, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

func newFields(item domain.TranslationItem, source domain.Product) domain.ProductFields {
	slug := item.Slug
	if slug == "" {
		slug = item.Title
	}
	return domain.ProductFields{
		Title:   StripTags(item.Title),
		Excerpt: item.Excerpt,
		Content: item.Content,
		Slug:    Slugify(slug),
		Status:  source.Status,
		Type:    source.Type,
	}
}

func overwriteFields(item domain.TranslationItem) domain.ProductFields {
	f := domain.ProductFields{
		Title:   StripTags(item.Title),
		Excerpt: item.Excerpt,
		Content: item.Content,
	}
	if item.Slug != "" {
		f.Slug = Slugify(item.Slug)
	}
	return f
}
