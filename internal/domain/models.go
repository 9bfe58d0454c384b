// Package domain contains the core domain types for the catalog translator.
package domain

import "strings"

// Provider identifies a translation backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderDeepL  Provider = "deepl"
)

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderOpenAI || p == ProviderDeepL
}

// Batch size bounds accepted by the settings form.
const (
	DefaultBatchSize = 5
	MinBatchSize     = 1
	MaxBatchSize     = 50
)

// TranslationItem is one product's translatable fields. ID is carried
// unchanged from input to output so results can be matched to their source.
type TranslationItem struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content"`
	Slug    string `json:"slug"`
}

// Fields returns pointers to the four text fields in a fixed order.
func (i *TranslationItem) Fields() []*string {
	return []*string{&i.Title, &i.Excerpt, &i.Content, &i.Slug}
}

// ProductFields is the writable part of a product record.
type ProductFields struct {
	Title   string
	Excerpt string
	Content string
	Slug    string
	Status  string
	Type    string
}

// Product is a source record as held by the product store.
type Product struct {
	ID int64
	ProductFields
}

// Item builds the translation payload for a product.
func (p Product) Item() TranslationItem {
	return TranslationItem{
		ID:      p.ID,
		Title:   p.Title,
		Excerpt: p.Excerpt,
		Content: p.Content,
		Slug:    p.Slug,
	}
}

// TranslationSettings is the process-wide configuration for one run.
type TranslationSettings struct {
	Provider   Provider `yaml:"provider" json:"provider" validate:"required,oneof=openai deepl"`
	APIKey     string   `yaml:"api_key" json:"-" validate:"required"`
	SourceLang string   `yaml:"source_lang" json:"source_lang" validate:"required,bcp47_language_tag"`
	TargetLang string   `yaml:"target_lang" json:"target_lang" validate:"required,bcp47_language_tag"`
	BatchSize  int      `yaml:"batch_size" json:"batch_size" validate:"min=1,max=50"`
	Glossary   string   `yaml:"glossary" json:"glossary"`
	Model      string   `yaml:"model,omitempty" json:"model,omitempty"`
}

// SameLanguage compares two language codes case-insensitively.
func SameLanguage(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// BatchPayload is the persisted task-queue payload.
type BatchPayload struct {
	ProductIDs []int64 `json:"product_ids"`
	TargetLang string  `json:"target_lang"`
}

// ItemStatus describes what happened to one requested product.
type ItemStatus string

const (
	StatusCreated         ItemStatus = "created"
	StatusCreatedUnlinked ItemStatus = "created_unlinked"
	StatusOverwritten     ItemStatus = "overwritten"
	StatusUnresolved      ItemStatus = "unresolved"
	StatusProviderFailed  ItemStatus = "provider_failed"
	StatusPersistFailed   ItemStatus = "persist_failed"
	StatusDropped         ItemStatus = "dropped"
)

// Persisted reports whether the status means translated content was written.
func (s ItemStatus) Persisted() bool {
	return s == StatusCreated || s == StatusCreatedUnlinked || s == StatusOverwritten
}

// ItemResult is the per-product outcome of a run.
type ItemResult struct {
	ProductID int64      `json:"product_id"`
	RecordID  int64      `json:"record_id,omitempty"`
	Status    ItemStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// RunSummary is returned by the orchestrator.
type RunSummary struct {
	RunID           string       `json:"run_id"`
	BatchesQueued   int          `json:"batches_queued"`
	ItemsTranslated int          `json:"items_translated"`
	Items           []ItemResult `json:"items"`
}
