// Package store holds the product-store and multilingual-host collaborators
// and their SQLite implementation.
package store

import (
	"context"

	"github.com/pricofy/catalog-translator/internal/domain"
)

// ProductStore reads and writes product records.
type ProductStore interface {
	// Resolve returns the product, or ok == false when it does not exist.
	Resolve(ctx context.Context, id int64) (p domain.Product, ok bool, err error)
	PersistNew(ctx context.Context, fields domain.ProductFields) (int64, error)
	Overwrite(ctx context.Context, id int64, fields domain.ProductFields) error
	CopyMetadata(ctx context.Context, sourceID, destID int64) error
	SetMeta(ctx context.Context, id int64, key, value string) error
}

// MultilingualHost associates translated records with their source.
type MultilingualHost interface {
	IsActive(ctx context.Context) bool
	// LinkTranslation groups newID (in lang) with sourceID (in sourceLang).
	LinkTranslation(ctx context.Context, newID, sourceID int64, sourceLang, lang string) error
}

// Meta keys always copied to a translated record.
var CoreMetaKeys = []string{
	"_regular_price", "_sale_price", "_price", "_sku", "_stock_status",
	"_downloadable", "_virtual", "_weight", "_length", "_width", "_height",
}

// Meta keys never copied to a translated record.
var SkippedMetaKeys = []string{
	"_wp_old_slug", "_edit_lock", "_edit_last", "_thumbnail_id",
}

// Taxonomies whose terms follow a product into its translations.
var CopiedTaxonomies = []string{"product_cat", "product_tag"}

// Meta keys set on a translated record whose language link failed, so the
// orphan can be traced back to its source.
const (
	MetaTranslationError    = "_translation_error"
	MetaTranslationLanguage = "_translation_language"
	MetaTranslationSource   = "_translation_source"
)

// NoHost is a MultilingualHost that is never active.
type NoHost struct{}

func (NoHost) IsActive(context.Context) bool { return false }

func (NoHost) LinkTranslation(context.Context, int64, int64, string, string) error {
	return errNoHost
}
