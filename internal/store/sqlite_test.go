package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricofy/catalog-translator/internal/domain"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedProduct(t *testing.T, s *SQLite, title string) int64 {
	t.Helper()
	id, err := s.PersistNew(t.Context(), domain.ProductFields{
		Title:   title,
		Excerpt: title + " excerpt",
		Content: "<p>" + title + "</p>",
		Slug:    "slug-" + title,
		Status:  "draft",
	})
	require.NoError(t, err)
	return id
}

func TestSQLite_ResolveAndPersist(t *testing.T) {
	s := openTestStore(t)
	id := seedProduct(t, s, "shoe")

	p, ok, err := s.Resolve(t.Context(), id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "shoe", p.Title)
	assert.Equal(t, "draft", p.Status)
	assert.Equal(t, "product", p.Type)
	assert.Equal(t, domain.TranslationItem{ID: id, Title: "shoe", Excerpt: "shoe excerpt", Content: "<p>shoe</p>", Slug: "slug-shoe"}, p.Item())

	_, ok, err = s.Resolve(t.Context(), 9999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_Overwrite(t *testing.T) {
	s := openTestStore(t)
	id := seedProduct(t, s, "shoe")

	require.NoError(t, s.Overwrite(t.Context(), id, domain.ProductFields{Title: "chaussure", Excerpt: "e", Content: "c"}))
	p, _, err := s.Resolve(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "chaussure", p.Title)
	assert.Equal(t, "slug-shoe", p.Slug, "empty slug leaves the old one")
	assert.Equal(t, "draft", p.Status)

	require.NoError(t, s.Overwrite(t.Context(), id, domain.ProductFields{Title: "chaussure", Slug: "chaussure"}))
	p, _, _ = s.Resolve(t.Context(), id)
	assert.Equal(t, "chaussure", p.Slug)

	assert.Error(t, s.Overwrite(t.Context(), 4242, domain.ProductFields{Title: "x"}))
}

func TestSQLite_CopyMetadata(t *testing.T) {
	ctx := t.Context()
	s := openTestStore(t)
	src := seedProduct(t, s, "src")
	dst := seedProduct(t, s, "dst")

	require.NoError(t, s.addMeta(ctx, src, "_price", "19.90"))
	require.NoError(t, s.addMeta(ctx, src, "_sku", "SKU-1"))
	require.NoError(t, s.addMeta(ctx, src, "_sale_price", ""))
	require.NoError(t, s.addMeta(ctx, src, "_edit_lock", "123:1"))
	require.NoError(t, s.addMeta(ctx, src, "_thumbnail_id", "77"))
	require.NoError(t, s.addMeta(ctx, src, "color", "red"))
	require.NoError(t, s.addMeta(ctx, src, "color", "blue"))
	require.NoError(t, s.addMeta(ctx, dst, "_price", "0"))
	require.NoError(t, s.setTerms(ctx, src, "product_cat", "shoes", "sale"))
	require.NoError(t, s.setTerms(ctx, src, "product_tag", "leather"))
	require.NoError(t, s.setTerms(ctx, src, "pa_size", "42"))

	require.NoError(t, s.CopyMetadata(ctx, src, dst))

	meta, err := s.meta(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"19.90"}, meta["_price"])
	assert.Equal(t, []string{"SKU-1"}, meta["_sku"])
	assert.Equal(t, []string{"red", "blue"}, meta["color"])
	assert.NotContains(t, meta, "_sale_price")
	assert.NotContains(t, meta, "_edit_lock")
	assert.NotContains(t, meta, "_thumbnail_id")

	cats, err := s.terms(ctx, dst, "product_cat")
	require.NoError(t, err)
	assert.Equal(t, []string{"sale", "shoes"}, cats)
	tags, _ := s.terms(ctx, dst, "product_tag")
	assert.Equal(t, []string{"leather"}, tags)
	sizes, _ := s.terms(ctx, dst, "pa_size")
	assert.Empty(t, sizes)
}

func TestSQLite_SetMeta(t *testing.T) {
	ctx := t.Context()
	s := openTestStore(t)
	id := seedProduct(t, s, "x")

	require.NoError(t, s.addMeta(ctx, id, MetaTranslationError, "old"))
	require.NoError(t, s.addMeta(ctx, id, MetaTranslationError, "older"))
	require.NoError(t, s.SetMeta(ctx, id, MetaTranslationError, "new"))

	meta, err := s.meta(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, meta[MetaTranslationError])
}

func TestLanguageLinks(t *testing.T) {
	ctx := t.Context()
	s := openTestStore(t)
	src := seedProduct(t, s, "src")
	fr := seedProduct(t, s, "fr")
	de := seedProduct(t, s, "de")
	fr2 := seedProduct(t, s, "fr2")

	host := NewLanguageLinks(s, true)
	assert.True(t, host.IsActive(ctx))

	require.NoError(t, host.LinkTranslation(ctx, fr, src, "EN", "fr"))
	require.NoError(t, host.LinkTranslation(ctx, de, src, "en", "DE"))

	links, err := host.Translations(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"en": src, "fr": fr, "de": de}, links)

	// A newer French translation replaces the old one.
	require.NoError(t, host.LinkTranslation(ctx, fr2, src, "en", "fr"))
	links, _ = host.Translations(ctx, de)
	assert.Equal(t, map[string]int64{"en": src, "fr": fr2, "de": de}, links)

	assert.Error(t, host.LinkTranslation(ctx, fr, 4242, "en", "fr"), "unknown source")
	assert.Error(t, host.LinkTranslation(ctx, fr, src, "en", "EN"), "cannot replace the source language")
	assert.Error(t, host.LinkTranslation(ctx, fr, src, "", "fr"), "source language required")
}

func TestLanguageLinks_SourceLanguageChanges(t *testing.T) {
	ctx := t.Context()
	s := openTestStore(t)
	src := seedProduct(t, s, "src")
	fr := seedProduct(t, s, "fr")
	en := seedProduct(t, s, "en")

	host := NewLanguageLinks(s, true)
	require.NoError(t, host.LinkTranslation(ctx, fr, src, "en", "fr"))

	// The source is now written in German and translated to English.
	require.NoError(t, host.LinkTranslation(ctx, en, src, "de", "en"))

	links, err := host.Translations(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"de": src, "fr": fr, "en": en}, links)
}

func TestLanguageLinks_SourceLanguageTakesOverSlot(t *testing.T) {
	ctx := t.Context()
	s := openTestStore(t)
	src := seedProduct(t, s, "src")
	de := seedProduct(t, s, "de")
	fr := seedProduct(t, s, "fr")

	host := NewLanguageLinks(s, true)
	require.NoError(t, host.LinkTranslation(ctx, de, src, "en", "de"))
	require.NoError(t, host.LinkTranslation(ctx, fr, src, "de", "fr"))

	links, err := host.Translations(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"de": src, "fr": fr}, links)

	orphan, err := host.Translations(ctx, de)
	require.NoError(t, err)
	assert.Empty(t, orphan)
}

func TestLanguageLinks_Inactive(t *testing.T) {
	s := openTestStore(t)
	host := NewLanguageLinks(s, false)
	assert.False(t, host.IsActive(t.Context()))
	assert.Error(t, host.LinkTranslation(t.Context(), 1, 2, "en", "fr"))

	assert.False(t, NoHost{}.IsActive(t.Context()))
	assert.Error(t, NoHost{}.LinkTranslation(t.Context(), 1, 2, "en", "fr"))
}
