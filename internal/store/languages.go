package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// LanguageLinks is a MultilingualHost that keeps translation groups in the
// same SQLite database as the products. Each group maps a language to one
// product.
type LanguageLinks struct {
	db     *sql.DB
	active bool
}

// NewLanguageLinks creates the host. When active is false the orchestrator
// falls back to overwriting source records.
func NewLanguageLinks(s *SQLite, active bool) *LanguageLinks {
	return &LanguageLinks{db: s.DB(), active: active}
}

func (l *LanguageLinks) IsActive(context.Context) bool {
	return l.active
}

// LinkTranslation registers newID as the lang translation of sourceID,
// replacing any previous record for that language in the group. The source
// is (re)registered under sourceLang, so a changed source language moves it
// and unlinks whatever record held that language before.
func (l *LanguageLinks) LinkTranslation(ctx context.Context, newID, sourceID int64, sourceLang, lang string) error {
	if !l.active {
		return errNoHost
	}
	sourceLang, lang = normalizeLang(sourceLang), normalizeLang(lang)
	if lang == "" || sourceLang == "" {
		return errors.New("language is required")
	}
	if lang == sourceLang {
		return fmt.Errorf("cannot link %d as %s: that is the source language", newID, lang)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range []int64{sourceID, newID} {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM products WHERE id = ?", id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("product %d not found", id)
		}
		if err != nil {
			return err
		}
	}

	var group int64
	err = tx.QueryRowContext(ctx, "SELECT group_id FROM translation_links WHERE product_id = ?", sourceID).Scan(&group)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		group = sourceID
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO translation_links (group_id, lang, product_id) VALUES (?, ?, ?)", group, sourceLang, sourceID,
		); err != nil {
			return fmt.Errorf("register source %d: %w", sourceID, err)
		}
	case err != nil:
		return err
	default:
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM translation_links WHERE group_id = ? AND lang = ? AND product_id <> ?", group, sourceLang, sourceID,
		); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE translation_links SET lang = ? WHERE product_id = ?", sourceLang, sourceID,
		); err != nil {
			return fmt.Errorf("register source %d: %w", sourceID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM translation_links WHERE product_id = ?", newID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO translation_links (group_id, lang, product_id) VALUES (?, ?, ?)", group, lang, newID,
	); err != nil {
		return fmt.Errorf("link %d to %d: %w", newID, sourceID, err)
	}

	return tx.Commit()
}

// Translations returns lang -> product id for the group containing id.
func (l *LanguageLinks) Translations(ctx context.Context, id int64) (map[string]int64, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT lang, product_id FROM translation_links
		WHERE group_id = (SELECT group_id FROM translation_links WHERE product_id = ?)`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var lang string
		var pid int64
		if err := rows.Scan(&lang, &pid); err != nil {
			return nil, err
		}
		out[lang] = pid
	}
	return out, rows.Err()
}

func normalizeLang(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
