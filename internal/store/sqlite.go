package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pricofy/catalog-translator/internal/domain"
)

var errNoHost = errors.New("no multilingual host is active")

// SQLite is a ProductStore backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at path. Use ":memory:" for a
// throwaway store.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return s, nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// DB exposes the handle for collaborators sharing the same file.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		slug TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'publish',
		type TEXT NOT NULL DEFAULT 'product',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS product_meta (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		meta_key TEXT NOT NULL,
		meta_value TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_product_meta_key ON product_meta(product_id, meta_key);

	CREATE TABLE IF NOT EXISTS product_terms (
		product_id INTEGER NOT NULL,
		taxonomy TEXT NOT NULL,
		slug TEXT NOT NULL,
		PRIMARY KEY (product_id, taxonomy, slug),
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS translation_links (
		group_id INTEGER NOT NULL,
		lang TEXT NOT NULL,
		product_id INTEGER NOT NULL UNIQUE,
		PRIMARY KEY (group_id, lang),
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Resolve loads a product by id.
func (s *SQLite) Resolve(ctx context.Context, id int64) (domain.Product, bool, error) {
	p := domain.Product{ID: id}
	err := s.db.QueryRowContext(ctx,
		"SELECT title, excerpt, content, slug, status, type FROM products WHERE id = ?", id,
	).Scan(&p.Title, &p.Excerpt, &p.Content, &p.Slug, &p.Status, &p.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, false, nil
	}
	if err != nil {
		return domain.Product{}, false, fmt.Errorf("resolve product %d: %w", id, err)
	}
	return p, true, nil
}

// PersistNew inserts a product and returns its id.
func (s *SQLite) PersistNew(ctx context.Context, f domain.ProductFields) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO products (title, excerpt, content, slug, status, type) VALUES (?, ?, ?, ?, ?, ?)",
		f.Title, f.Excerpt, f.Content, f.Slug, defaultString(f.Status, "publish"), defaultString(f.Type, "product"),
	)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return res.LastInsertId()
}

// Overwrite replaces title, excerpt and content. Slug is only replaced when
// non-empty; status and type are left alone.
func (s *SQLite) Overwrite(ctx context.Context, id int64, f domain.ProductFields) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET title = ?, excerpt = ?, content = ?,
			slug = CASE WHEN ? <> '' THEN ? ELSE slug END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		f.Title, f.Excerpt, f.Content, f.Slug, f.Slug, id,
	)
	if err != nil {
		return fmt.Errorf("overwrite product %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("overwrite product %d: not found", id)
	}
	return nil
}

// CopyMetadata copies the core meta keys, the product taxonomies and then
// every remaining meta key except the skipped bookkeeping keys.
func (s *SQLite) CopyMetadata(ctx context.Context, sourceID, destID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	core := inClause(CoreMetaKeys)
	for _, key := range CoreMetaKeys {
		var value string
		err := tx.QueryRowContext(ctx,
			"SELECT meta_value FROM product_meta WHERE product_id = ? AND meta_key = ? ORDER BY id LIMIT 1",
			sourceID, key,
		).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && value == "") {
			continue
		}
		if err != nil {
			return fmt.Errorf("read meta %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM product_meta WHERE product_id = ? AND meta_key = ?", destID, key); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO product_meta (product_id, meta_key, meta_value) VALUES (?, ?, ?)", destID, key, value,
		); err != nil {
			return fmt.Errorf("write meta %s: %w", key, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO product_terms (product_id, taxonomy, slug)
		SELECT ?, taxonomy, slug FROM product_terms
		WHERE product_id = ? AND taxonomy IN `+inClause(CopiedTaxonomies),
		destID, sourceID,
	); err != nil {
		return fmt.Errorf("copy terms: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO product_meta (product_id, meta_key, meta_value)
		SELECT ?, meta_key, meta_value FROM product_meta
		WHERE product_id = ?
			AND meta_key NOT IN `+inClause(SkippedMetaKeys)+`
			AND meta_key NOT IN `+core+`
		ORDER BY id`,
		destID, sourceID,
	); err != nil {
		return fmt.Errorf("copy meta: %w", err)
	}

	return tx.Commit()
}

// SetMeta replaces all values of key with value.
func (s *SQLite) SetMeta(ctx context.Context, id int64, key, value string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM product_meta WHERE product_id = ? AND meta_key = ?", id, key); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO product_meta (product_id, meta_key, meta_value) VALUES (?, ?, ?)", id, key, value,
	); err != nil {
		return fmt.Errorf("set meta %s on %d: %w", key, id, err)
	}
	return tx.Commit()
}

func inClause(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
