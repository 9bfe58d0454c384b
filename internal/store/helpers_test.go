package store

import "context"

// addMeta appends a value for key, keeping existing values.
func (s *SQLite) addMeta(ctx context.Context, id int64, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO product_meta (product_id, meta_key, meta_value) VALUES (?, ?, ?)", id, key, value,
	)
	return err
}

// meta returns every meta value of a product grouped by key.
func (s *SQLite) meta(ctx context.Context, id int64) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT meta_key, meta_value FROM product_meta WHERE product_id = ? ORDER BY id", id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = append(out[k], v)
	}
	return out, rows.Err()
}

// setTerms replaces a product's terms in one taxonomy.
func (s *SQLite) setTerms(ctx context.Context, id int64, taxonomy string, slugs ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM product_terms WHERE product_id = ? AND taxonomy = ?", id, taxonomy); err != nil {
		return err
	}
	for _, slug := range slugs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO product_terms (product_id, taxonomy, slug) VALUES (?, ?, ?)", id, taxonomy, slug,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// terms lists a product's term slugs in one taxonomy.
func (s *SQLite) terms(ctx context.Context, id int64, taxonomy string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT slug FROM product_terms WHERE product_id = ? AND taxonomy = ? ORDER BY slug", id, taxonomy,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		out = append(out, slug)
	}
	return out, rows.Err()
}
