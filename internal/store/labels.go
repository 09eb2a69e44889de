package store

import (
	"context"
)

// GetLabels returns a page's labels, sorted.
func (s *Store) GetLabels(ctx context.Context, pageID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label FROM labels WHERE page_id = ? ORDER BY label ASC`, pageID)
	if err != nil {
		return nil, errStorage("get labels", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, errStorage("get labels", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errStorage("get labels", err)
	}
	return out, nil
}

// SetLabels replaces a page's label set in one transaction. A duplicate in
// the new set rolls the whole replacement back, leaving the old set intact.
func (s *Store) SetLabels(ctx context.Context, pageID string, labels []string) error {
	if _, err := s.GetPage(ctx, pageID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errStorage("set labels", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM labels WHERE page_id = ?`, pageID); err != nil {
		return errStorage("set labels", err)
	}
	for _, label := range labels {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO labels(page_id, label) VALUES(?, ?)`, pageID, label); err != nil {
			return errStorage("set labels", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errStorage("set labels", err)
	}
	return nil
}

// AddLabel attaches one label, idempotently.
func (s *Store) AddLabel(ctx context.Context, pageID, label string) error {
	if _, err := s.GetPage(ctx, pageID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO labels(page_id, label) VALUES(?, ?)`, pageID, label); err != nil {
		return errStorage("add label", err)
	}
	return nil
}
