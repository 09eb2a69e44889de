package store

import (
	"context"
	"database/sql"
	"errors"
)

// migrations are applied in order, each batch in its own transaction, with
// the applied version tracked in schema_meta. Append-only: never edit a
// shipped batch.
var migrations = [][]string{
	// v1: core schema.
	{
		`CREATE TABLE IF NOT EXISTS spaces (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			space_id TEXT NOT NULL,
			parent_id TEXT,
			title TEXT NOT NULL,
			page_type TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			sections TEXT,
			created_by_user TEXT NOT NULL,
			created_by_agent TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			FOREIGN KEY(space_id) REFERENCES spaces(id) ON DELETE RESTRICT,
			FOREIGN KEY(parent_id) REFERENCES pages(id) ON DELETE SET NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_pages_space ON pages(space_id);`,
		`CREATE INDEX IF NOT EXISTS idx_pages_parent ON pages(parent_id);`,
		`CREATE TABLE IF NOT EXISTS labels (
			page_id TEXT NOT NULL,
			label TEXT NOT NULL,
			PRIMARY KEY(page_id, label),
			FOREIGN KEY(page_id) REFERENCES pages(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_labels_label ON labels(label);`,
		`CREATE TABLE IF NOT EXISTS links (
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			relation TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY(source_id, target_id),
			FOREIGN KEY(source_id) REFERENCES pages(id) ON DELETE CASCADE,
			FOREIGN KEY(target_id) REFERENCES pages(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_id);`,
	},
	// v2: full-text search over title + content, synced by triggers.
	{
		`CREATE VIRTUAL TABLE IF NOT EXISTS pages_fts USING fts5(
			title, content, content=pages, content_rowid=rowid
		);`,
		`CREATE TRIGGER IF NOT EXISTS pages_fts_insert AFTER INSERT ON pages BEGIN
			INSERT INTO pages_fts(rowid, title, content)
			VALUES (new.rowid, new.title, new.content);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS pages_fts_delete AFTER DELETE ON pages BEGIN
			INSERT INTO pages_fts(pages_fts, rowid, title, content)
			VALUES ('delete', old.rowid, old.title, old.content);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS pages_fts_update AFTER UPDATE ON pages BEGIN
			INSERT INTO pages_fts(pages_fts, rowid, title, content)
			VALUES ('delete', old.rowid, old.title, old.content);
			INSERT INTO pages_fts(rowid, title, content)
			VALUES (new.rowid, new.title, new.content);
		END;`,
	},
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_meta (
		k TEXT PRIMARY KEY,
		v INTEGER NOT NULL
	);`); err != nil {
		return errStorage("migrate", err)
	}

	var current int64
	err := s.db.QueryRowContext(ctx, `SELECT v FROM schema_meta WHERE k = 'schema_version'`).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return errStorage("migrate", err)
	}

	for i := int(current); i < len(migrations); i++ {
		if err := s.applyMigration(ctx, i); err != nil {
			return errStorage("migrate", err)
		}
	}
	return nil
}

func (s *Store) applyMigration(ctx context.Context, idx int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range migrations[idx] {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO schema_meta(k, v) VALUES('schema_version', ?)`, int64(idx+1)); err != nil {
		return err
	}
	return tx.Commit()
}
