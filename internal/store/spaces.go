package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/loganshamberger/whatidid/internal/model"
)

// CreateSpace inserts a new space. Slug must be unique; a duplicate surfaces
// as a StorageError from the UNIQUE constraint.
func (s *Store) CreateSpace(ctx context.Context, slug, name, description string) (model.Space, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return model.Space{}, errInvalidInput("space slug must not be empty")
	}
	if name == "" {
		name = slug
	}

	sp := model.Space{
		ID:          uuid.NewString(),
		Slug:        slug,
		Name:        name,
		Description: description,
		CreatedAt:   nowRFC3339(),
	}
	sp.UpdatedAt = sp.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spaces(id, slug, name, description, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.Slug, sp.Name, sp.Description, sp.CreatedAt, sp.UpdatedAt)
	if err != nil {
		return model.Space{}, errStorage("create space", err)
	}
	return sp, nil
}

// GetSpace returns the space with the given id.
func (s *Store) GetSpace(ctx context.Context, id string) (model.Space, error) {
	return s.scanSpace(s.db.QueryRowContext(ctx, `
		SELECT id, slug, name, description, created_at, updated_at
		FROM spaces WHERE id = ?`, id), id)
}

// GetSpaceBySlug returns the space with the given slug.
func (s *Store) GetSpaceBySlug(ctx context.Context, slug string) (model.Space, error) {
	return s.scanSpace(s.db.QueryRowContext(ctx, `
		SELECT id, slug, name, description, created_at, updated_at
		FROM spaces WHERE slug = ?`, slug), slug)
}

func (s *Store) scanSpace(row *sql.Row, ref string) (model.Space, error) {
	var sp model.Space
	err := row.Scan(&sp.ID, &sp.Slug, &sp.Name, &sp.Description, &sp.CreatedAt, &sp.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Space{}, errNotFound("space", ref)
	}
	if err != nil {
		return model.Space{}, errStorage("get space", err)
	}
	return sp, nil
}

// ListSpaces returns all spaces, newest first.
func (s *Store) ListSpaces(ctx context.Context) ([]model.Space, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slug, name, description, created_at, updated_at
		FROM spaces ORDER BY created_at DESC, slug ASC`)
	if err != nil {
		return nil, errStorage("list spaces", err)
	}
	defer rows.Close()

	out := []model.Space{}
	for rows.Next() {
		var sp model.Space
		if err := rows.Scan(&sp.ID, &sp.Slug, &sp.Name, &sp.Description, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, errStorage("list spaces", err)
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, errStorage("list spaces", err)
	}
	return out, nil
}

// DeleteSpace removes a space. Pages reference spaces with ON DELETE
// RESTRICT, so deleting a non-empty space fails with a StorageError.
func (s *Store) DeleteSpace(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM spaces WHERE id = ?`, id)
	if err != nil {
		return errStorage("delete space", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errStorage("delete space", err)
	}
	if n == 0 {
		return errNotFound("space", id)
	}
	return nil
}
