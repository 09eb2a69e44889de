package store

import (
	"context"
	"strings"

	"github.com/loganshamberger/whatidid/internal/model"
)

// CreateLink relates two pages. At most one link exists per ordered
// (source, target) pair; creating a second one fails on the primary key.
func (s *Store) CreateLink(ctx context.Context, sourceID, targetID string, relation model.LinkRelation) (model.Link, error) {
	if _, ok := model.ParseLinkRelation(string(relation)); !ok {
		return model.Link{}, errInvalidInput("unknown relation %q (valid: %s)",
			relation, strings.Join(model.LinkRelationNames(), ", "))
	}
	if sourceID == targetID {
		return model.Link{}, errInvalidInput("a page cannot link to itself")
	}
	if _, err := s.GetPage(ctx, sourceID); err != nil {
		return model.Link{}, err
	}
	if _, err := s.GetPage(ctx, targetID); err != nil {
		return model.Link{}, err
	}

	link := model.Link{
		SourceID:  sourceID,
		TargetID:  targetID,
		Relation:  relation,
		CreatedAt: nowRFC3339(),
	}
	link.UpdatedAt = link.CreatedAt

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO links(source_id, target_id, relation, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?)`,
		link.SourceID, link.TargetID, string(link.Relation), link.CreatedAt, link.UpdatedAt)
	if err != nil {
		return model.Link{}, errStorage("create link", err)
	}
	return link, nil
}

// ListLinks returns every link touching the page, outgoing and incoming,
// ordered source then target.
func (s *Store) ListLinks(ctx context.Context, pageID string) ([]model.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, target_id, relation, created_at, updated_at
		FROM links
		WHERE source_id = ? OR target_id = ?
		ORDER BY source_id ASC, target_id ASC`, pageID, pageID)
	if err != nil {
		return nil, errStorage("list links", err)
	}
	defer rows.Close()

	out := []model.Link{}
	for rows.Next() {
		var (
			link     model.Link
			relation string
		)
		if err := rows.Scan(&link.SourceID, &link.TargetID, &relation, &link.CreatedAt, &link.UpdatedAt); err != nil {
			return nil, errStorage("list links", err)
		}
		link.Relation = model.LinkRelation(relation)
		out = append(out, link)
	}
	if err := rows.Err(); err != nil {
		return nil, errStorage("list links", err)
	}
	return out, nil
}

// DeleteLink removes the link for an ordered (source, target) pair.
func (s *Store) DeleteLink(ctx context.Context, sourceID, targetID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM links WHERE source_id = ? AND target_id = ?`, sourceID, targetID)
	if err != nil {
		return errStorage("delete link", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errStorage("delete link", err)
	}
	if n == 0 {
		return errNotFound("link", sourceID+" -> "+targetID)
	}
	return nil
}
