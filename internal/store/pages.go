package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/loganshamberger/whatidid/internal/model"
)

// CreatePageParams carries everything needed to create a page. Labels are
// written in the same transaction as the page row.
type CreatePageParams struct {
	SpaceID  string
	ParentID *string
	Title    string
	Type     model.PageType
	Content  string
	Sections map[string]string
	Labels   []string
	Identity model.Identity
}

// CreatePage inserts a page at version 1 together with its labels. The whole
// insert is one transaction: a duplicate label in the input rolls everything
// back and no page exists afterward.
func (s *Store) CreatePage(ctx context.Context, p CreatePageParams) (model.Page, error) {
	if strings.TrimSpace(p.Title) == "" {
		return model.Page{}, errInvalidInput("page title must not be empty")
	}
	if _, ok := model.ParsePageType(string(p.Type)); !ok {
		return model.Page{}, errInvalidInput("unknown page type %q (valid: %s)",
			p.Type, strings.Join(model.PageTypeNames(), ", "))
	}

	content := p.Content
	if content == "" && len(p.Sections) > 0 {
		content = model.SectionsToContent(p.Sections, p.Type)
	}

	var sectionsJSON sql.NullString
	if len(p.Sections) > 0 {
		b, err := json.Marshal(p.Sections)
		if err != nil {
			return model.Page{}, errInvalidInput("sections not serializable: %v", err)
		}
		sectionsJSON = sql.NullString{String: string(b), Valid: true}
	}

	user := p.Identity.User
	if user == "" {
		user = "unknown"
	}
	agent := p.Identity.Agent
	if agent == "" {
		agent = "unknown"
	}

	page := model.Page{
		ID:             uuid.NewString(),
		SpaceID:        p.SpaceID,
		ParentID:       p.ParentID,
		Title:          p.Title,
		Type:           p.Type,
		Content:        content,
		Sections:       p.Sections,
		CreatedByUser:  user,
		CreatedByAgent: agent,
		CreatedAt:      nowRFC3339(),
		Version:        1,
		Labels:         append([]string{}, p.Labels...),
	}
	page.UpdatedAt = page.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Page{}, errStorage("create page", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pages(id, space_id, parent_id, title, page_type, content, sections,
			created_by_user, created_by_agent, created_at, updated_at, version)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		page.ID, page.SpaceID, page.ParentID, page.Title, string(page.Type),
		page.Content, sectionsJSON, page.CreatedByUser, page.CreatedByAgent,
		page.CreatedAt, page.UpdatedAt); err != nil {
		return model.Page{}, errStorage("create page", err)
	}
	for _, label := range p.Labels {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO labels(page_id, label) VALUES(?, ?)`, page.ID, label); err != nil {
			return model.Page{}, errStorage("create page labels", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Page{}, errStorage("create page", err)
	}
	return page, nil
}

// GetPage returns a page with its labels populated.
func (s *Store) GetPage(ctx context.Context, id string) (model.Page, error) {
	page, err := scanPage(s.db.QueryRowContext(ctx, `
		SELECT id, space_id, parent_id, title, page_type, content, sections,
			created_by_user, created_by_agent, created_at, updated_at, version
		FROM pages WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Page{}, errNotFound("page", id)
	}
	if err != nil {
		return model.Page{}, errStorage("get page", err)
	}
	labels, err := s.GetLabels(ctx, id)
	if err != nil {
		return model.Page{}, err
	}
	page.Labels = labels
	return page, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (model.Page, error) {
	var (
		page         model.Page
		parentID     sql.NullString
		sectionsJSON sql.NullString
		pageType     string
	)
	err := row.Scan(&page.ID, &page.SpaceID, &parentID, &page.Title, &pageType,
		&page.Content, &sectionsJSON, &page.CreatedByUser, &page.CreatedByAgent,
		&page.CreatedAt, &page.UpdatedAt, &page.Version)
	if err != nil {
		return model.Page{}, err
	}
	page.Type = model.PageType(pageType)
	if parentID.Valid {
		page.ParentID = &parentID.String
	}
	if sectionsJSON.Valid && sectionsJSON.String != "" {
		// Tolerate malformed stored JSON: the content column is authoritative.
		_ = json.Unmarshal([]byte(sectionsJSON.String), &page.Sections)
	}
	page.Labels = []string{}
	return page, nil
}

// ListPagesFilter narrows ListPages. Zero values mean "no filter".
type ListPagesFilter struct {
	SpaceID string
	Type    model.PageType
	Label   string
	User    string
	Agent   string
}

// ListPages returns pages matching the filter, newest first, labels
// populated.
func (s *Store) ListPages(ctx context.Context, f ListPagesFilter) ([]model.Page, error) {
	q := `SELECT p.id, p.space_id, p.parent_id, p.title, p.page_type, p.content, p.sections,
		p.created_by_user, p.created_by_agent, p.created_at, p.updated_at, p.version
		FROM pages p`
	var (
		clauses []string
		args    []any
	)
	if f.Label != "" {
		q += ` JOIN labels l ON l.page_id = p.id`
		clauses = append(clauses, "l.label = ?")
		args = append(args, f.Label)
	}
	if f.SpaceID != "" {
		clauses = append(clauses, "p.space_id = ?")
		args = append(args, f.SpaceID)
	}
	if f.Type != "" {
		clauses = append(clauses, "p.page_type = ?")
		args = append(args, string(f.Type))
	}
	if f.User != "" {
		clauses = append(clauses, "p.created_by_user = ?")
		args = append(args, f.User)
	}
	if f.Agent != "" {
		clauses = append(clauses, "p.created_by_agent = ?")
		args = append(args, f.Agent)
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += ` ORDER BY p.created_at DESC, p.title ASC`

	return s.queryPages(ctx, "list pages", q, args...)
}

// ListTopLevelPages returns a space's parentless pages ordered by title.
func (s *Store) ListTopLevelPages(ctx context.Context, spaceID string) ([]model.Page, error) {
	return s.queryPages(ctx, "list top-level pages", `
		SELECT id, space_id, parent_id, title, page_type, content, sections,
			created_by_user, created_by_agent, created_at, updated_at, version
		FROM pages
		WHERE space_id = ? AND parent_id IS NULL
		ORDER BY title COLLATE NOCASE ASC`, spaceID)
}

// ListChildPages returns a page's direct children ordered by title.
func (s *Store) ListChildPages(ctx context.Context, parentID string) ([]model.Page, error) {
	return s.queryPages(ctx, "list child pages", `
		SELECT id, space_id, parent_id, title, page_type, content, sections,
			created_by_user, created_by_agent, created_at, updated_at, version
		FROM pages
		WHERE parent_id = ?
		ORDER BY title COLLATE NOCASE ASC`, parentID)
}

func (s *Store) queryPages(ctx context.Context, op, q string, args ...any) ([]model.Page, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errStorage(op, err)
	}
	defer rows.Close()

	out := []model.Page{}
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, errStorage(op, err)
		}
		out = append(out, page)
	}
	if err := rows.Err(); err != nil {
		return nil, errStorage(op, err)
	}
	for i := range out {
		labels, err := s.GetLabels(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Labels = labels
	}
	return out, nil
}

// HasChildren reports whether any page nests under the given page.
func (s *Store) HasChildren(ctx context.Context, id string) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pages WHERE parent_id = ?`, id).Scan(&n)
	if err != nil {
		return false, errStorage("has children", err)
	}
	return n > 0, nil
}

// UpdatePageParams carries a partial update. Nil fields are left unchanged.
// When Sections is non-nil it replaces the stored sections and re-derives
// content. ExpectedVersion, when set, makes the update conditional.
type UpdatePageParams struct {
	Title           *string
	Content         *string
	Sections        map[string]string
	ExpectedVersion *int64
}

// UpdatePage applies a partial update as one conditional statement:
//
//	UPDATE pages SET ... version = version + 1 WHERE id = ? [AND version = ?]
//
// The version check and the write are a single atomic statement, so two
// writers racing with the same expected version cannot both win. Zero rows
// affected disambiguates by re-reading: missing row is NotFound, a present
// row means VersionConflict carrying the version actually found.
func (s *Store) UpdatePage(ctx context.Context, id string, p UpdatePageParams) (model.Page, error) {
	content := p.Content
	var sectionsJSON *string
	if p.Sections != nil {
		// Deriving content needs the page type; the guarded write below is
		// still the single atomic statement.
		current, err := s.GetPage(ctx, id)
		if err != nil {
			return model.Page{}, err
		}
		derived := model.SectionsToContent(p.Sections, current.Type)
		content = &derived
		b, err := json.Marshal(p.Sections)
		if err != nil {
			return model.Page{}, errInvalidInput("sections not serializable: %v", err)
		}
		js := string(b)
		sectionsJSON = &js
	}

	if p.Title == nil && content == nil {
		return model.Page{}, errInvalidInput("nothing to update: provide a title, content, or sections")
	}

	q := `UPDATE pages SET
		title = COALESCE(?, title),
		content = COALESCE(?, content),
		sections = COALESCE(?, sections),
		updated_at = ?,
		version = version + 1
		WHERE id = ?`
	args := []any{p.Title, content, sectionsJSON, nowRFC3339(), id}
	if p.ExpectedVersion != nil {
		q += ` AND version = ?`
		args = append(args, *p.ExpectedVersion)
	}

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return model.Page{}, errStorage("update page", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Page{}, errStorage("update page", err)
	}
	if n == 0 {
		var actual int64
		err := s.db.QueryRowContext(ctx, `SELECT version FROM pages WHERE id = ?`, id).Scan(&actual)
		if errors.Is(err, sql.ErrNoRows) {
			return model.Page{}, errNotFound("page", id)
		}
		if err != nil {
			return model.Page{}, errStorage("update page", err)
		}
		expected := int64(0)
		if p.ExpectedVersion != nil {
			expected = *p.ExpectedVersion
		}
		return model.Page{}, &VersionConflictError{Expected: expected, Actual: actual}
	}
	return s.GetPage(ctx, id)
}

// AppendPage appends text to a page's content as one atomic statement: a
// newline separates old and new content unless the page was empty. The
// engine serializes concurrent appends, so no append is ever lost.
func (s *Store) AppendPage(ctx context.Context, id, text string) (model.Page, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE pages SET
			content = CASE WHEN content = '' THEN ?1 ELSE content || char(10) || ?1 END,
			updated_at = ?2,
			version = version + 1
		WHERE id = ?3`, text, nowRFC3339(), id)
	if err != nil {
		return model.Page{}, errStorage("append page", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Page{}, errStorage("append page", err)
	}
	if n == 0 {
		return model.Page{}, errNotFound("page", id)
	}
	return s.GetPage(ctx, id)
}

// DeletePage removes a page. Labels and links cascade; child pages stay,
// with their parent cleared.
func (s *Store) DeletePage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return errStorage("delete page", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errStorage("delete page", err)
	}
	if n == 0 {
		return errNotFound("page", id)
	}
	return nil
}
