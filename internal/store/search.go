package store

import (
	"context"
	"strings"

	"github.com/loganshamberger/whatidid/internal/model"
)

// SearchParams narrows a search. Query drives the full-text match; the rest
// are metadata filters. With an empty Query, search degrades to filtering.
type SearchParams struct {
	Query      string
	SpaceID    string
	Type       model.PageType
	Label      string
	Agent      string
	HasSection string
	Limit      int
}

const defaultSearchLimit = 50

// Search runs a full-text query over titles and content, ranked by
// relevance, with an excerpt around the first content match. Without a
// query it falls back to metadata-only filtering, newest first.
func (s *Store) Search(ctx context.Context, p SearchParams) ([]model.SearchResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var (
		clauses []string
		args    []any
	)
	q := `SELECT p.id, p.space_id, p.parent_id, p.title, p.page_type, p.content, p.sections,
		p.created_by_user, p.created_by_agent, p.created_at, p.updated_at, p.version
		FROM pages p`

	if p.Query != "" {
		q += ` JOIN pages_fts ON pages_fts.rowid = p.rowid`
		clauses = append(clauses, "pages_fts MATCH ?")
		args = append(args, ftsQuery(p.Query))
	}
	if p.Label != "" {
		q += ` JOIN labels l ON l.page_id = p.id`
		clauses = append(clauses, "l.label = ?")
		args = append(args, p.Label)
	}
	if p.SpaceID != "" {
		clauses = append(clauses, "p.space_id = ?")
		args = append(args, p.SpaceID)
	}
	if p.Type != "" {
		clauses = append(clauses, "p.page_type = ?")
		args = append(args, string(p.Type))
	}
	if p.Agent != "" {
		clauses = append(clauses, "p.created_by_agent = ?")
		args = append(args, p.Agent)
	}
	if p.HasSection != "" {
		clauses = append(clauses, "json_extract(p.sections, ?) IS NOT NULL")
		args = append(args, "$."+p.HasSection)
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	if p.Query != "" {
		q += ` ORDER BY pages_fts.rank`
	} else {
		q += ` ORDER BY p.created_at DESC, p.title ASC`
	}
	q += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errStorage("search", err)
	}
	defer rows.Close()

	out := []model.SearchResult{}
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, errStorage("search", err)
		}
		out = append(out, model.SearchResult{Page: page})
	}
	if err := rows.Err(); err != nil {
		return nil, errStorage("search", err)
	}

	for i := range out {
		labels, err := s.GetLabels(ctx, out[i].Page.ID)
		if err != nil {
			return nil, err
		}
		out[i].Page.Labels = labels
		if p.Query != "" {
			out[i].Excerpt = makeExcerpt(out[i].Page.Content, p.Query)
		}
	}
	return out, nil
}

// ftsQuery quotes each search term so user input never hits FTS5 query
// syntax (AND, NEAR, column filters).
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

const excerptRadius = 50

// makeExcerpt returns ~100 characters of content centered on the first
// case-insensitive occurrence of any query term, with ellipses where the
// content continues. Falls back to the content head when nothing matches.
func makeExcerpt(content, query string) string {
	if content == "" {
		return ""
	}
	lower := strings.ToLower(content)
	pos := -1
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if i := strings.Index(lower, term); i >= 0 && (pos < 0 || i < pos) {
			pos = i
		}
	}
	if pos < 0 {
		pos = 0
	}

	start := pos - excerptRadius
	if start < 0 {
		start = 0
	}
	end := pos + excerptRadius
	if end > len(content) {
		end = len(content)
	}
	// Snap to rune boundaries so we never split a multibyte character.
	for start > 0 && !isRuneStart(content[start]) {
		start--
	}
	for end < len(content) && !isRuneStart(content[end]) {
		end++
	}

	excerpt := strings.ReplaceAll(content[start:end], "\n", " ")
	if start > 0 {
		excerpt = "..." + excerpt
	}
	if end < len(content) {
		excerpt += "..."
	}
	return excerpt
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
