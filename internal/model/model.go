// Package model holds the plain data types shared by the store, the CLI
// output layer, and the TUI. No business logic beyond section flattening.
package model

import (
	"sort"
	"strings"
)

// Space is a top-level organizational unit. Not tied to any repository —
// it can represent a project, a team, or any domain worth organizing
// knowledge around.
type Space struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Page is the primary knowledge document. It belongs to a space, has a type
// that hints at its structure, and optionally nests under a parent page.
type Page struct {
	ID       string   `json:"id"`
	SpaceID  string   `json:"space_id"`
	ParentID *string  `json:"parent_id"`
	Title    string   `json:"title"`
	Type     PageType `json:"type"`
	Content  string   `json:"content"`
	// Sections, when present, is the canonical source; Content is derived
	// from it by SectionsToContent.
	Sections       map[string]string `json:"sections,omitempty"`
	CreatedByUser  string            `json:"created_by_user"`
	CreatedByAgent string            `json:"created_by_agent"`
	CreatedAt      string            `json:"created_at"`
	UpdatedAt      string            `json:"updated_at"`
	Version        int64             `json:"version"`
	// Labels attached to this page (populated on read, not stored on the
	// pages row).
	Labels []string `json:"labels"`
}

// PageType is the closed set of page types. Each suggests a content
// structure, but content itself stays freeform markdown.
type PageType string

const (
	PageDecision        PageType = "decision"
	PageArchitecture    PageType = "architecture"
	PageSessionLog      PageType = "session-log"
	PageReference       PageType = "reference"
	PageTroubleshooting PageType = "troubleshooting"
	PageRunbook         PageType = "runbook"
)

// ParsePageType returns the page type for a CLI string, or false for
// unrecognized types.
func ParsePageType(s string) (PageType, bool) {
	switch PageType(s) {
	case PageDecision, PageArchitecture, PageSessionLog, PageReference,
		PageTroubleshooting, PageRunbook:
		return PageType(s), true
	}
	return "", false
}

// PageTypeNames lists all valid page type strings, for error messages.
func PageTypeNames() []string {
	return []string{
		string(PageDecision), string(PageArchitecture), string(PageSessionLog),
		string(PageReference), string(PageTroubleshooting), string(PageRunbook),
	}
}

// SectionDef describes one section within a page type's schema.
type SectionDef struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// SectionSchema returns the expected sections for a page type, in canonical
// order. Freeform types (session-log, reference) and unknown types have no
// schema and return nil.
func (t PageType) SectionSchema() []SectionDef {
	switch t {
	case PageDecision:
		return []SectionDef{
			{Key: "context", Name: "Context", Required: true},
			{Key: "options_considered", Name: "Options Considered", Required: true},
			{Key: "decision", Name: "Decision", Required: true},
			{Key: "consequences", Name: "Consequences", Required: false},
		}
	case PageTroubleshooting:
		return []SectionDef{
			{Key: "problem", Name: "Problem", Required: true},
			{Key: "diagnosis", Name: "Diagnosis", Required: true},
			{Key: "solution", Name: "Solution", Required: true},
		}
	case PageArchitecture:
		return []SectionDef{
			{Key: "context", Name: "Context", Required: true},
			{Key: "design", Name: "Design", Required: true},
			{Key: "rationale", Name: "Rationale", Required: false},
			{Key: "constraints", Name: "Constraints", Required: false},
		}
	case PageRunbook:
		return []SectionDef{
			{Key: "prerequisites", Name: "Prerequisites", Required: false},
			{Key: "steps", Name: "Steps", Required: true},
			{Key: "rollback", Name: "Rollback", Required: false},
		}
	}
	return nil
}

// SectionsToContent flattens structured sections into markdown. Schema keys
// render first in schema order, extra keys follow with Title Cased names;
// freeform types render alphabetically.
func SectionsToContent(sections map[string]string, t PageType) string {
	if len(sections) == 0 {
		return ""
	}

	var parts []string
	schema := t.SectionSchema()
	if schema != nil {
		for _, def := range schema {
			if text, ok := sections[def.Key]; ok {
				parts = append(parts, "## "+def.Name+"\n"+text)
			}
		}
		for _, key := range sortedExtraKeys(sections, schema) {
			parts = append(parts, "## "+titleCaseKey(key)+"\n"+sections[key])
		}
	} else {
		keys := make([]string, 0, len(sections))
		for k := range sections {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			parts = append(parts, "## "+titleCaseKey(key)+"\n"+sections[key])
		}
	}

	return strings.Join(parts, "\n\n")
}

// SectionWarnings reports unknown and missing-required section keys for the
// page type. Warnings never block creation; the caller decides where to
// surface them.
func SectionWarnings(sections map[string]string, t PageType) []string {
	schema := t.SectionSchema()
	if schema == nil || len(sections) == 0 {
		return nil
	}

	var warnings []string
	known := make(map[string]bool, len(schema))
	for _, def := range schema {
		known[def.Key] = true
	}

	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !known[k] {
			warnings = append(warnings, "unknown section '"+k+"' for page type '"+string(t)+"'")
		}
	}
	for _, def := range schema {
		if def.Required {
			if _, ok := sections[def.Key]; !ok {
				warnings = append(warnings, "missing required section '"+def.Key+"' for page type '"+string(t)+"'")
			}
		}
	}
	return warnings
}

func sortedExtraKeys(sections map[string]string, schema []SectionDef) []string {
	known := make(map[string]bool, len(schema))
	for _, def := range schema {
		known[def.Key] = true
	}
	var extra []string
	for k := range sections {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}

// titleCaseKey turns "options_considered" into "Options Considered".
func titleCaseKey(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Link is a typed directional relationship between two pages. At most one
// link exists per ordered (source, target) pair.
type Link struct {
	SourceID  string       `json:"source_id"`
	TargetID  string       `json:"target_id"`
	Relation  LinkRelation `json:"relation"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at"`
}

// LinkRelation is the kind of relationship between two linked pages.
type LinkRelation string

const (
	RelationRelatesTo  LinkRelation = "relates-to"
	RelationSupersedes LinkRelation = "supersedes"
	RelationDependsOn  LinkRelation = "depends-on"
	RelationElaborates LinkRelation = "elaborates"
)

// ParseLinkRelation returns the relation for a CLI string, or false for
// unrecognized relations.
func ParseLinkRelation(s string) (LinkRelation, bool) {
	switch LinkRelation(s) {
	case RelationRelatesTo, RelationSupersedes, RelationDependsOn, RelationElaborates:
		return LinkRelation(s), true
	}
	return "", false
}

// LinkRelationNames lists all valid relation strings, for error messages.
func LinkRelationNames() []string {
	return []string{
		string(RelationRelatesTo), string(RelationSupersedes),
		string(RelationDependsOn), string(RelationElaborates),
	}
}

// SearchResult pairs a page with a relevance excerpt. Excerpt is empty for
// metadata-only queries.
type SearchResult struct {
	Page    Page   `json:"page"`
	Excerpt string `json:"excerpt"`
}

// Identity names the user and agent performing an operation, resolved from
// CLI flags and environment.
type Identity struct {
	User  string `json:"user"`
	Agent string `json:"agent"`
}
